package models

import (
	"strings"
	"time"
)

// EmailInput is the structured form of one inbound email. It is the only input
// to an analysis pass and is never mutated by it.
type EmailInput struct {
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	BodyHTML     string   `json:"body_html,omitempty"`
	Sender       string   `json:"sender"`
	DisplayName  string   `json:"from_display,omitempty"`
	Attachments  []string `json:"attachments,omitempty"`
	AuthResult   string   `json:"dkim_spf_result,omitempty"`
	KeywordHints []string `json:"suspicious_keywords,omitempty"`
}

// ReplyMode selects how a persona reply is drafted
type ReplyMode string

const (
	ReplyStructured ReplyMode = "structured"
	ReplyFreeform   ReplyMode = "freeform"
)

// AnalyzeRequest is an EmailInput plus per-request options
type AnalyzeRequest struct {
	EmailInput
	GenerateReply bool      `json:"generate_reply,omitempty"`
	ReplyMode     ReplyMode `json:"reply_mode,omitempty"`
}

// EmailEvent is an email as published to the analysis queue by an ingestion
// service (one JSON document per queue entry).
type EmailEvent struct {
	MessageID   string            `json:"message_id"`
	From        string            `json:"from"`
	FromName    string            `json:"from_name,omitempty"`
	To          []string          `json:"to,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	BodyHTML    string            `json:"body_html,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	ReceivedAt  time.Time         `json:"received_at"`
}

// ToInput maps a queued event onto the analysis input. The
// Authentication-Results header is looked up case-insensitively.
func (e EmailEvent) ToInput() EmailInput {
	var auth string
	for k, v := range e.Headers {
		if strings.EqualFold(k, "Authentication-Results") {
			auth = v
			break
		}
	}

	return EmailInput{
		Subject:     e.Subject,
		Body:        e.Body,
		BodyHTML:    e.BodyHTML,
		Sender:      e.From,
		DisplayName: e.FromName,
		Attachments: e.Attachments,
		AuthResult:  auth,
	}
}
