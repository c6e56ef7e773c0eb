package phishing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stoik/lure/internal/ai"
	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/internal/persona"
)

// GenerateReply drafts a reply to in written as p. Structured mode asks the
// model for a {subject, body} object; freeform mode asks for the body text
// only. When the model is missing or fails, the persona's canned reply is used.
func (a *Analyzer) GenerateReply(ctx context.Context, in models.EmailInput, p models.Persona, mode models.ReplyMode) models.ReplyDraft {
	p = models.ParsePersona(string(p))
	fallback := models.ReplyDraft{
		Subject:     replySubject(in.Subject),
		Body:        persona.CannedReply(p),
		PersonaUsed: p,
		Source:      models.SourceFallback,
	}
	if a.gen == nil {
		return fallback
	}

	system := fmt.Sprintf("You are a %s employee.", p)
	log := a.log.With().Str("persona", string(p)).Str("mode", string(mode)).Logger()

	if mode == models.ReplyFreeform {
		text, err := a.gen.GenerateText(ctx, freeformPrompt(in, p), system)
		if err != nil || strings.HasPrefix(text, ai.EmptyResponsePrefix) {
			log.Warn().Err(err).Msg("reply generation failed, using canned reply")
			return fallback
		}
		return models.ReplyDraft{
			Subject:     replySubject(in.Subject),
			Body:        strings.TrimSpace(text),
			PersonaUsed: p,
			Source:      models.SourceAI,
		}
	}

	res := a.gen.GenerateJSON(ctx, structuredPrompt(in, p), system)
	if !res.OK() {
		log.Warn().Str("error", res.Error).Msg("reply generation failed, using canned reply")
		return fallback
	}

	draft := models.ReplyDraft{
		Subject:     replySubject(in.Subject),
		PersonaUsed: p,
		Source:      models.SourceAI,
	}
	if s, ok := res.Data["subject"].(string); ok && strings.TrimSpace(s) != "" {
		draft.Subject = strings.TrimSpace(s)
	}
	if b, ok := res.Data["body"].(string); ok {
		draft.Body = strings.TrimSpace(b)
	}
	if draft.Body == "" {
		log.Warn().Msg("model reply had no body, using canned reply")
		return fallback
	}
	return draft
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

func structuredPrompt(in models.EmailInput, p models.Persona) string {
	return fmt.Sprintf(`You are an employee with the following traits: %s.
You received this email:

Subject: %s
Sender: %s
Body:
%s

Draft a reply email.
Return a JSON object with two fields:
- "subject": The subject line of the reply (e.g., "Re: ...")
- "body": The body of the reply.

Do not break character. Do not mention you are an AI.`, persona.Traits(p), in.Subject, in.Sender, in.Body)
}

func freeformPrompt(in models.EmailInput, p models.Persona) string {
	return fmt.Sprintf(`You are an employee with the following traits: %s.
You received this email:

Subject: %s
Sender: %s
Body:
%s

Write only the body of your reply, as plain text with no subject line.
Do not break character. Do not mention you are an AI.`, persona.Traits(p), in.Subject, in.Sender, in.Body)
}
