package persona

import "github.com/stoik/lure/internal/models"

var traits = map[models.Persona]string{
	models.PersonaFinance: "cautious, formal, asks for verification, concerned about invoices/payments",
	models.PersonaHR:      "polite, compliant, helpful, asks for candidate details or scheduling",
	models.PersonaIT:      "technical, suspicious of security issues, asks for ticket numbers or logs",
	models.PersonaGeneral: "naive, helpful, slightly confused, asks for clarification",
}

var cannedReplies = map[models.Persona]string{
	models.PersonaFinance: "Thanks for the invoice. We'll forward this to procurement and confirm before payment.",
	models.PersonaHR:      "Thanks for the resume. Please share your LinkedIn/profile link and preferred interview times.",
	models.PersonaIT:      "Please submit this to IT helpdesk with system details so we can investigate.",
	models.PersonaGeneral: "Thanks, I will check and get back to you.",
}

// Traits describes how the persona writes. Unknown personas get general's traits.
func Traits(p models.Persona) string {
	if t, ok := traits[p]; ok {
		return t
	}
	return traits[models.PersonaGeneral]
}

// CannedReply is the fixed reply body used when no model is available
func CannedReply(p models.Persona) string {
	if r, ok := cannedReplies[p]; ok {
		return r
	}
	return cannedReplies[models.PersonaGeneral]
}
