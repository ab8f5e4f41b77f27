package model

// SessionState tracks where a connection is in its lifecycle. It is carried
// in logs only; persistence stores start/end times, not the state itself.
type SessionState string

const (
	SessionStateInit        SessionState = "init"
	SessionStateActive      SessionState = "active"
	SessionStateClosing     SessionState = "closing"
	SessionStateSummarizing SessionState = "summarizing"
	SessionStateClosed      SessionState = "closed"
)

type EventType string

const (
	EventTypeUserMessage EventType = "user_message"
	EventTypeAIResponse  EventType = "ai_response"
)

// PersonaTag identifies the system-prompt variant selected for a turn.
type PersonaTag string

const (
	PersonaCode       PersonaTag = "code"
	PersonaSummary    PersonaTag = "summary"
	PersonaCreative   PersonaTag = "creative"
	PersonaDefault    PersonaTag = "default"
	PersonaSummarizer PersonaTag = "summarizer"
)

// SystemPrompt returns the fixed instruction text sent to the completion
// provider for this persona.
func (p PersonaTag) SystemPrompt() string {
	switch p {
	case PersonaCode:
		return "You are an expert Python programmer. Provide efficient, clean, and well-documented code."
	case PersonaSummary:
		return "You are a concise summarizer. distilling complex information into key bullet points."
	case PersonaCreative:
		return "You are a creative writer. Use vivid imagery and engaging narrative structures."
	case PersonaSummarizer:
		return "You are an expert summarizer."
	default:
		return "You are a helpful AI assistant."
	}
}
