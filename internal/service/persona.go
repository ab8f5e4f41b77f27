package service

import (
	"strings"

	"github.com/driftline/chatrelay/internal/model"
)

// personaRules is priority-ordered: the first category with a matching
// keyword wins, there is no multi-match merging.
var personaRules = []struct {
	tag      model.PersonaTag
	keywords []string
}{
	{model.PersonaCode, []string{"code", "python", "bug", "function", "variable"}},
	{model.PersonaSummary, []string{"summary", "recap", "tl;dr"}},
	{model.PersonaCreative, []string{"story", "creative", "write a poem"}},
}

// SelectPersona classifies a user message into a system-prompt variant.
// Pure and deterministic: case-insensitive substring containment against
// fixed keyword tables.
func SelectPersona(message string) model.PersonaTag {
	lower := strings.ToLower(message)
	for _, rule := range personaRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.tag
			}
		}
	}
	return model.PersonaDefault
}
