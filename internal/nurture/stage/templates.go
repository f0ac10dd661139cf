package stage

import (
	"strings"

	"nurture_backend/internal/nurture/domain"
)

// Templates maps each stage to its outbound SMS body. The {name}
// placeholder is replaced with the lead's first name.
type Templates map[domain.Stage]string

// DefaultTemplates returns the built-in drip copy. Deployments can
// override individual stages from the settings file.
func DefaultTemplates() Templates {
	return Templates{
		domain.StageDay1:     "Hi {name}, thanks for reaching out about your home. I'd love to help whenever you're ready. Any questions I can answer?",
		domain.StageDay2:     "Hi {name}, just checking in. Curious what your home is worth in today's market? Happy to pull the numbers for you.",
		domain.StageDay3:     "Hey {name}, homes in your area have been moving quickly. Want a quick no-obligation look at what yours could sell for?",
		domain.StageDay5:     "Hi {name}, still here if you have questions about selling. Even if the timing isn't right yet, I'm glad to be a resource.",
		domain.StageDay7:     "Hi {name}, I'll stop filling up your messages for now. If anything changes, just reply here and I'll jump right on it.",
		domain.StageLongTerm: "Hi {name}, checking in after some time. If selling is back on your radar, I'd be happy to catch you up on the market.",
	}
}

// Render substitutes the lead's name into the template for the stage.
// An empty name falls back to "there". The second return is false when
// no template exists for the stage.
func (t Templates) Render(s domain.Stage, name string) (string, bool) {
	tmpl, ok := t[s]
	if !ok {
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(tmpl, "{name}", name), true
}

// Merge returns a copy of t with non-empty overrides replacing the
// corresponding stage template.
func (t Templates) Merge(override Templates) Templates {
	merged := make(Templates, len(t))
	for s, tmpl := range t {
		merged[s] = tmpl
	}
	for s, tmpl := range override {
		if tmpl != "" {
			merged[s] = tmpl
		}
	}
	return merged
}
