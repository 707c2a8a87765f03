package symptom

import (
	"sort"
	"strings"
)

// Checker matches free-text symptom descriptions against a static catalog and
// suggests specializations. It holds no state and hits no store.
type Checker struct {
	catalog map[string][]string
}

// Suggestion pairs a recognized symptom with the specializations that
// commonly handle it.
type Suggestion struct {
	Symptom         string   `json:"symptom"`
	Specializations []string `json:"specializations"`
}

func NewChecker() *Checker {
	return &Checker{catalog: map[string][]string{
		"fever":               {"General Medicine", "Infectious Disease"},
		"cough":               {"General Medicine", "Pulmonology"},
		"headache":            {"Neurology", "General Medicine"},
		"chest pain":          {"Cardiology", "Emergency Medicine"},
		"shortness of breath": {"Pulmonology", "Cardiology"},
		"abdominal pain":      {"Gastroenterology", "General Medicine"},
		"rash":                {"Dermatology"},
		"joint pain":          {"Rheumatology", "Orthopedics"},
		"back pain":           {"Orthopedics", "Physiotherapy"},
		"sore throat":         {"General Medicine", "Otolaryngology"},
		"dizziness":           {"Neurology", "Cardiology"},
		"fatigue":             {"General Medicine", "Endocrinology"},
		"nausea":              {"Gastroenterology", "General Medicine"},
		"anxiety":             {"Psychiatry"},
		"blurred vision":      {"Ophthalmology", "Neurology"},
		"palpitations":        {"Cardiology"},
		"swelling":            {"General Medicine", "Nephrology"},
		"ear pain":            {"Otolaryngology"},
	}}
}

// Symptoms lists the recognized symptom names, sorted.
func (c *Checker) Symptoms() []string {
	out := make([]string, 0, len(c.catalog))
	for s := range c.catalog {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Check scans the description for known symptom keywords.
func (c *Checker) Check(description string) []Suggestion {
	text := strings.ToLower(description)
	var out []Suggestion
	for _, symptom := range c.Symptoms() {
		if strings.Contains(text, symptom) {
			out = append(out, Suggestion{
				Symptom:         symptom,
				Specializations: c.catalog[symptom],
			})
		}
	}
	return out
}
