package persona

// Definition captures the identity document loaded from persona.json.
type Definition struct {
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Tone          string   `json:"tone"`
	SpeakingStyle string   `json:"speaking_style"`
	Context       string   `json:"context"`
	Instructions  []string `json:"instructions"`
}

// Facts is the grounded-knowledge document loaded from facts.json.
// The assistant may only claim what appears here.
type Facts map[string]string
