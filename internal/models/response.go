package models

// Part is one text segment of a Content
type Part struct {
	Text string `json:"text"`
}

// Content is one role-tagged turn on the wire
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig holds the sampling parameters sent with every request
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig returns the fixed chat generation parameters
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// GenerateRequest is the generateContent request body
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// ToContents converts a transcript into the wire shape, preserving order
func ToContents(entries []TranscriptEntry) []Content {
	contents := make([]Content, 0, len(entries))
	for _, e := range entries {
		contents = append(contents, Content{
			Role:  string(e.Role),
			Parts: []Part{{Text: e.Text}},
		})
	}
	return contents
}
