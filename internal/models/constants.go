// Package models contains data types and constants for the Gemini REST API
// and the chat transcript.
package models

import "time"

// Endpoints for the Gemini REST API
const (
	EndpointBase = "https://generativelanguage.googleapis.com/v1beta"

	// EndpointAPIKeyHelp is where users obtain a key.
	EndpointAPIKeyHelp = "https://aistudio.google.com/app/apikey"
)

// Model represents a Gemini model served by the REST API
type Model struct {
	Name        string
	Alias       string
	Description string
}

// Available models
var (
	Model15Flash = Model{
		Name:        "gemini-1.5-flash-latest",
		Alias:       "flash",
		Description: "Fast, low-latency replies",
	}

	Model15Pro = Model{
		Name:        "gemini-1.5-pro-latest",
		Alias:       "pro",
		Description: "Slower, more capable replies",
	}

	Model20Flash = Model{
		Name:        "gemini-2.0-flash",
		Alias:       "flash-2.0",
		Description: "Newer fast model",
	}

	// DefaultModel is used when no model is configured
	DefaultModel = Model15Flash
)

// AllModels returns the built-in models, default first
func AllModels() []Model {
	return []Model{Model15Flash, Model15Pro, Model20Flash}
}

// ModelFromName returns a Model by its name. Unknown names are passed through
// untouched so newer models work without a release.
func ModelFromName(name string) Model {
	if name == "" {
		return DefaultModel
	}
	for _, m := range AllModels() {
		if name == m.Alias || name == m.Name {
			return m
		}
	}
	return Model{Name: name}
}

// GenerateURL returns the generateContent URL for model under base
func GenerateURL(base string, model Model) string {
	if base == "" {
		base = EndpointBase
	}
	return base + "/models/" + model.Name + ":generateContent"
}

// Generation defaults. These are fixed for chat replies.
const (
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.9
	DefaultTopK            = 32
	DefaultMaxOutputTokens = 1024
)

// DefaultTimeout bounds a single generateContent call.
const DefaultTimeout = 60 * time.Second

// DefaultHeaders returns the default headers for generateContent requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "eerieecho/1.0",
	}
}
