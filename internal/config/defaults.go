package config

// DefaultSessionSecret is the development session secret. Validate rejects it
// in production.
const DefaultSessionSecret = "your-secret-key-change-in-production"

// ModelPreset names the chat and embedding models used for a provider.
type ModelPreset struct {
	Model          string
	EmbeddingModel string
}

var modelPresets = map[ProviderType]ModelPreset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:              3001,
		DataDir:           "data",
		ClientURL:         "http://localhost:5173",
		SessionSecret:     DefaultSessionSecret,
		SessionTTLHours:   24 * 7,
		LogLevel:          "info",
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		RequestsPerMinute: 60,
		Google: GoogleConfig{
			CallbackURL: "http://localhost:3001/api/auth/google/callback",
		},
	}
}

// GetPreset returns the model preset for the given provider, falling back to
// the OpenAI preset.
func GetPreset(provider ProviderType) ModelPreset {
	if p, ok := modelPresets[provider]; ok {
		return p
	}
	return modelPresets[ProviderOpenAI]
}
