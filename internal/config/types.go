package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level studyaid configuration, corresponding to studyaid.yml.
type Config struct {
	Port              int          `yaml:"port" koanf:"port"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	ClientURL         string       `yaml:"client_url" koanf:"client_url"`
	SessionSecret     string       `yaml:"session_secret" koanf:"session_secret"`
	SessionTTLHours   int          `yaml:"session_ttl_hours" koanf:"session_ttl_hours"`
	Production        bool         `yaml:"production" koanf:"production"`
	LogLevel          string       `yaml:"log_level" koanf:"log_level"`
	LogFile           string       `yaml:"log_file" koanf:"log_file"`
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Google            GoogleConfig `yaml:"google" koanf:"google"`
}

// GoogleConfig holds the OAuth client used for sign-in.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" koanf:"client_id"`
	ClientSecret string `yaml:"client_secret" koanf:"client_secret"`
	CallbackURL  string `yaml:"callback_url" koanf:"callback_url"`
}
