package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to studyaid! Let's configure the server.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider for keyword extraction",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider
	preset := GetPreset(cfg.Provider)
	cfg.EmbeddingModel = preset.EmbeddingModel

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: preset.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	clientPrompt := promptui.Prompt{
		Label:   "Client URL (CORS origin and post-login redirect)",
		Default: cfg.ClientURL,
	}
	if cfg.ClientURL, err = clientPrompt.Run(); err != nil {
		return nil, fmt.Errorf("client url: %w", err)
	}

	idPrompt := promptui.Prompt{Label: "Google OAuth client ID (blank to skip)"}
	if cfg.Google.ClientID, err = idPrompt.Run(); err != nil {
		return nil, fmt.Errorf("google client id: %w", err)
	}
	if cfg.Google.ClientID != "" {
		secretPrompt := promptui.Prompt{Label: "Google OAuth client secret", Mask: '*'}
		if cfg.Google.ClientSecret, err = secretPrompt.Run(); err != nil {
			return nil, fmt.Errorf("google client secret: %w", err)
		}
		cfg.Google.CallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/google/callback", cfg.Port)
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running studyaid server.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
