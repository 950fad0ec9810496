package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// driverKeyEnv maps a driver to the environment variable holding its API key.
var driverKeyEnv = map[string]string{
	"openai":  "OPENAI_API_KEY",
	"mistral": "MISTRAL_API_KEY",
	"claude":  "ANTHROPIC_API_KEY",
	"gemini":  "GEMINI_API_KEY",
}

// ResolveAPIKey resolves the API key for a driver.
// Resolution order: direct api_key (or ${VAR}) → driver default env.
func ResolveAPIKey(driver string, auth config.AuthConfig) (string, error) {
	if key := expandKey(auth.APIKey); key != "" {
		return key, nil
	}

	env, ok := driverKeyEnv[strings.ToLower(driver)]
	if !ok {
		return "", fmt.Errorf("unknown driver %q: cannot resolve auth", driver)
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s not set", env)
}

// ResolveAuth resolves the API key of a provider config.
func ResolveAuth(cfg config.ProviderConfig) (string, error) {
	return ResolveAPIKey(cfg.Driver, cfg.Auth)
}

func expandKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		return os.Getenv(trimmed[2 : len(trimmed)-1])
	}
	return trimmed
}
