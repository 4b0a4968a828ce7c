// Package config provides configuration loading for the gitdraft application.
// It handles provider selection, generation limits and API key resolution
// from environment variables with a HashiCorp Vault fallback for the key.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// Environment variable names.
const (
	// EnvProvider selects the model provider (openai, anthropic, gemini, ollama).
	EnvProvider = "GITDRAFT_PROVIDER"

	// EnvModel is the model identifier passed to the provider.
	EnvModel = "GITDRAFT_MODEL"

	// EnvEndpoint overrides the provider's base URL.
	EnvEndpoint = "GITDRAFT_ENDPOINT"

	// EnvAPIKey is the provider API key. Takes precedence over the
	// provider-specific variable and Vault.
	EnvAPIKey = "GITDRAFT_API_KEY"

	// EnvMaxCommitLength bounds generated subject lines (50 to 100).
	EnvMaxCommitLength = "GITDRAFT_MAX_COMMIT_LENGTH"

	// EnvCommitChoices is how many candidates to request (1 to 10).
	EnvCommitChoices = "GITDRAFT_COMMIT_CHOICES"

	// EnvCustomRules is a semicolon-separated list of extra prompt rules.
	EnvCustomRules = "GITDRAFT_CUSTOM_RULES"

	// EnvRedact toggles sensitive-data redaction (default true).
	EnvRedact = "GITDRAFT_REDACT"

	// EnvCommitLanguage is the language for generated messages.
	EnvCommitLanguage = "GITDRAFT_COMMIT_LANGUAGE"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvVaultAPIKeyPath is the path in Vault KV where the API key is stored.
	EnvVaultAPIKeyPath = "VAULT_API_KEY_PATH"

	// EnvVaultAPIKeyMount is the Vault KV mount point (defaults to "secret").
	EnvVaultAPIKeyMount = "VAULT_API_KEY_MOUNT"
)

// Default values.
const (
	DefaultProvider      = "openai"
	DefaultLogLevel      = "info"
	DefaultLogAppName    = "gitdraft"
	DefaultVaultKeyMount = "secret"
)

// Configuration errors.
var (
	// ErrModelRequired indicates GITDRAFT_MODEL is not set.
	ErrModelRequired = errors.New("model required: set GITDRAFT_MODEL")

	// ErrInvalidNumber indicates a numeric environment variable did not parse.
	ErrInvalidNumber = errors.New("invalid numeric value")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the API key was not found in Vault.
	ErrVaultSecretNotFound = errors.New("API key not found in Vault")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
// This is the default factory used in production.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Load loads the application configuration from environment variables.
// The API key is resolved in order: GITDRAFT_API_KEY, the provider-specific
// variable (for example OPENAI_API_KEY), then Vault when VAULT_API_KEY_PATH
// is set. A missing key is not an error here; providers that need one reject
// it at construction.
func Load() (*domain.Configuration, error) {
	return LoadWithVaultClient(context.Background(), nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used.
// This function enables dependency injection for testing.
func LoadWithVaultClient(ctx context.Context, vaultClientFactory VaultClientFactory) (*domain.Configuration, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv(EnvProvider)))
	if provider == "" {
		provider = DefaultProvider
	}

	model := strings.TrimSpace(os.Getenv(EnvModel))
	if model == "" {
		return nil, ErrModelRequired
	}

	maxLen, err := intFromEnv(EnvMaxCommitLength, domain.DefaultMaxCommitLength)
	if err != nil {
		return nil, err
	}
	maxLen = clamp(maxLen, domain.MinMaxCommitLength, domain.MaxMaxCommitLength)

	choices, err := intFromEnv(EnvCommitChoices, domain.DefaultCommitChoicesCount)
	if err != nil {
		return nil, err
	}
	choices = clamp(choices, domain.MinCommitChoicesCount, domain.MaxCommitChoicesCount)

	redact, err := boolFromEnv(EnvRedact, true)
	if err != nil {
		return nil, err
	}

	language := strings.TrimSpace(os.Getenv(EnvCommitLanguage))
	if language == "" {
		language = domain.DefaultCommitLanguage
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	logAppName := os.Getenv(EnvLogAppName)
	if logAppName == "" {
		logAppName = DefaultLogAppName
	}

	apiKey, err := resolveAPIKey(ctx, provider, vaultClientFactory)
	if err != nil {
		return nil, err
	}

	return &domain.Configuration{
		Provider:                 provider,
		Model:                    model,
		Endpoint:                 strings.TrimSpace(os.Getenv(EnvEndpoint)),
		APIKey:                   apiKey,
		MaxCommitLength:          maxLen,
		CommitChoicesCount:       choices,
		CustomRules:              splitRules(os.Getenv(EnvCustomRules)),
		RedactSensitiveData:      redact,
		CommitLanguage:           language,
		MaxInteractiveIterations: domain.DefaultMaxInteractiveIterations,
		LogLevel:                 logLevel,
		LogAppName:               logAppName,
	}, nil
}

// resolveAPIKey checks the generic variable, then the provider-specific one,
// then Vault. Returns empty when no source has a key.
func resolveAPIKey(ctx context.Context, provider string, vaultClientFactory VaultClientFactory) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}

	providerEnv := strings.ToUpper(provider) + "_API_KEY"
	if key := strings.TrimSpace(os.Getenv(providerEnv)); key != "" {
		return key, nil
	}

	vaultPath := os.Getenv(EnvVaultAPIKeyPath)
	if vaultPath == "" {
		return "", nil
	}
	return loadAPIKeyFromVault(ctx, vaultClientFactory, vaultPath)
}

// loadAPIKeyFromVault reads the API key from Vault KV v2. The secret must
// carry an "api_key" string field.
func loadAPIKeyFromVault(ctx context.Context, vaultClientFactory VaultClientFactory, path string) (string, error) {
	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return "", err
	}

	mount := os.Getenv(EnvVaultAPIKeyMount)
	if mount == "" {
		mount = DefaultVaultKeyMount
	}

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return "", fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	key, ok := secretData["api_key"].(string)
	if !ok || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w at path %s: secret has no api_key field", ErrVaultSecretNotFound, path)
	}
	return strings.TrimSpace(key), nil
}

// splitRules parses the semicolon-separated custom rules list, dropping
// empty entries.
func splitRules(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	rules := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			rules = append(rules, trimmed)
		}
	}
	return rules
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, name, raw)
	}
	return value, nil
}

func boolFromEnv(name string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, name, raw)
	}
	return value, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
