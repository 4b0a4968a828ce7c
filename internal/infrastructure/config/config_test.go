package config

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// mockVaultClient implements VaultClient interface for testing.
type mockVaultClient struct {
	secrets map[string]map[string]interface{}
	err     error
}

func (m *mockVaultClient) GetKVSecret(_ context.Context, path, _ string) (map[string]interface{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	if secret, ok := m.secrets[path]; ok {
		return secret, nil
	}
	return nil, errors.New("secret not found")
}

// mockVaultClientFactory creates a factory that returns the provided mock client.
func mockVaultClientFactory(client VaultClient, err error) VaultClientFactory {
	return func(_ context.Context) (VaultClient, error) {
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// clearEnv unsets every variable this package reads.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		EnvProvider, EnvModel, EnvEndpoint, EnvAPIKey,
		EnvMaxCommitLength, EnvCommitChoices, EnvCustomRules,
		EnvRedact, EnvCommitLanguage, EnvLogLevel, EnvLogAppName,
		EnvVaultAPIKeyPath, EnvVaultAPIKeyMount,
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OLLAMA_API_KEY",
	}
	for _, v := range vars {
		// t.Setenv registers cleanup restoring the original value.
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Empty(t, cfg.Endpoint)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, domain.DefaultMaxCommitLength, cfg.MaxCommitLength)
	assert.Equal(t, domain.DefaultCommitChoicesCount, cfg.CommitChoicesCount)
	assert.Nil(t, cfg.CustomRules)
	assert.True(t, cfg.RedactSensitiveData)
	assert.Equal(t, domain.DefaultCommitLanguage, cfg.CommitLanguage)
	assert.Equal(t, domain.DefaultMaxInteractiveIterations, cfg.MaxInteractiveIterations)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogAppName, cfg.LogAppName)
}

func TestLoad_MissingModel(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelRequired)
}

func TestLoad_ExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, "Anthropic")
	t.Setenv(EnvModel, "claude-sonnet-4-5")
	t.Setenv(EnvEndpoint, "https://proxy.internal")
	t.Setenv(EnvAPIKey, "direct-key")
	t.Setenv(EnvMaxCommitLength, "60")
	t.Setenv(EnvCommitChoices, "3")
	t.Setenv(EnvCustomRules, "no emoji; reference tickets ;")
	t.Setenv(EnvRedact, "false")
	t.Setenv(EnvCommitLanguage, "de")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogAppName, "gitdraft-ci")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider, "provider is normalized to lowercase")
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, "https://proxy.internal", cfg.Endpoint)
	assert.Equal(t, "direct-key", cfg.APIKey)
	assert.Equal(t, 60, cfg.MaxCommitLength)
	assert.Equal(t, 3, cfg.CommitChoicesCount)
	assert.Equal(t, []string{"no emoji", "reference tickets"}, cfg.CustomRules)
	assert.False(t, cfg.RedactSensitiveData)
	assert.Equal(t, "de", cfg.CommitLanguage)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gitdraft-ci", cfg.LogAppName)
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name        string
		length      string
		choices     string
		wantLength  int
		wantChoices int
	}{
		{"below minimums", "10", "0", domain.MinMaxCommitLength, domain.MinCommitChoicesCount},
		{"above maximums", "500", "50", domain.MaxMaxCommitLength, domain.MaxCommitChoicesCount},
		{"at bounds", "50", "10", 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvModel, "gpt-4o")
			t.Setenv(EnvMaxCommitLength, tt.length)
			t.Setenv(EnvCommitChoices, tt.choices)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantLength, cfg.MaxCommitLength)
			assert.Equal(t, tt.wantChoices, cfg.CommitChoicesCount)
		})
	}
}

func TestLoad_InvalidNumbersRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvMaxCommitLength, "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestLoad_ProviderSpecificAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, "anthropic")
	t.Setenv(EnvModel, "claude-sonnet-4-5")
	t.Setenv("ANTHROPIC_API_KEY", "vendor-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "vendor-key", cfg.APIKey)
}

func TestLoad_GenericKeyWinsOverProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, "openai")
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvAPIKey, "generic-key")
	t.Setenv("OPENAI_API_KEY", "vendor-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.APIKey)
}

func TestLoadWithVaultClient_APIKeyFromVault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvVaultAPIKeyPath, "ci/gitdraft")

	client := &mockVaultClient{secrets: map[string]map[string]interface{}{
		"ci/gitdraft": {"api_key": "vault-key"},
	}}

	cfg, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, nil))
	require.NoError(t, err)
	assert.Equal(t, "vault-key", cfg.APIKey)
}

func TestLoadWithVaultClient_SecretMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvVaultAPIKeyPath, "ci/absent")

	client := &mockVaultClient{secrets: map[string]map[string]interface{}{}}

	_, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVaultSecretNotFound)
}

func TestLoadWithVaultClient_SecretWithoutKeyField(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvVaultAPIKeyPath, "ci/gitdraft")

	client := &mockVaultClient{secrets: map[string]map[string]interface{}{
		"ci/gitdraft": {"something_else": "value"},
	}}

	_, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVaultSecretNotFound)
}

func TestLoadWithVaultClient_ClientCreationFails(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvVaultAPIKeyPath, "ci/gitdraft")

	factoryErr := errors.New("approle auth failed")
	_, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(nil, factoryErr))
	require.Error(t, err)
	assert.ErrorIs(t, err, factoryErr)
}

func TestLoadWithVaultClient_EnvWinsOverVault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gpt-4o")
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvVaultAPIKeyPath, "ci/gitdraft")

	// The factory must never be called when the environment has a key.
	factory := mockVaultClientFactory(nil, errors.New("should not be called"))
	cfg, err := LoadWithVaultClient(context.Background(), factory)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestSplitRules(t *testing.T) {
	assert.Nil(t, splitRules(""))
	assert.Nil(t, splitRules("   "))
	assert.Equal(t, []string{"a", "b"}, splitRules("a;b"))
	assert.Equal(t, []string{"only one"}, splitRules("  only one  "))
	assert.Equal(t, []string{"x"}, splitRules(";;x;;"))
}
