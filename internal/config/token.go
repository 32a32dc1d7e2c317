package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// keychainService is the secret store service name for all goodfirst secrets.
const keychainService = "goodfirst"

// apiTokenAccount is the secret store account holding the local API token.
const apiTokenAccount = "api_token"

// EnsureAPIToken returns the bearer token protecting the local HTTP API,
// generating and persisting one on first use.
func EnsureAPIToken() (string, error) {
	if out, err := keychainExec(keychainService, apiTokenAccount); err == nil {
		if tok := strings.TrimSpace(string(out)); tok != "" {
			return tok, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := keychainStore(keychainService, apiTokenAccount, token); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return token, nil
}

// SetGitHubToken persists a GitHub token in the platform secret store.
func SetGitHubToken(token string) error {
	return keychainStore(keychainService, "github_token", token)
}
