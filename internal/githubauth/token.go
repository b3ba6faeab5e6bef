// Package githubauth resolves the destination access token.
package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variable names consulted when no token is configured explicitly.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

// ErrTokenNotFound indicates that neither configuration nor environment supplied a token.
var ErrTokenNotFound = errors.New("github token not found: set tools.migrate.destination.token or one of GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN")

var fallbackVariables = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup reads a single environment variable.
type EnvironmentLookup func(key string) (string, bool)

// TokenResolver picks the destination token from configuration first, then the environment.
type TokenResolver struct {
	lookup EnvironmentLookup
}

// NewTokenResolver builds a resolver over lookup, defaulting to the process environment.
func NewTokenResolver(lookup EnvironmentLookup) TokenResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return TokenResolver{lookup: lookup}
}

// Resolve returns the trimmed configured token or the first non-blank fallback variable.
func (resolver TokenResolver) Resolve(configuredToken string) (string, error) {
	if trimmedToken := strings.TrimSpace(configuredToken); len(trimmedToken) > 0 {
		return trimmedToken, nil
	}

	lookup := resolver.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, variableName := range fallbackVariables {
		value, exists := lookup(variableName)
		if !exists {
			continue
		}
		if trimmedValue := strings.TrimSpace(value); len(trimmedValue) > 0 {
			return trimmedValue, nil
		}
	}
	return "", ErrTokenNotFound
}

// ResolveToken resolves against the process environment.
func ResolveToken(configuredToken string) (string, error) {
	return NewTokenResolver(nil).Resolve(configuredToken)
}
