package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	pathSeparatorConstant               = "/"
	suffixSeparatorConstant             = "."
	gitSuffixConstant                   = "git"
	httpsSchemeConstant                 = "https"
	httpSchemeConstant                  = "http"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unsupportedSchemeMessageConstant    = "unsupported remote scheme"
	missingPathMessageConstant          = "remote url has no repository path"
)

// RemoteCredentials authenticate git over HTTPS.
type RemoteCredentials struct {
	Username string
	Secret   string
}

// RemoteLocation identifies a repository reachable over HTTP(S).
type RemoteLocation struct {
	// BaseURL is either a host root (https://bitbucket.org) or a full repository page URL.
	BaseURL      string
	// PathSegments are appended to BaseURL with path escaping.
	PathSegments []string
	Credentials  RemoteCredentials
	// SlugSuffix is the alphanumeric extension already carried by the repository slug.
	SlugSuffix   string
}

// RemoteURLParseError indicates a remote location could not be turned into a URL.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// BuildAuthenticatedRemoteURL embeds credentials into the location and appends the
// git suffix to its final path segment while preserving any existing slug suffix.
func BuildAuthenticatedRemoteURL(location RemoteLocation) (string, error) {
	trimmedBase := strings.TrimSpace(location.BaseURL)
	parsedURL, parseError := url.Parse(trimmedBase)
	if parseError != nil || len(parsedURL.Host) == 0 {
		return "", RemoteURLParseError{Input: trimmedBase, Message: invalidRemoteURLMessageConstant}
	}
	if parsedURL.Scheme != httpsSchemeConstant && parsedURL.Scheme != httpSchemeConstant {
		return "", RemoteURLParseError{Input: trimmedBase, Message: unsupportedSchemeMessageConstant}
	}

	segments := splitPathSegments(parsedURL.Path)
	segments = append(segments, location.PathSegments...)
	if len(segments) == 0 {
		return "", RemoteURLParseError{Input: trimmedBase, Message: missingPathMessageConstant}
	}

	lastIndex := len(segments) - 1
	segments[lastIndex] = ReplaceSuffix(segments[lastIndex], gitRemoteSuffix(location.SlugSuffix))

	parsedURL.Path = pathSeparatorConstant + strings.Join(segments, pathSeparatorConstant)
	parsedURL.RawPath = ""
	parsedURL.RawQuery = ""
	parsedURL.Fragment = ""
	if len(location.Credentials.Username) > 0 || len(location.Credentials.Secret) > 0 {
		parsedURL.User = url.UserPassword(location.Credentials.Username, location.Credentials.Secret)
	}
	return parsedURL.String(), nil
}

// Suffix returns the alphanumeric extension of the final path segment, or an empty string.
func Suffix(name string) string {
	separatorIndex := strings.LastIndex(name, suffixSeparatorConstant)
	if separatorIndex < 0 || separatorIndex == len(name)-1 {
		return ""
	}
	candidate := name[separatorIndex+1:]
	for _, character := range candidate {
		if !isASCIIAlphanumeric(character) {
			return ""
		}
	}
	return candidate
}

// ReplaceSuffix swaps the alphanumeric extension of name for suffix, appending when none exists.
func ReplaceSuffix(name string, suffix string) string {
	existingSuffix := Suffix(name)
	if len(existingSuffix) == 0 {
		return name + suffixSeparatorConstant + suffix
	}
	return strings.TrimSuffix(name, existingSuffix) + suffix
}

func gitRemoteSuffix(slugSuffix string) string {
	if len(slugSuffix) == 0 {
		return gitSuffixConstant
	}
	return slugSuffix + suffixSeparatorConstant + gitSuffixConstant
}

func splitPathSegments(path string) []string {
	segments := []string{}
	for _, segment := range strings.Split(path, pathSeparatorConstant) {
		if len(segment) == 0 {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

func isASCIIAlphanumeric(character rune) bool {
	return (character >= 'a' && character <= 'z') || (character >= 'A' && character <= 'Z') || (character >= '0' && character <= '9')
}
