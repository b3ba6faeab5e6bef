package execshell

import (
	"net/url"
	"regexp"
)

const redactedCredentialReplacementConstant = "${scheme}xxxxx@"

var embeddedCredentialPattern = regexp.MustCompile(`(?P<scheme>[a-zA-Z][a-zA-Z0-9+.-]*://)[^\s/@]+@`)

// RedactArguments returns a copy of arguments with passwords removed from URLs.
func RedactArguments(arguments []string) []string {
	redacted := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		redacted = append(redacted, redactURL(argument))
	}
	return redacted
}

// RedactText masks every credential embedded in a URL found within text.
func RedactText(text string) string {
	return embeddedCredentialPattern.ReplaceAllString(text, redactedCredentialReplacementConstant)
}

func redactURL(candidate string) string {
	parsed, parseError := url.Parse(candidate)
	if parseError != nil || parsed.User == nil || len(parsed.Scheme) == 0 {
		return candidate
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return candidate
	}
	return parsed.Redacted()
}
