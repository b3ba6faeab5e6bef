package bitbucket

import (
	"errors"
	"fmt"
	"strings"
)

const (
	responseErrorTemplateConstant          = "bitbucket: %s %s returned status %d"
	responseErrorBodyTemplateConstant      = "%s: %s"
	listingValidationErrorTemplateConstant = "bitbucket: listing page %d failed validation: %v"
	requestErrorTemplateConstant           = "bitbucket: %s %s: %w"
)

var (
	// ErrWorkspaceNotConfigured indicates a client was constructed without a workspace.
	ErrWorkspaceNotConfigured = errors.New("bitbucket: workspace not configured")
	// ErrBaseURLInvalid indicates the API base URL could not be parsed.
	ErrBaseURLInvalid         = errors.New("bitbucket: api base url is invalid")
	// ErrSlugRequired indicates an operation was invoked without a repository slug.
	ErrSlugRequired           = errors.New("bitbucket: repository slug is required")
)

// ResponseError reports a request answered with a non-success status code.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error describes the failing request.
func (responseError ResponseError) Error() string {
	message := fmt.Sprintf(responseErrorTemplateConstant, responseError.Method, responseError.URL, responseError.StatusCode)
	trimmedBody := strings.TrimSpace(responseError.Body)
	if len(trimmedBody) == 0 {
		return message
	}
	return fmt.Sprintf(responseErrorBodyTemplateConstant, message, trimmedBody)
}

// ListingValidationError reports a listing page that does not match the expected schema.
type ListingValidationError struct {
	Page  int
	Cause error
}

// Error describes the validation failure.
func (validationError ListingValidationError) Error() string {
	return fmt.Sprintf(listingValidationErrorTemplateConstant, validationError.Page, validationError.Cause)
}

// Unwrap exposes the underlying validation or decoding error.
func (validationError ListingValidationError) Unwrap() error {
	return validationError.Cause
}
