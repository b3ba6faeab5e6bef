package githubapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

const (
	operationErrorTemplateConstant           = "github: %s failed: %v"
	operationErrorWithStatusTemplateConstant = "github: %s failed with status %d: %v"
	invalidInputErrorTemplateConstant        = "github: %s: %s"
	errorDetailsSeparatorConstant            = "; "
	errorDetailTemplateConstant              = "%s %s %s"
)

// OperationName identifies a GitHub REST operation performed by the client.
type OperationName string

// Supported operations.
const (
	CreateRepositoryOperation    OperationName = "create repository"
	GrantTeamPermissionOperation OperationName = "grant team permission"
	ListBranchesOperation        OperationName = "list branches"
	ProtectBranchOperation       OperationName = "protect branch"
	ArchiveRepositoryOperation   OperationName = "archive repository"
)

var (
	// ErrTokenNotConfigured indicates a client was constructed without a token.
	ErrTokenNotConfigured = errors.New("github: token not configured")
	// ErrBaseURLInvalid indicates the API base URL could not be parsed.
	ErrBaseURLInvalid     = errors.New("github: api base url is invalid")
	// ErrMissingHTMLURL indicates a created repository was returned without its web address.
	ErrMissingHTMLURL     = errors.New("github: created repository has no html_url")
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps a failed REST call together with the diagnostics worth logging.
type OperationError struct {
	Operation  OperationName
	StatusCode int
	Details    string
	Payload    any
	Cause      error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.StatusCode == 0 {
		return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
	}
	return fmt.Sprintf(operationErrorWithStatusTemplateConstant, operationError.Operation, operationError.StatusCode, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

func newOperationError(operation OperationName, response *github.Response, payload any, cause error) OperationError {
	operationError := OperationError{Operation: operation, Payload: payload, Cause: cause}
	if response != nil && response.Response != nil {
		operationError.StatusCode = response.StatusCode
	}

	var errorResponse *github.ErrorResponse
	if errors.As(cause, &errorResponse) {
		operationError.Details = describeErrorResponse(errorResponse)
		if operationError.StatusCode == 0 && errorResponse.Response != nil {
			operationError.StatusCode = errorResponse.Response.StatusCode
		}
	}
	if operationError.StatusCode == 0 {
		var rateLimitError *github.RateLimitError
		if errors.As(cause, &rateLimitError) {
			operationError.StatusCode = http.StatusForbidden
			operationError.Details = rateLimitError.Message
		}
	}
	return operationError
}

func describeErrorResponse(errorResponse *github.ErrorResponse) string {
	details := []string{}
	if len(strings.TrimSpace(errorResponse.Message)) > 0 {
		details = append(details, errorResponse.Message)
	}
	for _, fieldError := range errorResponse.Errors {
		if len(fieldError.Message) > 0 {
			details = append(details, fieldError.Message)
			continue
		}
		details = append(details, strings.TrimSpace(fmt.Sprintf(errorDetailTemplateConstant, fieldError.Resource, fieldError.Field, fieldError.Code)))
	}
	return strings.Join(details, errorDetailsSeparatorConstant)
}
