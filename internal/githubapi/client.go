package githubapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIBaseURL is the public GitHub REST endpoint.
	DefaultAPIBaseURL = "https://api.github.com/"
	// PushPermission grants collaborators write access.
	PushPermission    = "push"

	defaultRequestTimeoutConstant = 60 * time.Second
	branchesPerPageConstant       = 100
	trailingSlashConstant         = "/"
	fieldRequiredMessageConstant  = "value required"
	ownerFieldNameConstant        = "owner"
	repositoryFieldNameConstant   = "repository"
	branchFieldNameConstant       = "branch"
	teamFieldNameConstant         = "team"
	operationLogFieldConstant     = "operation"
	ownerLogFieldConstant         = "owner"
	repositoryLogFieldConstant    = "repository"
	statusCodeLogFieldConstant    = "status_code"
	operationLogMessageConstant   = "GitHub request completed"
)

// ClientConfiguration describes how to reach and authenticate against GitHub.
type ClientConfiguration struct {
	APIBaseURL     string
	Token          string
	RequestTimeout time.Duration
}

// RepositoryCreation describes a repository to create.
type RepositoryCreation struct {
	Owner       string
	OwnerType   OwnerType
	Name        string
	Description string
	Private     bool
}

// Client performs GitHub REST calls with a bearer token.
type Client struct {
	client *github.Client
	logger *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// NewClient builds a go-github client over an oauth2 static token transport.
func NewClient(executionContext context.Context, configuration ClientConfiguration, options ...ClientOption) (*Client, error) {
	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrTokenNotConfigured
	}

	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeoutConstant
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(executionContext, tokenSource)
	httpClient.Timeout = requestTimeout

	return NewClientWithHTTPClient(httpClient, configuration.APIBaseURL, options...)
}

// NewClientWithHTTPClient builds a client over a caller-supplied transport.
func NewClientWithHTTPClient(httpClient *http.Client, apiBaseURL string, options ...ClientOption) (*Client, error) {
	baseURLValue := strings.TrimSpace(apiBaseURL)
	if len(baseURLValue) == 0 {
		baseURLValue = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(baseURLValue, trailingSlashConstant) {
		baseURLValue += trailingSlashConstant
	}
	baseURL, parseError := url.Parse(baseURLValue)
	if parseError != nil || len(baseURL.Scheme) == 0 || len(baseURL.Host) == 0 {
		return nil, ErrBaseURLInvalid
	}

	restClient := github.NewClient(httpClient)
	restClient.BaseURL = baseURL

	client := &Client{client: restClient, logger: zap.NewNop()}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// CreateRepository creates the repository and returns its web address.
func (client *Client) CreateRepository(executionContext context.Context, creation RepositoryCreation) (string, error) {
	if len(strings.TrimSpace(creation.Name)) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: fieldRequiredMessageConstant}
	}

	organization := ""
	if creation.OwnerType.IsOrganization() {
		if len(strings.TrimSpace(creation.Owner)) == 0 {
			return "", InvalidInputError{FieldName: ownerFieldNameConstant, Message: fieldRequiredMessageConstant}
		}
		organization = creation.Owner
	}

	payload := &github.Repository{
		Name:        github.String(creation.Name),
		Private:     github.Bool(creation.Private),
		Description: github.String(creation.Description),
	}
	repository, response, createError := client.client.Repositories.Create(executionContext, organization, payload)
	client.logOperation(CreateRepositoryOperation, creation.Owner, creation.Name, response)
	if createError != nil {
		return "", newOperationError(CreateRepositoryOperation, response, payload, createError)
	}

	htmlURL := strings.TrimSpace(repository.GetHTMLURL())
	if len(htmlURL) == 0 {
		return "", newOperationError(CreateRepositoryOperation, response, payload, ErrMissingHTMLURL)
	}
	return htmlURL, nil
}

// GrantTeamPermission gives a team of the organization the permission on owner/repository.
func (client *Client) GrantTeamPermission(executionContext context.Context, organization string, teamSlug string, owner string, repository string, permission string) error {
	if len(strings.TrimSpace(teamSlug)) == 0 {
		return InvalidInputError{FieldName: teamFieldNameConstant, Message: fieldRequiredMessageConstant}
	}
	if inputError := validateRepositoryCoordinates(owner, repository); inputError != nil {
		return inputError
	}

	payload := &github.TeamAddTeamRepoOptions{Permission: permission}
	response, grantError := client.client.Teams.AddTeamRepoBySlug(executionContext, organization, teamSlug, owner, repository, payload)
	client.logOperation(GrantTeamPermissionOperation, owner, repository, response)
	if grantError != nil {
		return newOperationError(GrantTeamPermissionOperation, response, payload, grantError)
	}
	return nil
}

// ListBranchNames returns the names of every branch, following pagination.
func (client *Client) ListBranchNames(executionContext context.Context, owner string, repository string) ([]string, error) {
	if inputError := validateRepositoryCoordinates(owner, repository); inputError != nil {
		return nil, inputError
	}

	options := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: branchesPerPageConstant}}
	branchNames := []string{}
	for {
		branches, response, listError := client.client.Repositories.ListBranches(executionContext, owner, repository, options)
		client.logOperation(ListBranchesOperation, owner, repository, response)
		if listError != nil {
			return nil, newOperationError(ListBranchesOperation, response, nil, listError)
		}
		for _, branch := range branches {
			branchNames = append(branchNames, branch.GetName())
		}
		if response == nil || response.NextPage == 0 {
			return branchNames, nil
		}
		options.Page = response.NextPage
	}
}

// ProtectBranch enforces admin rules and forbids force pushes; deletion follows allowDeletion.
func (client *Client) ProtectBranch(executionContext context.Context, owner string, repository string, branch string, allowDeletion bool) error {
	if inputError := validateRepositoryCoordinates(owner, repository); inputError != nil {
		return inputError
	}
	if len(strings.TrimSpace(branch)) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: fieldRequiredMessageConstant}
	}

	payload := &github.ProtectionRequest{
		EnforceAdmins:    true,
		AllowForcePushes: github.Bool(false),
		AllowDeletions:   github.Bool(allowDeletion),
	}
	_, response, protectError := client.client.Repositories.UpdateBranchProtection(executionContext, owner, repository, branch, payload)
	client.logOperation(ProtectBranchOperation, owner, repository, response)
	if protectError != nil {
		return newOperationError(ProtectBranchOperation, response, payload, protectError)
	}
	return nil
}

// ArchiveRepository marks the repository read-only.
func (client *Client) ArchiveRepository(executionContext context.Context, owner string, repository string) error {
	if inputError := validateRepositoryCoordinates(owner, repository); inputError != nil {
		return inputError
	}

	payload := &github.Repository{Archived: github.Bool(true)}
	_, response, archiveError := client.client.Repositories.Edit(executionContext, owner, repository, payload)
	client.logOperation(ArchiveRepositoryOperation, owner, repository, response)
	if archiveError != nil {
		return newOperationError(ArchiveRepositoryOperation, response, payload, archiveError)
	}
	return nil
}

func (client *Client) logOperation(operation OperationName, owner string, repository string, response *github.Response) {
	fields := []zap.Field{
		zap.String(operationLogFieldConstant, string(operation)),
		zap.String(ownerLogFieldConstant, owner),
		zap.String(repositoryLogFieldConstant, repository),
	}
	if response != nil && response.Response != nil {
		fields = append(fields, zap.Int(statusCodeLogFieldConstant, response.StatusCode))
	}
	client.logger.Debug(operationLogMessageConstant, fields...)
}

func validateRepositoryCoordinates(owner string, repository string) error {
	if len(strings.TrimSpace(owner)) == 0 {
		return InvalidInputError{FieldName: ownerFieldNameConstant, Message: fieldRequiredMessageConstant}
	}
	if len(strings.TrimSpace(repository)) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: fieldRequiredMessageConstant}
	}
	return nil
}
