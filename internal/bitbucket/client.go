package bitbucket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the public Bitbucket Cloud REST endpoint.
	DefaultAPIBaseURL = "https://api.bitbucket.org/2.0"
	// DefaultSortKey orders listings by most recent update first.
	DefaultSortKey    = "-updated_on"

	defaultRequestTimeoutConstant      = 60 * time.Second
	repositoriesPathSegmentConstant    = "repositories"
	acceptHeaderNameConstant           = "Accept"
	jsonMediaTypeConstant              = "application/json"
	maximumErrorBodyBytesConstant      = 64 * 1024
	requestMethodLogFieldConstant      = "method"
	requestURLLogFieldConstant         = "url"
	responseStatusLogFieldConstant     = "status_code"
	requestCompletedLogMessageConstant = "Bitbucket request completed"
)

// ClientConfiguration describes how to reach and authenticate against a workspace.
type ClientConfiguration struct {
	APIBaseURL     string
	Workspace      string
	Username       string
	Password       string
	SortKey        string
	RequestTimeout time.Duration
}

// Client performs authenticated Bitbucket REST calls scoped to one workspace.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	workspace  string
	username   string
	password   string
	sortKey    string
	logger     *zap.Logger
	validator  *validator.Validate
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// NewClient validates the configuration and constructs a Client.
func NewClient(configuration ClientConfiguration, options ...ClientOption) (*Client, error) {
	workspace := strings.TrimSpace(configuration.Workspace)
	if len(workspace) == 0 {
		return nil, ErrWorkspaceNotConfigured
	}

	baseURLValue := strings.TrimSpace(configuration.APIBaseURL)
	if len(baseURLValue) == 0 {
		baseURLValue = DefaultAPIBaseURL
	}
	baseURL, parseError := url.Parse(baseURLValue)
	if parseError != nil || len(baseURL.Scheme) == 0 || len(baseURL.Host) == 0 {
		return nil, ErrBaseURLInvalid
	}

	sortKey := strings.TrimSpace(configuration.SortKey)
	if len(sortKey) == 0 {
		sortKey = DefaultSortKey
	}

	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeoutConstant
	}

	client := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		workspace:  workspace,
		username:   configuration.Username,
		password:   configuration.Password,
		sortKey:    sortKey,
		logger:     zap.NewNop(),
		validator:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Workspace returns the workspace the client is bound to.
func (client *Client) Workspace() string {
	return client.workspace
}

// DeleteRepository removes a repository and asks Bitbucket to redirect visitors to redirectTo.
func (client *Client) DeleteRepository(executionContext context.Context, slug string, redirectTo string) error {
	if len(strings.TrimSpace(slug)) == 0 {
		return ErrSlugRequired
	}

	query := url.Values{}
	if len(redirectTo) > 0 {
		query.Set("redirect_to", redirectTo)
	}
	response, requestError := client.do(executionContext, http.MethodDelete, client.endpoint(query, repositoriesPathSegmentConstant, client.workspace, slug))
	if requestError != nil {
		return requestError
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func (client *Client) endpoint(query url.Values, segments ...string) *url.URL {
	endpoint := client.baseURL.JoinPath(segments...)
	endpoint.RawQuery = query.Encode()
	return endpoint
}

// do sends the request and converts non-2xx answers into ResponseError; callers close the body on success.
func (client *Client) do(executionContext context.Context, method string, endpoint *url.URL) (*http.Response, error) {
	request, requestError := http.NewRequestWithContext(executionContext, method, endpoint.String(), nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestErrorTemplateConstant, method, endpoint.Redacted(), requestError)
	}
	request.SetBasicAuth(client.username, client.password)
	request.Header.Set(acceptHeaderNameConstant, jsonMediaTypeConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, fmt.Errorf(requestErrorTemplateConstant, method, endpoint.Redacted(), responseError)
	}

	client.logger.Debug(requestCompletedLogMessageConstant,
		zap.String(requestMethodLogFieldConstant, method),
		zap.String(requestURLLogFieldConstant, endpoint.Redacted()),
		zap.Int(responseStatusLogFieldConstant, response.StatusCode),
	)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(response.Body, maximumErrorBodyBytesConstant))
		return nil, ResponseError{Method: method, URL: endpoint.Redacted(), StatusCode: response.StatusCode, Body: string(body)}
	}
	return response, nil
}
