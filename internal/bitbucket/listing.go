package bitbucket

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	firstPageNumberConstant        = 1
	sortQueryParameterConstant     = "sort"
	pageQueryParameterConstant     = "page"
	updatedOnLayoutConstant        = time.RFC3339
	pageLogFieldConstant           = "page"
	workspaceLogFieldConstant      = "workspace"
	fetchingPageLogMessageConstant = "Fetching repository listing page"
)

// RepositorySummary is one validated repository entry of a workspace listing.
type RepositorySummary struct {
	Name        string
	Slug        string
	Description string
	Private     bool
	UpdatedOn   time.Time
}

// RepositoryListing is one validated page of a workspace listing.
type RepositoryListing struct {
	Page         int
	Next         string
	Repositories []RepositorySummary
}

// HasNext reports whether the listing carries a continuation cursor.
func (listing RepositoryListing) HasNext() bool {
	return len(listing.Next) > 0
}

type listingPagePayload struct {
	Next   *string                  `json:"next"`
	Page   *int                     `json:"page" validate:"required"`
	Values []repositoryEntryPayload `json:"values" validate:"required,dive"`
}

type repositoryEntryPayload struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description" validate:"required"`
	IsPrivate   *bool   `json:"is_private" validate:"required"`
	UpdatedOn   string  `json:"updated_on" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// Repositories lazily enumerates every repository of the workspace, one page at a time,
// in the order declared by the configured sort key. Each call starts a fresh listing.
// The first error is yielded once and ends the sequence.
func (client *Client) Repositories(executionContext context.Context) iter.Seq2[RepositorySummary, error] {
	return func(yield func(RepositorySummary, error) bool) {
		pageNumber := firstPageNumberConstant
		for {
			listing, listingError := client.FetchListing(executionContext, pageNumber)
			if listingError != nil {
				yield(RepositorySummary{}, listingError)
				return
			}
			for _, repository := range listing.Repositories {
				if !yield(repository, nil) {
					return
				}
			}
			if !listing.HasNext() {
				return
			}
			pageNumber = listing.Page + 1
		}
	}
}

// FetchListing retrieves and validates a single listing page.
func (client *Client) FetchListing(executionContext context.Context, pageNumber int) (RepositoryListing, error) {
	client.logger.Debug(fetchingPageLogMessageConstant,
		zap.String(workspaceLogFieldConstant, client.workspace),
		zap.Int(pageLogFieldConstant, pageNumber),
	)

	query := url.Values{}
	query.Set(sortQueryParameterConstant, client.sortKey)
	query.Set(pageQueryParameterConstant, strconv.Itoa(pageNumber))

	response, requestError := client.do(executionContext, http.MethodGet, client.endpoint(query, repositoriesPathSegmentConstant, client.workspace))
	if requestError != nil {
		return RepositoryListing{}, requestError
	}
	defer response.Body.Close()

	var payload listingPagePayload
	if decodeError := json.NewDecoder(response.Body).Decode(&payload); decodeError != nil {
		return RepositoryListing{}, ListingValidationError{Page: pageNumber, Cause: decodeError}
	}
	return client.convertListing(pageNumber, payload)
}

func (client *Client) convertListing(requestedPage int, payload listingPagePayload) (RepositoryListing, error) {
	if validationError := client.validator.Struct(payload); validationError != nil {
		return RepositoryListing{}, ListingValidationError{Page: requestedPage, Cause: validationError}
	}

	listing := RepositoryListing{Page: *payload.Page, Repositories: make([]RepositorySummary, 0, len(payload.Values))}
	if payload.Next != nil {
		listing.Next = *payload.Next
	}
	for _, entry := range payload.Values {
		updatedOn, parseError := time.Parse(updatedOnLayoutConstant, entry.UpdatedOn)
		if parseError != nil {
			return RepositoryListing{}, ListingValidationError{Page: requestedPage, Cause: parseError}
		}
		listing.Repositories = append(listing.Repositories, RepositorySummary{
			Name:        entry.Name,
			Slug:        entry.Slug,
			Description: *entry.Description,
			Private:     *entry.IsPrivate,
			UpdatedOn:   updatedOn,
		})
	}
	return listing, nil
}
