package bitbucket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repomove/internal/bitbucket"
)

const (
	testWorkspaceConstant               = "team"
	testUsernameConstant                = "alice"
	testPasswordConstant                = "app-password"
	testListingPathConstant             = "/repositories/team"
	testMissingFieldCaseNameConstant    = "missing_is_private"
	testNullDescriptionCaseNameConstant = "null_description"
	testBadTimestampCaseNameConstant    = "malformed_updated_on"
	testMissingPageCaseNameConstant     = "missing_page"
)

type listingServer struct {
	pages          []map[string]any
	requestedPages []int
	sortKeys       []string
}

func (server *listingServer) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	username, password, hasCredentials := request.BasicAuth()
	if !hasCredentials || username != testUsernameConstant || password != testPasswordConstant {
		responseWriter.WriteHeader(http.StatusUnauthorized)
		return
	}
	if request.URL.Path != testListingPathConstant {
		responseWriter.WriteHeader(http.StatusNotFound)
		return
	}
	pageNumber, parseError := strconv.Atoi(request.URL.Query().Get("page"))
	if parseError != nil || pageNumber < 1 || pageNumber > len(server.pages) {
		responseWriter.WriteHeader(http.StatusNotFound)
		return
	}
	server.requestedPages = append(server.requestedPages, pageNumber)
	server.sortKeys = append(server.sortKeys, request.URL.Query().Get("sort"))
	responseWriter.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(responseWriter).Encode(server.pages[pageNumber-1])
}

func repositoryEntry(slug string, updatedOn string) map[string]any {
	return map[string]any{
		"name":        slug,
		"slug":        slug,
		"description": "about " + slug,
		"is_private":  true,
		"updated_on":  updatedOn,
		"uuid":        "{ignored}",
	}
}

func listingPage(pageNumber int, hasNext bool, entries ...map[string]any) map[string]any {
	if entries == nil {
		entries = []map[string]any{}
	}
	page := map[string]any{"page": pageNumber, "values": entries, "pagelen": 10}
	if hasNext {
		page["next"] = fmt.Sprintf("https://api.bitbucket.org/2.0/repositories/team?page=%d", pageNumber+1)
	} else {
		page["next"] = nil
	}
	return page
}

func newTestClient(testInstance *testing.T, serverURL string) *bitbucket.Client {
	testInstance.Helper()
	client, creationError := bitbucket.NewClient(bitbucket.ClientConfiguration{
		APIBaseURL: serverURL,
		Workspace:  testWorkspaceConstant,
		Username:   testUsernameConstant,
		Password:   testPasswordConstant,
	})
	require.NoError(testInstance, creationError)
	return client
}

func TestRepositoriesFollowsCursorUntilExhausted(testInstance *testing.T) {
	server := &listingServer{pages: []map[string]any{
		listingPage(1, true, repositoryEntry("alpha", "2024-03-01T10:00:00.123456+00:00"), repositoryEntry("beta", "2024-02-01T10:00:00+00:00")),
		listingPage(2, true),
		listingPage(3, false, repositoryEntry("gamma", "2023-01-01T00:00:00Z")),
	}}
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	client := newTestClient(testInstance, httpServer.URL)

	slugs := []string{}
	for repository, iterationError := range client.Repositories(context.Background()) {
		require.NoError(testInstance, iterationError)
		slugs = append(slugs, repository.Slug)
		require.True(testInstance, repository.Private)
		require.Equal(testInstance, "about "+repository.Slug, repository.Description)
	}

	require.Equal(testInstance, []string{"alpha", "beta", "gamma"}, slugs)
	require.Equal(testInstance, []int{1, 2, 3}, server.requestedPages)
	require.Equal(testInstance, []string{bitbucket.DefaultSortKey, bitbucket.DefaultSortKey, bitbucket.DefaultSortKey}, server.sortKeys)
}

func TestRepositoriesParsesUpdatedOn(testInstance *testing.T) {
	server := &listingServer{pages: []map[string]any{
		listingPage(1, false, repositoryEntry("alpha", "2020-01-01T05:20:10.123456+00:00")),
	}}
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	client := newTestClient(testInstance, httpServer.URL)
	listing, listingError := client.FetchListing(context.Background(), 1)
	require.NoError(testInstance, listingError)
	require.False(testInstance, listing.HasNext())
	require.Len(testInstance, listing.Repositories, 1)
	require.True(testInstance, listing.Repositories[0].UpdatedOn.Equal(time.Date(2020, time.January, 1, 5, 20, 10, 123456000, time.UTC)))
}

func TestRepositoriesStopsWhenConsumerBreaks(testInstance *testing.T) {
	server := &listingServer{pages: []map[string]any{
		listingPage(1, true, repositoryEntry("alpha", "2024-03-01T10:00:00Z"), repositoryEntry("beta", "2024-02-01T10:00:00Z")),
		listingPage(2, false, repositoryEntry("gamma", "2023-01-01T00:00:00Z")),
	}}
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	client := newTestClient(testInstance, httpServer.URL)
	for repository, iterationError := range client.Repositories(context.Background()) {
		require.NoError(testInstance, iterationError)
		require.Equal(testInstance, "alpha", repository.Slug)
		break
	}
	require.Equal(testInstance, []int{1}, server.requestedPages)
}

func TestRepositoriesRejectsInvalidPages(testInstance *testing.T) {
	validEntry := repositoryEntry("alpha", "2024-03-01T10:00:00Z")

	missingPrivacy := repositoryEntry("beta", "2024-03-01T10:00:00Z")
	delete(missingPrivacy, "is_private")

	nullDescription := repositoryEntry("beta", "2024-03-01T10:00:00Z")
	nullDescription["description"] = nil

	malformedTimestamp := repositoryEntry("beta", "yesterday")

	missingPage := listingPage(1, false, validEntry)
	delete(missingPage, "page")

	testCases := []struct {
		name string
		page map[string]any
	}{
		{name: testMissingFieldCaseNameConstant, page: listingPage(1, false, validEntry, missingPrivacy)},
		{name: testNullDescriptionCaseNameConstant, page: listingPage(1, false, validEntry, nullDescription)},
		{name: testBadTimestampCaseNameConstant, page: listingPage(1, false, validEntry, malformedTimestamp)},
		{name: testMissingPageCaseNameConstant, page: missingPage},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			httpServer := httptest.NewServer(&listingServer{pages: []map[string]any{testCase.page}})
			defer httpServer.Close()

			client := newTestClient(testInstance, httpServer.URL)

			yieldedRepositories := 0
			var observedError error
			for _, iterationError := range client.Repositories(context.Background()) {
				if iterationError != nil {
					observedError = iterationError
					continue
				}
				yieldedRepositories++
			}

			require.Zero(testInstance, yieldedRepositories)
			var validationError bitbucket.ListingValidationError
			require.ErrorAs(testInstance, observedError, &validationError)
			require.Equal(testInstance, 1, validationError.Page)
		})
	}
}

func TestRepositoriesSurfacesResponseErrors(testInstance *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, _ *http.Request) {
		responseWriter.WriteHeader(http.StatusForbidden)
		_, _ = responseWriter.Write([]byte(`{"type":"error","error":{"message":"Access denied"}}`))
	}))
	defer httpServer.Close()

	client := newTestClient(testInstance, httpServer.URL)
	_, listingError := client.FetchListing(context.Background(), 1)

	var responseError bitbucket.ResponseError
	require.ErrorAs(testInstance, listingError, &responseError)
	require.Equal(testInstance, http.StatusForbidden, responseError.StatusCode)
	require.Contains(testInstance, responseError.Body, "Access denied")
	require.Equal(testInstance, http.MethodGet, responseError.Method)
}

func TestDeleteRepositoryLeavesRedirect(testInstance *testing.T) {
	var observedMethod string
	var observedPath string
	var observedRedirect string
	httpServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedMethod = request.Method
		observedPath = request.URL.Path
		observedRedirect = request.URL.Query().Get("redirect_to")
		responseWriter.WriteHeader(http.StatusNoContent)
	}))
	defer httpServer.Close()

	client := newTestClient(testInstance, httpServer.URL)
	require.NoError(testInstance, client.DeleteRepository(context.Background(), "demo", "https://github.com/acme/demo"))

	require.Equal(testInstance, http.MethodDelete, observedMethod)
	require.Equal(testInstance, "/repositories/team/demo", observedPath)
	require.Equal(testInstance, "https://github.com/acme/demo", observedRedirect)
	require.ErrorIs(testInstance, client.DeleteRepository(context.Background(), " ", ""), bitbucket.ErrSlugRequired)
}

func TestNewClientValidatesConfiguration(testInstance *testing.T) {
	_, workspaceError := bitbucket.NewClient(bitbucket.ClientConfiguration{})
	require.ErrorIs(testInstance, workspaceError, bitbucket.ErrWorkspaceNotConfigured)

	_, baseURLError := bitbucket.NewClient(bitbucket.ClientConfiguration{Workspace: testWorkspaceConstant, APIBaseURL: "not a url"})
	require.ErrorIs(testInstance, baseURLError, bitbucket.ErrBaseURLInvalid)

	client, creationError := bitbucket.NewClient(bitbucket.ClientConfiguration{Workspace: " " + testWorkspaceConstant + " "})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, testWorkspaceConstant, client.Workspace())
}
