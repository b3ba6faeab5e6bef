package migrate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repomove/internal/migrate"
)

const (
	testTeamCaseBlankConstant    = "blank_team_disables_grant"
	testTeamCasePaddedConstant   = "padded_team_trimmed"
	testTeamCaseSentinelConstant = "sentinel_preserved"
)

func validConfiguration() migrate.CommandConfiguration {
	configuration := migrate.DefaultCommandConfiguration()
	configuration.Source.Workspace = "legacy"
	configuration.Source.Username = "bbuser"
	configuration.Source.Password = "bbpass"
	configuration.Destination.Workspace = "acme"
	configuration.Destination.Username = "octocat"
	configuration.Destination.Token = "ghtoken"
	return configuration
}

func TestNormalizeTeam(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: testTeamCaseBlankConstant, input: "   ", expected: migrate.NoTeamValue},
		{name: testTeamCasePaddedConstant, input: " developers ", expected: "developers"},
		{name: testTeamCaseSentinelConstant, input: migrate.NoTeamValue, expected: migrate.NoTeamValue},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, migrate.NormalizeTeam(testCase.input))
		})
	}
}

func TestDefaultCommandConfiguration(testInstance *testing.T) {
	configuration := migrate.DefaultCommandConfiguration()
	require.Equal(testInstance, 500, configuration.MaxRepositories)
	require.Equal(testInstance, time.Second, configuration.ItemDelay)
	require.Equal(testInstance, 360, configuration.ArchiveAfterDays)
	require.Equal(testInstance, "https://bitbucket.org", configuration.Source.WebBaseURL)
	require.Equal(testInstance, migrate.NoTeamValue, configuration.Destination.Team)
	require.False(testInstance, configuration.Destination.HasTeam())
}

func TestSanitizeTrimsValuesAndDeduplicatesExclusions(testInstance *testing.T) {
	configuration := validConfiguration()
	configuration.Source.Workspace = "  legacy  "
	configuration.Destination.Team = " developers "
	configuration.ExcludedRepositories = []string{" keep ", "", "keep", "other"}

	sanitized := configuration.Sanitize()
	require.Equal(testInstance, "legacy", sanitized.Source.Workspace)
	require.Equal(testInstance, "developers", sanitized.Destination.Team)
	require.True(testInstance, sanitized.Destination.HasTeam())
	require.Equal(testInstance, []string{"keep", "other"}, sanitized.ExcludedRepositories)
	require.Equal(testInstance, "  legacy  ", configuration.Source.Workspace)
}

func TestValidateAcceptsCompleteConfiguration(testInstance *testing.T) {
	require.NoError(testInstance, validConfiguration().Sanitize().Validate())
}

func TestValidateReportsEveryInvalidKey(testInstance *testing.T) {
	configuration := validConfiguration()
	configuration.Source.Password = ""
	configuration.Destination.Token = ""
	configuration.MaxRepositories = 0
	configuration.Source.APIBaseURL = "not a url"

	validationError := configuration.Sanitize().Validate()
	require.Error(testInstance, validationError)

	var configurationError migrate.InvalidConfigurationError
	require.True(testInstance, errors.As(validationError, &configurationError))
	require.ElementsMatch(testInstance, []string{
		"source.password (required)",
		"source.api_base_url (url)",
		"destination.token (required)",
		"max_repositories (gt=0)",
	}, configurationError.Fields)
	require.True(testInstance, migrate.IsConfigurationError(validationError))
}

func TestDefaultConfigurationValuesArePrefixed(testInstance *testing.T) {
	values := migrate.DefaultConfigurationValues("tools.migrate")
	require.Equal(testInstance, 500, values["tools.migrate.max_repositories"])
	require.Equal(testInstance, migrate.NoTeamValue, values["tools.migrate.destination.team"])
	require.Contains(testInstance, values, "tools.migrate.source.password")

	aliases := migrate.LegacyEnvironmentAliases("tools.migrate")
	require.Equal(testInstance, []string{"BITBUCKET_PASSWORD"}, aliases["tools.migrate.source.password"])
	require.Equal(testInstance, []string{"GITHUB_TEAM"}, aliases["tools.migrate.destination.team"])
}
