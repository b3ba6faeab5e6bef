package migrate_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/migrate"
)

const (
	testWorkingRootConstant          = "/srv/repositories"
	testDestinationWorkspaceConstant = "acme"
	testDestinationUsernameConstant  = "octocat"
	testArchiveAfterDaysConstant     = 360
)

func fixedClock(moment time.Time) migrate.Clock {
	return func() time.Time { return moment }
}

func TestContextBuilderDerivesFields(testInstance *testing.T) {
	now := time.Date(2020, time.February, 28, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name                 string
		slug                 string
		updatedOn            time.Time
		destinationWorkspace string
		expectedDays         int
		expectedArchive      bool
		expectedOrganization bool
		expectedSuffix       string
	}{
		{
			name:                 "recent_organization_repository",
			slug:                 "demo",
			updatedOn:            time.Date(2020, time.January, 1, 5, 20, 10, 0, time.UTC),
			destinationWorkspace: testDestinationWorkspaceConstant,
			expectedDays:         58,
			expectedArchive:      false,
			expectedOrganization: true,
			expectedSuffix:       "",
		},
		{
			name:                 "threshold_reached",
			slug:                 "legacy.js",
			updatedOn:            now.AddDate(0, 0, -360),
			destinationWorkspace: testDestinationWorkspaceConstant,
			expectedDays:         360,
			expectedArchive:      true,
			expectedOrganization: true,
			expectedSuffix:       "js",
		},
		{
			name:                 "one_day_short_of_threshold",
			slug:                 "almost",
			updatedOn:            now.AddDate(0, 0, -359),
			destinationWorkspace: testDestinationUsernameConstant,
			expectedDays:         359,
			expectedArchive:      false,
			expectedOrganization: false,
			expectedSuffix:       "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := migrate.NewContextBuilder(migrate.ContextSettings{
				WorkingRoot:          testWorkingRootConstant,
				DestinationWorkspace: testCase.destinationWorkspace,
				DestinationUsername:  testDestinationUsernameConstant,
				ArchiveAfterDays:     testArchiveAfterDaysConstant,
			}, nil, nil, nil, fixedClock(now))

			summary := bitbucket.RepositorySummary{Name: testCase.slug, Slug: testCase.slug, UpdatedOn: testCase.updatedOn}
			prepared := builder.Build(summary)

			require.Equal(testInstance, summary, prepared.RepositorySummary)
			require.Equal(testInstance, filepath.Join(testWorkingRootConstant, testCase.slug), prepared.WorkingDirectory)
			require.Equal(testInstance, testCase.destinationWorkspace, prepared.DestinationOwner)
			require.Equal(testInstance, testCase.expectedDays, prepared.UpdatedDaysAgo)
			require.Equal(testInstance, testCase.expectedArchive, prepared.ShouldArchive)
			require.Equal(testInstance, testCase.expectedOrganization, prepared.OrganizationOwned)
			require.Equal(testInstance, testCase.expectedSuffix, prepared.SlugSuffix)
			require.NotNil(testInstance, prepared.Logger)
		})
	}
}
