package migrate

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/githubapi"
	"github.com/temirov/repomove/internal/gitrepo"
	"github.com/temirov/repomove/internal/utils/calendar"
)

const repositoryLogFieldConstant = "repository"

// Clock supplies the current time.
type Clock func() time.Time

// PreparedRepository is the per-repository context before publication.
type PreparedRepository struct {
	bitbucket.RepositorySummary
	WorkingDirectory  string
	DestinationOwner  string
	OrganizationOwned bool
	UpdatedDaysAgo    int
	ShouldArchive     bool
	SlugSuffix        string
	SourceClient      SourceHost
	DestinationClient DestinationHost
	Logger            *zap.Logger
}

// MigratedRepository is the per-repository context once the destination exists.
type MigratedRepository struct {
	PreparedRepository
	DestinationURL string
}

// ContextSettings holds the run-wide inputs of the context builder.
type ContextSettings struct {
	WorkingRoot          string
	DestinationWorkspace string
	DestinationUsername  string
	ArchiveAfterDays     int
}

// ContextBuilder derives PreparedRepository values from listing entries without performing I/O.
type ContextBuilder struct {
	settings    ContextSettings
	source      SourceHost
	destination DestinationHost
	logger      *zap.Logger
	clock       Clock
}

// NewContextBuilder constructs a ContextBuilder. A nil clock uses time.Now and a nil logger discards output.
func NewContextBuilder(settings ContextSettings, source SourceHost, destination DestinationHost, logger *zap.Logger, clock Clock) *ContextBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &ContextBuilder{
		settings:    settings,
		source:      source,
		destination: destination,
		logger:      logger,
		clock:       clock,
	}
}

// Build computes the derived fields for summary.
func (builder *ContextBuilder) Build(summary bitbucket.RepositorySummary) PreparedRepository {
	updatedDaysAgo := calendar.DifferenceInDays(builder.clock(), summary.UpdatedOn)
	return PreparedRepository{
		RepositorySummary: summary,
		WorkingDirectory:  filepath.Join(builder.settings.WorkingRoot, summary.Slug),
		DestinationOwner:  builder.settings.DestinationWorkspace,
		OrganizationOwned: githubapi.ResolveOwnerType(builder.settings.DestinationWorkspace, builder.settings.DestinationUsername).IsOrganization(),
		UpdatedDaysAgo:    updatedDaysAgo,
		ShouldArchive:     updatedDaysAgo >= builder.settings.ArchiveAfterDays,
		SlugSuffix:        gitrepo.Suffix(summary.Slug),
		SourceClient:      builder.source,
		DestinationClient: builder.destination,
		Logger:            builder.logger.With(zap.String(repositoryLogFieldConstant, summary.Slug)),
	}
}
