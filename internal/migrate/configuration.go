package migrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/githubapi"
	pathutils "github.com/temirov/repomove/internal/utils/path"
)

const (
	// NoTeamValue disables the team permission step.
	NoTeamValue = "NONE"

	defaultSourceWebBaseURLConstant           = "https://bitbucket.org"
	defaultWorkingRootConstant                = "./repositories"
	defaultMaxRepositoriesConstant            = 500
	defaultItemDelayConstant                  = time.Second
	defaultArchiveAfterDaysConstant           = 360
	defaultRequestTimeoutConstant             = 60 * time.Second
	mapstructureTagNameConstant               = "mapstructure"
	tagNameSeparatorConstant                  = ","
	skippedTagNameConstant                    = "-"
	namespaceSeparatorConstant                = "."
	invalidConfigurationTemplateConstant      = "invalid migrate configuration: %s"
	invalidFieldTemplateConstant              = "%s (%s)"
	invalidFieldWithParameterTemplateConstant = "%s (%s=%s)"
	invalidConfigurationSeparatorConstant     = ", "
	configurationValidationFailedConstant     = "configuration validation failed"
)

var configurationPathExpander = pathutils.NewHomeExpander()

// SourceConfiguration describes the Bitbucket workspace being migrated.
type SourceConfiguration struct {
	Workspace  string `mapstructure:"workspace" validate:"required"`
	Username   string `mapstructure:"username" validate:"required"`
	Password   string `mapstructure:"password" validate:"required"`
	APIBaseURL string `mapstructure:"api_base_url" validate:"required,url"`
	WebBaseURL string `mapstructure:"web_base_url" validate:"required,url"`
	Sort       string `mapstructure:"sort"`
}

// DestinationConfiguration describes the GitHub owner receiving repositories.
type DestinationConfiguration struct {
	Workspace  string `mapstructure:"workspace" validate:"required"`
	Username   string `mapstructure:"username" validate:"required"`
	Token      string `mapstructure:"token" validate:"required"`
	Team       string `mapstructure:"team"`
	APIBaseURL string `mapstructure:"api_base_url" validate:"required,url"`
}

// CommandConfiguration captures persisted configuration for the migrate command.
type CommandConfiguration struct {
	EnableDebugLogging   bool                     `mapstructure:"debug"`
	Source               SourceConfiguration      `mapstructure:"source"`
	Destination          DestinationConfiguration `mapstructure:"destination"`
	WorkingRoot          string                   `mapstructure:"working_root" validate:"required"`
	MaxRepositories      int                      `mapstructure:"max_repositories" validate:"gt=0"`
	ItemDelay            time.Duration            `mapstructure:"item_delay" validate:"gte=0"`
	ExcludedRepositories []string                 `mapstructure:"excluded_repositories"`
	ArchiveAfterDays     int                      `mapstructure:"archive_after_days" validate:"gt=0"`
	JournalPath          string                   `mapstructure:"journal_path"`
	RequestTimeout       time.Duration            `mapstructure:"request_timeout" validate:"gt=0"`
}

// InvalidConfigurationError lists the configuration keys that failed validation.
type InvalidConfigurationError struct {
	Fields []string
	Cause  error
}

// Error describes the invalid keys.
func (configurationError InvalidConfigurationError) Error() string {
	if len(configurationError.Fields) == 0 {
		return fmt.Sprintf(invalidConfigurationTemplateConstant, configurationError.Cause)
	}
	return fmt.Sprintf(invalidConfigurationTemplateConstant, strings.Join(configurationError.Fields, invalidConfigurationSeparatorConstant))
}

// Unwrap exposes the validator error.
func (configurationError InvalidConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// DefaultCommandConfiguration returns baseline configuration values for the migrate command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Source: SourceConfiguration{
			APIBaseURL: bitbucket.DefaultAPIBaseURL,
			WebBaseURL: defaultSourceWebBaseURLConstant,
			Sort:       bitbucket.DefaultSortKey,
		},
		Destination: DestinationConfiguration{
			Team:       NoTeamValue,
			APIBaseURL: githubapi.DefaultAPIBaseURL,
		},
		WorkingRoot:      defaultWorkingRootConstant,
		MaxRepositories:  defaultMaxRepositoriesConstant,
		ItemDelay:        defaultItemDelayConstant,
		ArchiveAfterDays: defaultArchiveAfterDaysConstant,
		RequestTimeout:   defaultRequestTimeoutConstant,
	}
}

// Sanitize trims configured values, expands home shortcuts and normalizes the team name.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Source.Workspace = strings.TrimSpace(configuration.Source.Workspace)
	sanitized.Source.Username = strings.TrimSpace(configuration.Source.Username)
	sanitized.Source.APIBaseURL = strings.TrimSpace(configuration.Source.APIBaseURL)
	sanitized.Source.WebBaseURL = strings.TrimSpace(configuration.Source.WebBaseURL)
	sanitized.Source.Sort = strings.TrimSpace(configuration.Source.Sort)

	sanitized.Destination.Workspace = strings.TrimSpace(configuration.Destination.Workspace)
	sanitized.Destination.Username = strings.TrimSpace(configuration.Destination.Username)
	sanitized.Destination.Token = strings.TrimSpace(configuration.Destination.Token)
	sanitized.Destination.Team = NormalizeTeam(configuration.Destination.Team)
	sanitized.Destination.APIBaseURL = strings.TrimSpace(configuration.Destination.APIBaseURL)

	sanitized.WorkingRoot = configurationPathExpander.Expand(strings.TrimSpace(configuration.WorkingRoot))
	sanitized.JournalPath = configurationPathExpander.Expand(strings.TrimSpace(configuration.JournalPath))
	sanitized.ExcludedRepositories = sanitizeExclusions(configuration.ExcludedRepositories)

	return sanitized
}

// Validate checks the sanitized configuration and reports every invalid key at once.
func (configuration CommandConfiguration) Validate() error {
	validationError := newConfigurationValidator().Struct(configuration)
	if validationError == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(validationError, &fieldErrors) {
		return InvalidConfigurationError{Cause: validationError}
	}

	fields := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		fields = append(fields, describeFieldError(fieldError))
	}
	return InvalidConfigurationError{Fields: fields, Cause: errors.New(configurationValidationFailedConstant)}
}

// HasTeam reports whether a destination team is configured.
func (configuration DestinationConfiguration) HasTeam() bool {
	return teamConfigured(configuration.Team)
}

func teamConfigured(team string) bool {
	return len(team) > 0 && team != NoTeamValue
}

// NormalizeTeam trims the team slug and maps an empty value to NoTeamValue.
func NormalizeTeam(team string) string {
	trimmedTeam := strings.TrimSpace(team)
	if len(trimmedTeam) == 0 {
		return NoTeamValue
	}
	return trimmedTeam
}

func sanitizeExclusions(exclusions []string) []string {
	sanitized := make([]string, 0, len(exclusions))
	seen := make(map[string]struct{}, len(exclusions))
	for _, exclusion := range exclusions {
		trimmedExclusion := strings.TrimSpace(exclusion)
		if len(trimmedExclusion) == 0 {
			continue
		}
		if _, duplicate := seen[trimmedExclusion]; duplicate {
			continue
		}
		seen[trimmedExclusion] = struct{}{}
		sanitized = append(sanitized, trimmedExclusion)
	}
	return sanitized
}

func newConfigurationValidator() *validator.Validate {
	configurationValidator := validator.New(validator.WithRequiredStructEnabled())
	configurationValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(mapstructureTagNameConstant), tagNameSeparatorConstant, 2)[0]
		if name == skippedTagNameConstant {
			return ""
		}
		return name
	})
	return configurationValidator
}

func describeFieldError(fieldError validator.FieldError) string {
	namespace := fieldError.Namespace()
	if separatorIndex := strings.Index(namespace, namespaceSeparatorConstant); separatorIndex >= 0 {
		namespace = namespace[separatorIndex+1:]
	}
	if len(fieldError.Param()) > 0 {
		return fmt.Sprintf(invalidFieldWithParameterTemplateConstant, namespace, fieldError.Tag(), fieldError.Param())
	}
	return fmt.Sprintf(invalidFieldTemplateConstant, namespace, fieldError.Tag())
}

// DefaultConfigurationValues exposes the defaults under configurationKey so every key can be overridden from the environment.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := strings.TrimSpace(configurationKey)
	if len(prefix) > 0 {
		prefix += namespaceSeparatorConstant
	}
	return map[string]any{
		prefix + "debug":                    defaults.EnableDebugLogging,
		prefix + "source.workspace":         defaults.Source.Workspace,
		prefix + "source.username":          defaults.Source.Username,
		prefix + "source.password":          defaults.Source.Password,
		prefix + "source.api_base_url":      defaults.Source.APIBaseURL,
		prefix + "source.web_base_url":      defaults.Source.WebBaseURL,
		prefix + "source.sort":              defaults.Source.Sort,
		prefix + "destination.workspace":    defaults.Destination.Workspace,
		prefix + "destination.username":     defaults.Destination.Username,
		prefix + "destination.token":        defaults.Destination.Token,
		prefix + "destination.team":         defaults.Destination.Team,
		prefix + "destination.api_base_url": defaults.Destination.APIBaseURL,
		prefix + "working_root":             defaults.WorkingRoot,
		prefix + "max_repositories":         defaults.MaxRepositories,
		prefix + "item_delay":               defaults.ItemDelay,
		prefix + "excluded_repositories":    defaults.ExcludedRepositories,
		prefix + "archive_after_days":       defaults.ArchiveAfterDays,
		prefix + "journal_path":             defaults.JournalPath,
		prefix + "request_timeout":          defaults.RequestTimeout,
	}
}

// LegacyEnvironmentAliases maps configuration keys under configurationKey to the variable names of earlier migration scripts.
func LegacyEnvironmentAliases(configurationKey string) map[string][]string {
	prefix := strings.TrimSpace(configurationKey)
	if len(prefix) > 0 {
		prefix += namespaceSeparatorConstant
	}
	return map[string][]string{
		prefix + "source.workspace":      {"BITBUCKET_WORKSPACE"},
		prefix + "source.username":       {"BITBUCKET_USERNAME"},
		prefix + "source.password":       {"BITBUCKET_PASSWORD"},
		prefix + "destination.workspace": {"GITHUB_WORKSPACE"},
		prefix + "destination.username":  {"GITHUB_USERNAME"},
		prefix + "destination.token":     {"GITHUB_TOKEN"},
		prefix + "destination.team":      {"GITHUB_TEAM"},
	}
}
