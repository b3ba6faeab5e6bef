package utils

import "context"

type commandContextKey string

const configurationSourcesContextKeyConstant = commandContextKey("configurationSources")

// ConfigurationSources records where the active configuration came from.
type ConfigurationSources struct {
	ConfigurationFile string
	EnvironmentFile   string
}

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationSources attaches the configuration sources to the provided context.
func (accessor CommandContextAccessor) WithConfigurationSources(parentContext context.Context, sources ConfigurationSources) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationSourcesContextKeyConstant, sources)
}

// ConfigurationSources extracts the configuration sources from the provided context.
func (accessor CommandContextAccessor) ConfigurationSources(executionContext context.Context) (ConfigurationSources, bool) {
	if executionContext == nil {
		return ConfigurationSources{}, false
	}
	sources, available := executionContext.Value(configurationSourcesContextKeyConstant).(ConfigurationSources)
	return sources, available
}
