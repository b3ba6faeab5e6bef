package flags_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/temirov/repomove/internal/utils/flags"
)

const (
	testLogFormatFlagNameConstant = "log-format"
	testAutoChoiceConstant        = "auto"
)

var testLogFormatChoices = []string{"structured", "console", "auto"}

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "default_first_choice",
			defaultChoice:  "structured",
			choices:        testLogFormatChoices,
			description:    "Log encoding.",
			expectedOutput: "`<STRUCTURED|console|auto>` Log encoding.",
		},
		{
			name:           "empty_description",
			defaultChoice:  "info",
			choices:        []string{"debug", "info"},
			expectedOutput: "`<debug|INFO>`",
		},
		{
			name:           "duplicates_and_whitespace_ignored",
			defaultChoice:  " warn ",
			choices:        []string{" warn ", "WARN", "error", ""},
			description:    "Threshold.",
			expectedOutput: "`<WARN|error>` Threshold.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, flags.FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestChoiceVarValidatesInput(testInstance *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	selected := ""
	flags.ChoiceVar(flagSet, &selected, testLogFormatFlagNameConstant, "structured", testLogFormatChoices, "Log encoding.")
	require.Equal(testInstance, "structured", selected)

	require.NoError(testInstance, flagSet.Parse([]string{"--" + testLogFormatFlagNameConstant, " AUTO "}))
	require.Equal(testInstance, testAutoChoiceConstant, selected)
	require.True(testInstance, flagSet.Changed(testLogFormatFlagNameConstant))

	require.Error(testInstance, flagSet.Set(testLogFormatFlagNameConstant, "xml"))
	require.Equal(testInstance, testAutoChoiceConstant, selected)
}
