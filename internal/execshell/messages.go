package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant    = "clone"
	gitConfigSubcommandNameConstant   = "config"
	gitResetSubcommandNameConstant    = "reset"
	gitShowRefSubcommandNameConstant  = "show-ref"
	gitBranchSubcommandNameConstant   = "branch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitCleanSubcommandNameConstant    = "clean"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitPushSubcommandNameConstant     = "push"
	gitMessageFlagConstant            = "-m"
	gitMoveFlagConstant               = "-m"
	gitOrphanFlagConstant             = "--orphan"
	gitMirrorFlagConstant             = "--mirror"
)

const (
	gitCloneStartTemplateConstant                   = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                 = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                 = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant        = "Unable to clone %s into %s: %s"
	gitConfigStartTemplateConstant                  = "Setting %s in %s"
	gitConfigSuccessTemplateConstant                = "Set %s in %s"
	gitConfigFailureTemplateConstant                = "Failed to set %s in %s (exit code %d%s)"
	gitConfigExecutionFailureTemplateConstant       = "Unable to set %s in %s: %s"
	gitResetStartTemplateConstant                   = "Resetting working tree in %s"
	gitResetSuccessTemplateConstant                 = "Reset working tree in %s"
	gitResetFailureTemplateConstant                 = "Failed to reset working tree in %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant        = "Unable to reset working tree in %s: %s"
	gitShowRefStartTemplateConstant                 = "Checking for %s in %s"
	gitShowRefSuccessTemplateConstant               = "Found %s in %s"
	gitShowRefFailureTemplateConstant               = "%s not present in %s (exit code %d%s)"
	gitShowRefExecutionFailureTemplateConstant      = "Unable to check for %s in %s: %s"
	gitBranchRenameStartTemplateConstant            = "Renaming branch %s to %s in %s"
	gitBranchRenameSuccessTemplateConstant          = "Renamed branch %s to %s in %s"
	gitBranchRenameFailureTemplateConstant          = "Failed to rename branch %s to %s in %s (exit code %d%s)"
	gitBranchRenameExecutionFailureTemplateConstant = "Unable to rename branch %s to %s in %s: %s"
	gitOrphanStartTemplateConstant                  = "Creating orphan branch %s in %s"
	gitOrphanSuccessTemplateConstant                = "Created orphan branch %s in %s"
	gitOrphanFailureTemplateConstant                = "Failed to create orphan branch %s in %s (exit code %d%s)"
	gitOrphanExecutionFailureTemplateConstant       = "Unable to create orphan branch %s in %s: %s"
	gitCheckoutStartTemplateConstant                = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant              = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant              = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant     = "Unable to switch %s to branch %s: %s"
	gitCleanStartTemplateConstant                   = "Removing untracked files in %s"
	gitCleanSuccessTemplateConstant                 = "Removed untracked files in %s"
	gitCleanFailureTemplateConstant                 = "Failed to remove untracked files in %s (exit code %d%s)"
	gitCleanExecutionFailureTemplateConstant        = "Unable to remove untracked files in %s: %s"
	gitAddStartTemplateConstant                     = "Staging %s in %s"
	gitAddSuccessTemplateConstant                   = "Staged %s in %s"
	gitAddFailureTemplateConstant                   = "Failed to stage %s in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant          = "Unable to stage %s in %s: %s"
	gitCommitStartTemplateConstant                  = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant       = "Unable to create commit in %s with message %q: %s"
	gitMirrorPushStartTemplateConstant              = "Mirroring %s to %s"
	gitMirrorPushSuccessTemplateConstant            = "Mirrored %s to %s"
	gitMirrorPushFailureTemplateConstant            = "Failed to mirror %s to %s (exit code %d%s)"
	gitMirrorPushExecutionFailureTemplateConstant   = "Unable to mirror %s to %s: %s"
	removeStartTemplateConstant                     = "Removing %s"
	removeSuccessTemplateConstant                   = "Removed %s"
	removeFailureTemplateConstant                   = "Failed to remove %s (exit code %d%s)"
	removeExecutionFailureTemplateConstant          = "Unable to remove %s: %s"
)

// stageTemplates groups the four lifecycle templates of one operation.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandRemove:
		target := formatter.ensureValue(formatter.lastNonFlagArgument(command.Details.Arguments))
		return formatter.render(removeTemplates, result, failure, stage, target)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

var (
	cloneTemplates        = stageTemplates{gitCloneStartTemplateConstant, gitCloneSuccessTemplateConstant, gitCloneFailureTemplateConstant, gitCloneExecutionFailureTemplateConstant}
	configTemplates       = stageTemplates{gitConfigStartTemplateConstant, gitConfigSuccessTemplateConstant, gitConfigFailureTemplateConstant, gitConfigExecutionFailureTemplateConstant}
	resetTemplates        = stageTemplates{gitResetStartTemplateConstant, gitResetSuccessTemplateConstant, gitResetFailureTemplateConstant, gitResetExecutionFailureTemplateConstant}
	showRefTemplates      = stageTemplates{gitShowRefStartTemplateConstant, gitShowRefSuccessTemplateConstant, gitShowRefFailureTemplateConstant, gitShowRefExecutionFailureTemplateConstant}
	branchRenameTemplates = stageTemplates{gitBranchRenameStartTemplateConstant, gitBranchRenameSuccessTemplateConstant, gitBranchRenameFailureTemplateConstant, gitBranchRenameExecutionFailureTemplateConstant}
	orphanTemplates       = stageTemplates{gitOrphanStartTemplateConstant, gitOrphanSuccessTemplateConstant, gitOrphanFailureTemplateConstant, gitOrphanExecutionFailureTemplateConstant}
	checkoutTemplates     = stageTemplates{gitCheckoutStartTemplateConstant, gitCheckoutSuccessTemplateConstant, gitCheckoutFailureTemplateConstant, gitCheckoutExecutionFailureTemplateConstant}
	cleanTemplates        = stageTemplates{gitCleanStartTemplateConstant, gitCleanSuccessTemplateConstant, gitCleanFailureTemplateConstant, gitCleanExecutionFailureTemplateConstant}
	addTemplates          = stageTemplates{gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionFailureTemplateConstant}
	commitTemplates       = stageTemplates{gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant, gitCommitExecutionFailureTemplateConstant}
	mirrorPushTemplates   = stageTemplates{gitMirrorPushStartTemplateConstant, gitMirrorPushSuccessTemplateConstant, gitMirrorPushFailureTemplateConstant, gitMirrorPushExecutionFailureTemplateConstant}
	removeTemplates       = stageTemplates{removeStartTemplateConstant, removeSuccessTemplateConstant, removeFailureTemplateConstant, removeExecutionFailureTemplateConstant}
)

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	remaining := arguments[1:]
	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		positional := formatter.nonFlagArguments(remaining)
		source := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		destination := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
		return formatter.render(cloneTemplates, result, failure, stage, redactURL(source), destination)
	case gitConfigSubcommandNameConstant:
		key := formatter.ensureValue(formatter.argumentAtIndex(formatter.nonFlagArguments(remaining), 0))
		return formatter.render(configTemplates, result, failure, stage, key, workingDirectory)
	case gitResetSubcommandNameConstant:
		return formatter.render(resetTemplates, result, failure, stage, workingDirectory)
	case gitShowRefSubcommandNameConstant:
		reference := formatter.ensureValue(formatter.lastNonFlagArgument(remaining))
		return formatter.render(showRefTemplates, result, failure, stage, reference, workingDirectory)
	case gitBranchSubcommandNameConstant:
		if containsArgument(remaining, gitMoveFlagConstant) {
			positional := formatter.nonFlagArguments(remaining)
			source := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
			target := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
			return formatter.render(branchRenameTemplates, result, failure, stage, source, target, workingDirectory)
		}
	case gitCheckoutSubcommandNameConstant:
		branch := formatter.ensureValue(formatter.lastNonFlagArgument(remaining))
		if containsArgument(remaining, gitOrphanFlagConstant) {
			return formatter.render(orphanTemplates, result, failure, stage, branch, workingDirectory)
		}
		return formatter.render(checkoutTemplates, result, failure, stage, workingDirectory, branch)
	case gitCleanSubcommandNameConstant:
		return formatter.render(cleanTemplates, result, failure, stage, workingDirectory)
	case gitAddSubcommandNameConstant:
		paths := strings.Join(formatter.nonFlagArguments(remaining), commandArgumentsJoinSeparatorConstant)
		return formatter.render(addTemplates, result, failure, stage, formatter.ensureValue(paths), workingDirectory)
	case gitCommitSubcommandNameConstant:
		message := formatter.flagValue(remaining, gitMessageFlagConstant)
		return formatter.render(commitTemplates, result, failure, stage, workingDirectory, message)
	case gitPushSubcommandNameConstant:
		if containsArgument(remaining, gitMirrorFlagConstant) {
			destination := formatter.ensureValue(formatter.lastNonFlagArgument(remaining))
			return formatter.render(mirrorPushTemplates, result, failure, stage, workingDirectory, redactURL(destination))
		}
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) render(templates stageTemplates, result ExecutionResult, failure error, stage messageStage, values ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(values, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))...)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, append(values, formatter.describeFailure(failure))...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, describeCommandLine(command), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(RedactText(standardError))
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return RedactText(failure.Error())
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return arguments[index]
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) nonFlagArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	positional := formatter.nonFlagArguments(arguments)
	if len(positional) == 0 {
		return emptyStringConstant
	}
	return positional[len(positional)-1]
}

func (formatter CommandMessageFormatter) flagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return fallbackUnknownValueLabelConstant
}
