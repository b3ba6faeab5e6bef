package textutils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	lineBreakReplacementConstant       = " "
	carriageReturnLineFeedConstant     = "\r\n"
	lineFeedConstant                   = "\n"
	carriageReturnConstant             = "\r"
	lastControlCharacterCodeConstant   = 31
	deleteControlCharacterCodeConstant = 127
)

var lineBreakReplacer = strings.NewReplacer(
	carriageReturnLineFeedConstant, lineBreakReplacementConstant,
	lineFeedConstant, lineBreakReplacementConstant,
	carriageReturnConstant, lineBreakReplacementConstant,
)

var controlCharacterRemover = runes.Remove(runes.Predicate(isRemovableRune))

// StripControlCharacters converts every line break sequence into a single space and
// removes ASCII control characters and invalid UTF-8 bytes from the input.
func StripControlCharacters(input string) string {
	if len(input) == 0 {
		return input
	}

	condensed := lineBreakReplacer.Replace(input)
	sanitized, _, transformError := transform.String(controlCharacterRemover, condensed)
	if transformError != nil {
		return stripManually(condensed)
	}
	return sanitized
}

func isRemovableRune(candidate rune) bool {
	if candidate == utf8.RuneError {
		return true
	}
	return candidate <= lastControlCharacterCodeConstant || candidate == deleteControlCharacterCodeConstant
}

func stripManually(input string) string {
	var builder strings.Builder
	builder.Grow(len(input))
	for len(input) > 0 {
		decoded, size := utf8.DecodeRuneInString(input)
		input = input[size:]
		if isRemovableRune(decoded) {
			continue
		}
		builder.WriteRune(decoded)
	}
	return builder.String()
}
