package textutils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	textutils "github.com/temirov/repomove/internal/utils/text"
)

const (
	testControlVectorCaseNameConstant   = "control_vector"
	testCarriageReturnCaseNameConstant  = "crlf_condensed"
	testListMessageCaseNameConstant     = "multiline_message"
	testPrintableCaseNameConstant       = "printable_preserved"
	testUnicodeCaseNameConstant         = "unicode_preserved"
	testDeleteCharacterCaseNameConstant = "delete_character"
	testEmptyCaseNameConstant           = "empty"
)

func TestStripControlCharacters(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: testControlVectorCaseNameConstant, input: "\ba\x00b\n\rc\fd\xc3", expected: "ab  cd"},
		{name: testCarriageReturnCaseNameConstant, input: "A\r\ndemo", expected: "A demo"},
		{name: testListMessageCaseNameConstant, input: "Message:\r\n- ABC\r\n- BCA - XYZ", expected: "Message: - ABC - BCA - XYZ"},
		{name: testPrintableCaseNameConstant, input: "plain description", expected: "plain description"},
		{name: testUnicodeCaseNameConstant, input: "café ✓", expected: "café ✓"},
		{name: testDeleteCharacterCaseNameConstant, input: "a\x7fb\tc", expected: "abc"},
		{name: testEmptyCaseNameConstant, input: "", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sanitized := textutils.StripControlCharacters(testCase.input)
			require.Equal(testInstance, testCase.expected, sanitized)
			require.Equal(testInstance, sanitized, textutils.StripControlCharacters(sanitized))
		})
	}
}
