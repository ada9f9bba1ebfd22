package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptText(t *testing.T) {
	assert.Equal(t, "persist settings? [N/y]: ", promptText("persist settings?", []string{No, Yes}))
}

func TestMatchConstraint(t *testing.T) {
	constraints := []string{No, Yes}
	tests := map[string]string{
		"":      No,
		"y":     Yes,
		" Y ":   Yes,
		"n":     No,
		"maybe": No,
	}
	for in, expected := range tests {
		assert.Equal(t, expected, matchConstraint(in, constraints), "input %q", in)
	}
}

func TestConfirmAssumeYes(t *testing.T) {
	ok, err := Confirm("reset?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}
