package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensirion/cmd/scd4x/console"
)

func TestParseAddress(t *testing.T) {
	tests := map[string]byte{
		"0x62":   0x62,
		"98":     0x62,
		" 0x61 ": 0x61,
		"0o142":  0x62,
	}
	for in, expected := range tests {
		addr, err := parseAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, addr, in)
	}
	for _, in := range []string{"", "0x80", "-1", "sixty"} {
		_, err := parseAddress(in)
		assert.Error(t, err, in)
	}
}

func TestRunUnknownAdapter(t *testing.T) {
	var out, errOut bytes.Buffer
	console.SetOutput(&out, &errOut)
	defer console.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	code := run([]string{"scd4x", "--adapter", "parport", "--variant", "scd41", "id"})
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), `unknown adapter "parport"`)
	assert.Empty(t, out.String())
}

func TestRunInvalidAddress(t *testing.T) {
	var errOut bytes.Buffer
	console.SetOutput(&bytes.Buffer{}, &errOut)
	defer console.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	code := run([]string{"scd4x", "--address", "0x200", "read"})
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "invalid i2c address")
}

func TestRunHelpAndVersion(t *testing.T) {
	var errOut bytes.Buffer
	console.SetOutput(&bytes.Buffer{}, &errOut)
	defer console.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, 0, run([]string{"scd4x", "--help"}))
	assert.Equal(t, 0, run([]string{"scd4x", "-v"}))
	assert.Equal(t, 0, run([]string{"scd4x", "read", "--help"}))
	assert.Empty(t, errOut.String())
}
