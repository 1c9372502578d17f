package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSendWindows(t *testing.T) {
	windows, err := ParseSendWindows("10-12,14-17,20-22")
	require.NoError(t, err)
	assert.Equal(t, []HourRange{{10, 12}, {14, 17}, {20, 22}}, windows)

	windows, err = ParseSendWindows(" 9-11 , 21-23 ")
	require.NoError(t, err)
	assert.Equal(t, []HourRange{{9, 11}, {21, 23}}, windows)
}

func TestParseSendWindowsRejectsBadInput(t *testing.T) {
	for _, spec := range []string{"", "10", "12-10", "10-10", "-1-5", "10-25", "a-b"} {
		_, err := ParseSendWindows(spec)
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}

func TestInSendWindow(t *testing.T) {
	windows := []HourRange{{10, 12}, {20, 22}}

	assert.True(t, InSendWindow(windows, 10))
	assert.True(t, InSendWindow(windows, 11))
	assert.False(t, InSendWindow(windows, 12), "upper bound is exclusive")
	assert.False(t, InSendWindow(windows, 9))
	assert.True(t, InSendWindow(windows, 21))
	assert.False(t, InSendWindow(windows, 22))
	assert.False(t, InSendWindow(nil, 10))
}
