package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"local number gets country code", "0123456789", "60123456789"},
		{"already prefixed left alone", "60123456789", "60123456789"},
		{"plus and dashes stripped", "+60 12-345 6789", "60123456789"},
		{"leading zero dropped before prefixing", "012 345 6789", "60123456789"},
		{"every leading zero dropped, not just the first", "00123456789", "60123456789"},
		{"no digits", "abc", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw))
		})
	}
}

func TestChatID(t *testing.T) {
	assert.Equal(t, "60123456789@c.us", ChatID("0123456789"))
	assert.Equal(t, "60123456789@c.us", ChatID("60123456789"))
	assert.Equal(t, "", ChatID("no digits here"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "60123456789", DigitsOnly("+60 12-345 6789"))
	assert.Equal(t, "", DigitsOnly(""))
}
