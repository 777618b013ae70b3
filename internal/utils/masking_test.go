package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCedula(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0601234567", "06******67"},
		{" 0601234567 ", "06******67"},
		{"123456", "12**56"},
		{"12345", "*****"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MaskCedula(tc.in), "cedula %q", tc.in)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ana.lopez@unach.edu.ec", "a********@unach.edu.ec"},
		{"a@unach.edu.ec", "*@unach.edu.ec"},
		{"sin-arroba", "**********"},
		{"@unach.edu.ec", "*************"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MaskEmail(tc.in), "email %q", tc.in)
	}
}
