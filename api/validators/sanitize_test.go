package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "  Colonia Escalón  ", max: 0, want: "Colonia Escalón"},
		{in: "Peña", max: 3, want: "Peñ"},
		{in: "Avenida\x00 Norte\x1b", max: 0, want: "Avenida Norte"},
		{in: "Dr. José ", max: 4, want: "Dr."},
		{in: "línea 1\nlínea 2", max: 0, want: "línea 1\nlínea 2"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeString(tc.in, tc.max), "SanitizeString(%q, %d)", tc.in, tc.max)
	}
}
