package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustParseUint(t *testing.T) {
	assert.Equal(t, uint(42), MustParseUint("42"))
	assert.Equal(t, uint(0), MustParseUint("not-a-number"))
	assert.Equal(t, uint(0), MustParseUint("-1"))
	assert.Equal(t, uint(0), MustParseUint(""))
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Cardiology", "cardiology"},
		{"Internal Medicine", "internal-medicine"},
		{"  ORL & Ophtalmology ", "orl-ophtalmology"},
		{"Médecine Générale", "m-decine-g-n-rale"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	long := strings.Repeat("abc ", 40)
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), 60)
	assert.False(t, strings.HasPrefix(slug, "-"))
	assert.False(t, strings.HasSuffix(slug, "-"))
}
