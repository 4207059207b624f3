package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "Hello", "Hello"},
		{"Accents", "Élodie Müller", "Elodie Muller"},
		{"Ligatures", "Æsir Œuvre", "AEsir OEuvre"},
		{"Stroke letters", "Łódź Øre", "Lodz Ore"},
		{"Quotes removed", `l'été "chaud"`, "lete chaud"},
		{"Whitespace collapsed", "  a \t b\n c  ", "a b c"},
		{"Lowercase o slash", "smørrebrød", "smorrebrod"},
		{"Empty", "", ""},
		{"Invalid UTF-8", string([]byte{0xff, 0xfe, 'a'}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
