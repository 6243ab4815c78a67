// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkravets/contactly/pkg/normalize"
)

/*
TestFold verifies accent stripping, case folding, and whitespace collapsing.
*/
func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Alice", "alice"},
		{"accents", "José Álvarez", "jose alvarez"},
		{"umlauts", "Jürgen Müller", "jurgen muller"},
		{"mixed_case", "MacGREGOR", "macgregor"},
		{"extra_whitespace", "  Anna   Maria  ", "anna maria"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Fold(tt.input))
		})
	}
}

/*
TestFold_QuerySymmetry verifies that folding is idempotent, so a stored key
always matches a folded query for the same text.
*/
func TestFold_QuerySymmetry(t *testing.T) {
	inputs := []string{"José", "JOSÉ", "jose", " Jose "}
	for _, input := range inputs {
		assert.Equal(t, "jose", normalize.Fold(input))
		assert.Equal(t, normalize.Fold(input), normalize.Fold(normalize.Fold(input)))
	}
}
