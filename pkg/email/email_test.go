package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDisplayName(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"ada.lovelace@example.com", "Ada Lovelace"},
		{"ada.lovelace+art@example.com", "Ada Lovelace"},
		{"JOHN_q_public@example.com", "John Public"},
		{"kai@example.com", "Kai"},
		{"+tag@example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDisplayName(tt.address))
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "a***@example.com", Mask("ada@example.com"))
	assert.Equal(t, "***", Mask("not-an-address"))
}
