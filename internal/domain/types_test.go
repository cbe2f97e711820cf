package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailsmarket/backend-sub000/internal/domain"
)

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "token-42", domain.PlaceholderName("42"))
	assert.True(t, domain.IsPlaceholderName(domain.PlaceholderName("42")))
}

func TestIsPlaceholderName(t *testing.T) {
	assert.True(t, domain.IsPlaceholderName("token-42"))
	assert.False(t, domain.IsPlaceholderName("alice.eth"))
	assert.False(t, domain.IsPlaceholderName(""))
}

func TestIsCanonicalName(t *testing.T) {
	tests := []struct {
		name      string
		canonical bool
	}{
		{"alice.eth", true},
		{"a.eth", true},
		{"0x1234.eth", true},
		{"", false},
		{"token-42", false},
		{"alice", false},
		{"Alice.eth", false},
		{"sub.alice.eth", false},
		{"ali ce.eth", false},
		{"Unknown ENS name", false},
		{".eth", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canonical, domain.IsCanonicalName(tt.name))
		})
	}
}
