package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	tc, err := NewTokenCounter()
	require.NoError(t, err)

	assert.Equal(t, 0, tc.CountTokens(""))
	assert.Positive(t, tc.CountTokens("Which AutoStream plan includes 4K exports?"))
	assert.Less(t, tc.CountTokens("hello world"), len("hello world"))
}

func TestCountTokensNilFallback(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 3, tc.CountTokens("twelve chars"))
}

func TestCountTokensSimple(t *testing.T) {
	assert.Equal(t, CountTokensSimple("pricing plans"), CountTokensSimple("pricing plans"))
	assert.Positive(t, CountTokensSimple("pricing plans"))
}
