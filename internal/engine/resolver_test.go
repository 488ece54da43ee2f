package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_OnlyLatestTokenIsAccepted(t *testing.T) {
	var r Resolver

	assert.False(t, r.Accept(0), "zero token is never current")

	first := r.Issue()
	assert.True(t, r.Accept(first))

	second := r.Issue()
	assert.Greater(t, second, first)
	assert.False(t, r.Accept(first))
	assert.True(t, r.Accept(second))
	assert.Equal(t, second, r.Current())

	r.Invalidate()
	assert.False(t, r.Accept(second), "invalidate drops the in-flight token")
	assert.Greater(t, r.Current(), second)
}
