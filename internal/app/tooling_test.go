package app

import (
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
)

func TestNewToolingDoesNotDial(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:1")

	tools, err := NewTooling(zerolog.Nop())
	assert.NilError(t, err)
	assert.Assert(t, tools.Builder != nil)
	assert.Assert(t, tools.Verifier != nil)
	assert.NilError(t, tools.Close())
}

func TestNewToolingRejectsBadHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "not a host")

	_, err := NewTooling(zerolog.Nop())
	assert.Assert(t, err != nil)
}
