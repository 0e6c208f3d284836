package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessChecksWrapBackendPings(t *testing.T) {
	down := errors.New("connection refused")
	checks := readinessChecks(map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return down },
	})

	require.Len(t, checks, 2)
	assert.NoError(t, checks["postgres"].Ping(context.Background()))
	assert.ErrorIs(t, checks["redis"].Ping(context.Background()), down)
	assert.Empty(t, readinessChecks(nil))
}
