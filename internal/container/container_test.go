package container

import (
	"context"
	"testing"

	"draws-api/internal/config"
	"draws-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresDatabaseURL(t *testing.T) {
	log, err := logger.New("error", "test")
	require.NoError(t, err)

	c, err := New(context.Background(), &config.Config{
		Environment: "test",
		DatabaseURL: "",
		RedisURL:    "",
	}, log)

	assert.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestClose_NilConnectionsAreSafe(t *testing.T) {
	log, err := logger.New("error", "test")
	require.NoError(t, err)

	c := &Container{Logger: log}
	assert.NoError(t, c.Close())
	assert.False(t, c.HasRedis())
}
