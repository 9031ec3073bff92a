package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURL(t *testing.T) {
	cfg := Config{}
	_, err := cfg.New(context.Background())
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := Config{
		URL:          "redis://" + mr.Addr(),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		DialTimeout:  time.Second,
	}

	client, err := cfg.New(context.Background())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, time.Second, client.Options().ReadTimeout)
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := Config{URL: "not-a-url"}
	_, err := cfg.New(context.Background())
	assert.Error(t, err)
}
