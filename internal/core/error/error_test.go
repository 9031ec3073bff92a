package errx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", New(base, http.StatusBadGateway, "upstream failed"))

	assert.ErrorIs(t, err, base)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, "upstream failed: boom", appErr.Error())
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(base))
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}

func TestWrapSQL(t *testing.T) {
	assert.NoError(t, WrapSQL(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapSQL(sql.ErrNoRows)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(WrapSQL(errors.New("locked"))))
}

func TestWrapUpstream(t *testing.T) {
	assert.NoError(t, WrapUpstream("coingecko", 0, nil))
	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(WrapUpstream("coingecko", 0, context.DeadlineExceeded)))
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(WrapUpstream("coingecko", http.StatusTooManyRequests, nil)))

	err := WrapUpstream("duckduckgo", http.StatusServiceUnavailable, nil)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), "unexpected status 503")
}
