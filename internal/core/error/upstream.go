package errx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// WrapUpstream maps a failed call to a remote data provider to AppError.
// status is the HTTP status returned by the provider, or 0 when the request
// never produced a response.
func WrapUpstream(source string, status int, err error) error {
	if err == nil && status == 0 {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("unexpected status %d", status)
	}

	if isTimeout(err) {
		return New(err, http.StatusGatewayTimeout, source+" timed out")
	}
	if status == http.StatusTooManyRequests {
		return New(err, http.StatusTooManyRequests, source+" rate limited")
	}
	return New(err, http.StatusBadGateway, source+" request failed")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
