package store

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/rs/zerolog"
)

// Attempt budgets per operation class: losing a cache write is cheap to retry
// aggressively, reads give up after one extra attempt.
const (
	readAttempts  = 2
	writeAttempts = 4
)

// retryPolicy re-runs an operation on connectivity-class failures only.
// Anything else (absent key, malformed payload) propagates immediately, and
// the final attempt's error is returned unmodified.
type retryPolicy struct {
	attempts int
	log      *zerolog.Logger
}

func (p retryPolicy) do(op string, fn func() error) error {
	var err error
	for n := 1; n <= p.attempts; n++ {
		err = fn()
		if err == nil || !isConnError(err) {
			return err
		}
		p.log.Warn().Err(err).Str("op", op).Int("attempt", n).Msg("store connection lost")
	}
	return err
}

// isConnError reports whether err is a transient connectivity failure:
// refused/reset connections, timeouts, a dead socket.
func isConnError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded)
}
