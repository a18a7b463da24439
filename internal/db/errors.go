package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a record with the same ID already exists.
	ErrDuplicate = errors.New("record already exists")

	// ErrStore indicates a transient store failure (timeout, lost connection).
	// Operations wrapped with ErrStore are retried before being surfaced.
	ErrStore = errors.New("transient store error")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the
// appropriate sentinel. Returns the original error for unknown shapes.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrDuplicate, msg)
		}
		// Database-level errors are permanent; never retried
		return err
	}

	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return err
}

// isTransient reports whether an error is worth retrying: timeouts and
// connectivity failures, not malformed queries.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "websocket")
}
