package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery rejects blank query text before any model or index work.
	ErrEmptyQuery = errors.New("query text is required")

	// ErrQueryFailed covers every failure while answering a query. The
	// wrapped message says what failed.
	ErrQueryFailed = errors.New("query failed")
)

func queryFailed(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrQueryFailed, stage, err)
}
