package batch

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/darshan"
	"github.com/yeisme/iolabel/pkg/metrics"
)

type hashError struct{ err error }

func (e *hashError) Error() string { return "hash: " + e.err.Error() }
func (e *hashError) Unwrap() error { return e.err }

type readError struct{ err error }

func (e *readError) Error() string { return "read trace: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// FailureReason 把错误归类为指标标签.
func FailureReason(err error) string {
	var (
		he *hashError
		re *readError
	)

	switch {
	case errors.Is(err, classify.ErrNoCounters):
		return metrics.ReasonCounters
	case errors.Is(err, classify.ErrInvalidNProcs):
		return metrics.ReasonNProcs
	case errors.Is(err, darshan.ErrEmptyTrace):
		return metrics.ReasonEmpty
	case errors.As(err, &he):
		return metrics.ReasonHash
	case errors.As(err, &re):
		return metrics.ReasonRead
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	default:
		return metrics.ReasonOther
	}
}

func baseName(path string) string {
	return filepath.Base(path)
}
