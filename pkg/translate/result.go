package translate

import (
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
)

// Outcome classifies a [Result].
type Outcome int

const (
	OutcomeNotApplicable Outcome = iota // Link not handled by this strategy
	OutcomeResolved                     // Distribution produced
	OutcomeSoftFailure                  // Strategy tried and failed; try the next one
	OutcomeFatal                        // Stop resolving and report the error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeResolved:
		return "resolved"
	case OutcomeSoftFailure:
		return "soft_failure"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Result is the outcome of a translation attempt. The zero value is a
// not-applicable result.
type Result struct {
	outcome Outcome
	dist    *dist.Distribution
	err     error
}

// Resolved returns a successful result. A nil distribution is reported as a
// fatal internal error.
func Resolved(d *dist.Distribution) Result {
	if d == nil {
		return Fatal(errors.New(errors.ErrCodeInternal, "resolved result without distribution"))
	}
	return Result{outcome: OutcomeResolved, dist: d}
}

// NotApplicable returns an empty result.
func NotApplicable() Result { return Result{} }

// Soft returns a soft failure. reason may be nil.
func Soft(reason error) Result {
	return Result{outcome: OutcomeSoftFailure, err: reason}
}

// Fatal returns a fatal result.
func Fatal(err error) Result {
	if err == nil {
		err = errors.New(errors.ErrCodeInternal, "fatal result without error")
	}
	return Result{outcome: OutcomeFatal, err: err}
}

// Outcome reports how the attempt ended.
func (r Result) Outcome() Outcome { return r.outcome }

// Distribution returns the resolved distribution, or nil.
func (r Result) Distribution() *dist.Distribution { return r.dist }

// Err returns the reason of a soft failure or the error of a fatal result.
func (r Result) Err() error { return r.err }

// OK reports whether the result is resolved.
func (r Result) OK() bool { return r.outcome == OutcomeResolved }

// Empty reports whether the result carries neither a distribution nor a
// fatal error.
func (r Result) Empty() bool {
	return r.outcome == OutcomeNotApplicable || r.outcome == OutcomeSoftFailure
}
