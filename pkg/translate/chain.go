package translate

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/observability"
)

// Translator resolves a link into a distribution. A nil link is not
// applicable to any translator.
type Translator interface {
	Translate(ctx context.Context, l *link.Link) Result
}

// Ref is an optional chain entry, built with [Present] or [Absent].
type Ref struct {
	t       Translator
	present bool
}

// Present wraps a translator for [NewChain].
func Present(t Translator) Ref { return Ref{t: t, present: true} }

// Absent is a placeholder dropped by [NewChain].
func Absent() Ref { return Ref{} }

// Chain tries its strategies in order until one resolves the link. A Chain
// is itself a [Translator] and may be nested.
type Chain struct {
	strategies []Translator
	logger     *log.Logger
}

// NewChain builds a chain from refs. Absent entries are dropped; a Present
// entry holding a nil translator is an INVALID_CHAIN error.
func NewChain(refs ...Ref) (*Chain, error) {
	c := &Chain{logger: log.Default()}
	for i, r := range refs {
		if !r.present {
			continue
		}
		if isNil(r.t) {
			return nil, errors.New(errors.ErrCodeInvalidChain, "chain entry %d is not a translator", i)
		}
		c.strategies = append(c.strategies, r.t)
	}
	return c, nil
}

// Chained builds a chain from translators, treating nil entries as absent.
func Chained(ts ...Translator) *Chain {
	c := &Chain{logger: log.Default()}
	for _, t := range ts {
		if !isNil(t) {
			c.strategies = append(c.strategies, t)
		}
	}
	return c
}

// WithLogger returns a copy of the chain that logs soft failures to logger.
func (c *Chain) WithLogger(logger *log.Logger) *Chain {
	if logger == nil {
		logger = log.Default()
	}
	return &Chain{strategies: c.strategies, logger: logger}
}

// Strategies reports the number of strategies in the chain.
func (c *Chain) Strategies() int { return len(c.strategies) }

// Translate implements [Translator]. It returns the first resolved or fatal
// result. When every strategy comes back empty the chain is not applicable.
func (c *Chain) Translate(ctx context.Context, l *link.Link) Result {
	if l == nil {
		return NotApplicable()
	}
	ctx, attempt := withAttempt(ctx)
	hooks := observability.Translate()

	for _, s := range c.strategies {
		name := strategyName(s)
		hooks.OnTranslateStart(ctx, name, l.Name())
		start := time.Now()
		r := s.Translate(ctx, l)
		hooks.OnTranslateComplete(ctx, name, l.Name(), r.Outcome().String(), time.Since(start))

		switch r.Outcome() {
		case OutcomeResolved, OutcomeFatal:
			return r
		case OutcomeSoftFailure:
			c.logger.Warn("strategy failed", "link", l.Name(), "strategy", name, "attempt", attempt, "reason", reason(r.Err()))
		}
	}
	return NotApplicable()
}

func reason(err error) string {
	if err == nil {
		return "unspecified"
	}
	return errors.UserMessage(err)
}

func strategyName(t Translator) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t)
}

// isNil catches both untyped nil and typed nil pointers stored in the
// interface.
func isNil(t Translator) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
