/*
Package polish rewrites casual line-item text into professional wording.

CONTRACT:
  Polishing is a best-effort decorator. Service.Enhance never returns an
  error: on timeout, rate-limit cancellation, backend failure or an empty
  answer it returns the input unchanged. Callers can always use the result.

  Texts shorter than three characters are returned as-is without calling
  the backend.

APPLYING RESULTS:
  The service has no access to the store. Callers land results with
  ledger.Store.ApplyDraftItemText, keyed by line identity and the text that
  was sent, so a line edited or removed meanwhile is left alone.

TAX RATE SUGGESTIONS:
  Service.SuggestTaxRate follows the same contract with a zero fallback.
*/
package polish

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/warp/pos-ledger/ledger"
)

const minPolishLength = 3

// Polisher rewrites one line-item description.
type Polisher interface {
	Polish(ctx context.Context, text string) (string, error)
}

// PolisherFunc adapts a function to Polisher.
type PolisherFunc func(ctx context.Context, text string) (string, error)

func (f PolisherFunc) Polish(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// TaxAdvisor proposes the standard sales-tax rate (percent) for a location.
type TaxAdvisor interface {
	SuggestTaxRate(ctx context.Context, location string) (ledger.Money, error)
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Polisher Polisher
	Advisor  TaxAdvisor
	Timeout  time.Duration
	Limiter  *rate.Limiter
}

// Enhance returns the polished text, or text itself on any failure.
func (s *Service) Enhance(ctx context.Context, text string) string {
	if s == nil || s.Polisher == nil || utf8.RuneCountInString(text) < minPolishLength {
		return text
	}

	out, err := call(ctx, s, func(ctx context.Context) (string, error) {
		return s.Polisher.Polish(ctx, text)
	})
	if err != nil {
		log.Printf("Warning: description polish failed, keeping original: %v", err)
		return text
	}
	if out = strings.TrimSpace(out); out == "" {
		return text
	}
	return out
}

// SuggestTaxRate returns a suggested rate for location, or zero when none
// is available.
func (s *Service) SuggestTaxRate(ctx context.Context, location string) ledger.Money {
	if s == nil || s.Advisor == nil || strings.TrimSpace(location) == "" {
		return decimal.Zero
	}

	suggested, err := call(ctx, s, func(ctx context.Context) (ledger.Money, error) {
		return s.Advisor.SuggestTaxRate(ctx, location)
	})
	if err != nil {
		log.Printf("Warning: tax rate suggestion failed: %v", err)
		return decimal.Zero
	}
	if ledger.ValidateTaxRate(suggested) != nil {
		return decimal.Zero
	}
	return suggested
}

// call runs fn under the service's rate limit and timeout. It returns when
// the deadline passes even if fn ignores its context.
func call[T any](ctx context.Context, s *Service, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
