// Package views assembles page view models from a storefront client. Each
// page is a set of sections that load independently; a section that has
// not finished within the render wait is reported as loading while its read
// carries on in the background.
package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusError         Status = "error"
	StatusNotFound      Status = "not_found"
	StatusAccessDenied  Status = "access_denied"
	StatusLoginRequired Status = "login_required"
)

// Section is one independently loaded part of a page.
type Section[T any] struct {
	Status Status `json:"status" yaml:"status"`
	Data   T      `json:"data" yaml:"data"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s Section[T]) Ready() bool { return s.Status == StatusReady }

func ready[T any](v T) Section[T] { return Section[T]{Status: StatusReady, Data: v} }

func withStatus[T any](st Status) Section[T] { return Section[T]{Status: st} }

// derive maps a ready section's data, carrying any other status through.
func derive[T, U any](s Section[T], fn func(T) U) Section[U] {
	if !s.Ready() {
		return Section[U]{Status: s.Status, Error: s.Error}
	}
	return ready(fn(s.Data))
}

// Renderer builds page view models.
type Renderer struct {
	wait   time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewRenderer(wait time.Duration, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Renderer{wait: wait, logger: logger, now: time.Now}
}

// load runs fn bounded by the render wait and classifies the outcome.
func load[T any](ctx context.Context, r *Renderer, name string, fn func(context.Context) (T, error)) Section[T] {
	lctx := ctx
	if r.wait > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}
	v, err := fn(lctx)
	if err == nil {
		return ready(v)
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		r.logger.Printf("views: %s still loading after %s", name, r.wait)
		return withStatus[T](StatusLoading)
	}
	s := withStatus[T](classify(err))
	if s.Status == StatusError {
		r.logger.Printf("views: %s failed: %v", name, err)
		s.Error = err.Error()
	}
	return s
}

func classify(err error) Status {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return StatusAccessDenied
	case errors.Is(err, domain.ErrUnauthorized):
		return StatusLoginRequired
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return StatusLoading
	}
	return StatusError
}

// Money formats an amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RatingLabel shows "New" for unrated products.
func RatingLabel(r float64) string {
	if r == 0 {
		return "New"
	}
	return fmt.Sprintf("%.1f", r)
}

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// ClampQuantity bounds a requested quantity to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) uint64 {
	switch {
	case q < MinQuantity:
		return MinQuantity
	case q > MaxQuantity:
		return MaxQuantity
	}
	return uint64(q)
}
