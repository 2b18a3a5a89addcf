// Package device wraps access to the device position. Failures carry a
// fixed code so callers can show a specific message for each.
package device

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// Code classifies a geolocation failure
type Code int

const (
	CodeUnknown Code = iota
	CodePermissionDenied
	CodePositionUnavailable
	CodeTimeout
	CodeUnsupported
)

var messages = map[Code]string{
	CodeUnknown:             "An unknown error occurred.",
	CodePermissionDenied:    "Location access was denied by the user.",
	CodePositionUnavailable: "Location information is unavailable.",
	CodeTimeout:             "The request to get user location timed out.",
	CodeUnsupported:         "Geolocation is not supported on this device. Please enter a location manually.",
}

// Error is a coded geolocation failure
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return messages[e.Code] + ": " + e.Err.Error()
	}
	return messages[e.Code]
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps a coded failure as an AppError of type GEOLOCATION whose
// message is the user-facing text for code
func NewError(code Code, err error) *apperrors.AppError {
	if _, ok := messages[code]; !ok {
		code = CodeUnknown
	}
	return apperrors.NewGeolocationError(messages[code], &Error{Code: code, Err: err})
}

// CodeOf extracts the failure code from err
func CodeOf(err error) Code {
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr.Code
	}
	return CodeUnknown
}

// Message returns the user-facing text for err
func Message(err error) string {
	return messages[CodeOf(err)]
}

// Options bound a position request
type Options struct {
	// Timeout caps how long the request may take
	Timeout time.Duration
	// MaximumAge is how old a cached fix may be and still be returned
	MaximumAge time.Duration
}

// Position is a device fix
type Position struct {
	Point     geo.Point
	Timestamp time.Time
}

// Geolocator supplies the device position
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// Static reports a fixed position, e.g. one configured through the
// environment
type Static struct {
	Point geo.Point
}

func (s Static) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, NewError(CodeTimeout, err)
	}
	if !s.Point.Valid() {
		return Position{}, NewError(CodePositionUnavailable, nil)
	}
	return Position{Point: s.Point, Timestamp: time.Now()}, nil
}

// Unsupported is the geolocator for devices without positioning
type Unsupported struct{}

func (Unsupported) CurrentPosition(context.Context, Options) (Position, error) {
	return Position{}, NewError(CodeUnsupported, nil)
}

// Cached applies Options to an underlying source: fixes younger than
// MaximumAge are reused and slow lookups fail with CodeTimeout.
type Cached struct {
	source Geolocator
	now    func() time.Time

	mu   sync.Mutex
	last *Position
}

// NewCached wraps source
func NewCached(source Geolocator) *Cached {
	return &Cached{source: source, now: time.Now}
}

func (c *Cached) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	c.mu.Lock()
	if c.last != nil && opts.MaximumAge > 0 && c.now().Sub(c.last.Timestamp) <= opts.MaximumAge {
		pos := *c.last
		c.mu.Unlock()
		return pos, nil
	}
	c.mu.Unlock()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := c.source.CurrentPosition(ctx, opts)
		done <- result{pos, err}
	}()

	select {
	case <-ctx.Done():
		return Position{}, NewError(CodeTimeout, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if CodeOf(r.err) == CodeUnknown && errors.Is(r.err, context.DeadlineExceeded) {
				return Position{}, NewError(CodeTimeout, r.err)
			}
			return Position{}, r.err
		}
		if r.pos.Timestamp.IsZero() {
			r.pos.Timestamp = c.now()
		}
		c.mu.Lock()
		c.last = &r.pos
		c.mu.Unlock()
		return r.pos, nil
	}
}
