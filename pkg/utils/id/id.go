// Package id generates lexicographically sortable identifiers for sessions
// and requests.
//
// Usage:
//
//	sid := id.NewULID() // e.g. "01ARZ3NDEKTSV4RRFFQ69G5FAV"
//	if id.IsValidULID(sid) { ... }
package id

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidULID is returned when a ULID string is invalid.
var ErrInvalidULID = errors.New("invalid ULID format")

// ULIDGenerator produces ULIDs that are strictly increasing within a
// millisecond.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// ULIDOption is a functional option for ULIDGenerator.
type ULIDOption func(*ULIDGenerator)

// WithULIDReader sets a custom random reader for ULID generation.
func WithULIDReader(r io.Reader) ULIDOption {
	return func(g *ULIDGenerator) {
		g.entropy = ulid.Monotonic(r, 0)
	}
}

// WithClock sets the clock used for the timestamp part.
func WithClock(now func() time.Time) ULIDOption {
	return func(g *ULIDGenerator) {
		g.now = now
	}
}

// NewULIDGenerator creates a new ULID generator.
func NewULIDGenerator(opts ...ULIDOption) *ULIDGenerator {
	g := &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate creates a new ULID string.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := ulid.Timestamp(g.now())
	id, err := ulid.New(ts, g.entropy)
	if err != nil {
		// 同一毫秒内随机部分溢出，换新的随机序列
		id = ulid.MustNew(ts, rand.Reader)
	}
	return id.String()
}

var (
	defaultOnce sync.Once
	defaultGen  *ULIDGenerator
)

// NewULID generates a ULID with the shared default generator.
func NewULID() string {
	defaultOnce.Do(func() {
		defaultGen = NewULIDGenerator()
	})
	return defaultGen.Generate()
}

// ParseULID parses a ULID string, case-insensitively.
func ParseULID(s string) (ulid.ULID, error) {
	u, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, ErrInvalidULID
	}
	return u, nil
}

// IsValidULID checks if a string is a valid ULID.
func IsValidULID(s string) bool {
	_, err := ParseULID(s)
	return err == nil
}

// ULIDTime returns the creation time encoded in a ULID.
func ULIDTime(s string) (time.Time, error) {
	u, err := ParseULID(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
