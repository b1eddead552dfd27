// Package id generates identifiers for open slot handles.
//
// Handles are prefixed ULIDs ("fd_01J..."): the prefix keeps them readable in
// logs, and the ULID part sorts by open time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HandleID identifies one open session on a slot.
type HandleID string

// HandlePrefix tags handle ids.
const HandlePrefix = "fd"

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// e.g. a deterministic reader in tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a "prefix_ULID" string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewHandleID generates a new handle id from the default generator.
func NewHandleID() HandleID {
	return HandleID(Default().GenerateWithPrefix(HandlePrefix))
}

func (h HandleID) String() string { return string(h) }

// ParseHandleID validates s as a handle id.
func ParseHandleID(s string) (HandleID, error) {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || prefix != HandlePrefix {
		return "", fmt.Errorf("handle %q: missing %q prefix", s, HandlePrefix+"_")
	}
	if _, err := ulid.ParseStrict(rest); err != nil {
		return "", fmt.Errorf("handle %q: %w", s, err)
	}
	return HandleID(s), nil
}

// OpenedAt extracts the open time encoded in a handle id.
func (h HandleID) OpenedAt() (time.Time, error) {
	_, rest, _ := strings.Cut(string(h), "_")
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
