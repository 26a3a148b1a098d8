package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// DefaultRunIDBytes is the random suffix size, 16 hex characters.
	DefaultRunIDBytes = 8

	runIDLayout = "20060102T150405Z"
)

// Generator creates opaque correlation IDs.
type Generator interface {
	NewID() (string, error)
}

// RunIDGenerator builds IDs of the form <UTC start>-<hex>, so refresh runs
// sort by start time in log search and stay unique within one second.
type RunIDGenerator struct {
	size int
	now  func() time.Time
}

func NewRunIDGenerator(size int, now func() time.Time) *RunIDGenerator {
	if size <= 0 {
		size = DefaultRunIDBytes
	}
	if now == nil {
		now = time.Now
	}
	return &RunIDGenerator{size: size, now: now}
}

func (g *RunIDGenerator) NewID() (string, error) {
	suffix := make([]byte, g.size)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, 0, len(runIDLayout)+1+hex.EncodedLen(g.size))
	out = g.now().UTC().AppendFormat(out, runIDLayout)
	out = append(out, '-')
	out = hex.AppendEncode(out, suffix)
	return string(out), nil
}
