// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/revid/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveIndicesJSON does nothing.
func (s *Sink) SaveIndicesJSON(data []byte) error {
	return nil
}

// SavePlanJSON does nothing.
func (s *Sink) SavePlanJSON(data []byte) error {
	return nil
}

// SaveContactSheet does nothing.
func (s *Sink) SaveContactSheet(window int, img image.Image) error {
	return nil
}

// SaveSeamStrip does nothing.
func (s *Sink) SaveSeamStrip(seam int, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
