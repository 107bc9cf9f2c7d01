package mocks

import (
	"image"
	"sync"

	"github.com/user/revid/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	IndicesJSON   []byte
	PlanJSON      []byte
	ContactSheets map[int]image.Image
	SeamStrips    map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		ContactSheets: make(map[int]image.Image),
		SeamStrips:    make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveIndicesJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IndicesJSON = data
	return nil
}

func (m *DebugSink) SavePlanJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanJSON = data
	return nil
}

func (m *DebugSink) SaveContactSheet(window int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContactSheets[window] = img
	return nil
}

func (m *DebugSink) SaveSeamStrip(seam int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeamStrips[seam] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
