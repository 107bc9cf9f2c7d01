// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/revid/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveIndicesJSON saves the sampled frame indices as JSON.
func (s *Sink) SaveIndicesJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "indices.json")
	return s.fs.WriteFile(path, data)
}

// SavePlanJSON saves the chunk plan as JSON.
func (s *Sink) SavePlanJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "plan.json")
	return s.fs.WriteFile(path, data)
}

// SaveContactSheet saves the contact sheet of one codec window.
func (s *Sink) SaveContactSheet(window int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "windows")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("window-%03d.png", window))
	return s.fs.WriteFile(path, data)
}

// SaveSeamStrip saves the frame strip around one blended seam.
func (s *Sink) SaveSeamStrip(seam int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "seams")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode seam strip: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("seam-%03d.png", seam))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
