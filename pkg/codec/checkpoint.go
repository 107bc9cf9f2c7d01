package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/user/revid/pkg/ports"
)

// ErrBadCheckpoint indicates a missing, truncated or corrupt checkpoint file.
var ErrBadCheckpoint = errors.New("bad checkpoint")

const (
	checkpointMagic   = "RVC1"
	checkpointVersion = 1

	// Sanity bound against corrupt headers.
	maxLatentChannels = 1024
)

// Checkpoint holds the learned parameters of the reference codec.
type Checkpoint struct {
	TemporalCompression int
	SpatialCompression  int
	LatentChannels      int

	// Per-channel affine applied to the pooled latent mean, and the
	// constant log-variance of the latent distribution.
	Gain   []float32
	Bias   []float32
	LogVar []float32
}

// DefaultCheckpoint returns identity parameters with the usual compression
// factors. Useful for tests and for running without trained weights.
func DefaultCheckpoint() *Checkpoint {
	ckpt := &Checkpoint{
		TemporalCompression: 4,
		SpatialCompression:  8,
		LatentChannels:      3,
	}
	ckpt.Gain = make([]float32, ckpt.LatentChannels)
	ckpt.Bias = make([]float32, ckpt.LatentChannels)
	ckpt.LogVar = make([]float32, ckpt.LatentChannels)
	for c := range ckpt.Gain {
		ckpt.Gain[c] = 1
		ckpt.LogVar[c] = -20
	}
	return ckpt
}

func (c *Checkpoint) validate() error {
	if c.TemporalCompression < 1 || c.SpatialCompression < 1 {
		return fmt.Errorf("%w: compression factors %d/%d", ErrBadCheckpoint, c.TemporalCompression, c.SpatialCompression)
	}
	if c.LatentChannels < 1 || c.LatentChannels > maxLatentChannels {
		return fmt.Errorf("%w: %d latent channels", ErrBadCheckpoint, c.LatentChannels)
	}
	if len(c.Gain) != c.LatentChannels || len(c.Bias) != c.LatentChannels || len(c.LogVar) != c.LatentChannels {
		return fmt.Errorf("%w: parameter table size mismatch", ErrBadCheckpoint)
	}
	for ch, g := range c.Gain {
		if g == 0 {
			return fmt.Errorf("%w: zero gain for channel %d", ErrBadCheckpoint, ch)
		}
	}
	return nil
}

// Marshal serializes the checkpoint to its binary form.
func (c *Checkpoint) Marshal() ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	buf.WriteString(checkpointMagic)
	for _, v := range []uint32{
		checkpointVersion,
		uint32(c.TemporalCompression),
		uint32(c.SpatialCompression),
		uint32(c.LatentChannels),
	} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for _, table := range [][]float32{c.Gain, c.Bias, c.LogVar} {
		if err := binary.Write(buf, binary.LittleEndian, table); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalCheckpoint parses the binary checkpoint format.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != checkpointMagic {
		return nil, fmt.Errorf("%w: wrong magic", ErrBadCheckpoint)
	}

	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("%w: truncated header", ErrBadCheckpoint)
		}
	}
	if header[0] != checkpointVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadCheckpoint, header[0])
	}

	ckpt := &Checkpoint{
		TemporalCompression: int(header[1]),
		SpatialCompression:  int(header[2]),
		LatentChannels:      int(header[3]),
	}
	if ckpt.LatentChannels < 1 || ckpt.LatentChannels > maxLatentChannels {
		return nil, fmt.Errorf("%w: %d latent channels", ErrBadCheckpoint, ckpt.LatentChannels)
	}

	ckpt.Gain = make([]float32, ckpt.LatentChannels)
	ckpt.Bias = make([]float32, ckpt.LatentChannels)
	ckpt.LogVar = make([]float32, ckpt.LatentChannels)
	for _, table := range [][]float32{ckpt.Gain, ckpt.Bias, ckpt.LogVar} {
		if err := binary.Read(r, binary.LittleEndian, table); err != nil {
			return nil, fmt.Errorf("%w: truncated parameter table", ErrBadCheckpoint)
		}
	}

	if err := ckpt.validate(); err != nil {
		return nil, err
	}
	return ckpt, nil
}

// LoadCheckpoint reads and parses a checkpoint file.
func LoadCheckpoint(fs ports.FileSystem, path string) (*Checkpoint, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	ckpt, err := UnmarshalCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return ckpt, nil
}

// SaveCheckpoint writes the checkpoint to a file.
func SaveCheckpoint(fs ports.FileSystem, path string, ckpt *Checkpoint) error {
	data, err := ckpt.Marshal()
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return nil
}
