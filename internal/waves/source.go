package waves

import (
	"fmt"
	"io"
)

// Source is anything that can hand out waveform bytes by index.
type Source interface {
	// NumWaves reports how many complete waveforms the source holds.
	NumWaves() int
	// ReadWave fills dst (WaveLen bytes) with waveform index.
	ReadWave(index int, dst []byte) error
}

// MemorySource serves waveforms from a contiguous in-memory byte slice.
type MemorySource struct {
	data []byte
}

// NewMemorySource wraps data. Trailing bytes that do not form a complete
// waveform are ignored.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

// NumWaves returns the number of complete waveforms in the slice.
func (m *MemorySource) NumWaves() int {
	return len(m.data) / WaveLen
}

// ReadWave copies waveform index into dst.
func (m *MemorySource) ReadWave(index int, dst []byte) error {
	if index < 0 || index >= m.NumWaves() {
		return fmt.Errorf("%w: waveform %d (have %d)", ErrInvalidIndex, index, m.NumWaves())
	}
	copy(dst[:WaveLen], m.data[index*WaveLen:])
	return nil
}

// ReaderAtSource reads waveforms on demand from random-access storage
// such as an open ROM file.
type ReaderAtSource struct {
	r     io.ReaderAt
	base  int64
	count int
}

// NewReaderAtSource serves count waveforms laid out back to back starting at
// byte offset base of r.
func NewReaderAtSource(r io.ReaderAt, base int64, count int) *ReaderAtSource {
	return &ReaderAtSource{r: r, base: base, count: count}
}

// NumWaves returns the count given to NewReaderAtSource.
func (s *ReaderAtSource) NumWaves() int {
	return s.count
}

// ReadWave reads waveform index into dst. A short read is an
// io.ErrUnexpectedEOF.
func (s *ReaderAtSource) ReadWave(index int, dst []byte) error {
	if index < 0 || index >= s.count {
		return fmt.Errorf("%w: waveform %d (have %d)", ErrInvalidIndex, index, s.count)
	}
	off := s.base + int64(index)*WaveLen
	n, err := s.r.ReadAt(dst[:WaveLen], off)
	if n == WaveLen {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("error reading waveform %d at offset %d: %w (read %d of %d bytes)", index, off, err, n, WaveLen)
}
