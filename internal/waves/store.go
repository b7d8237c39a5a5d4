// Package waves holds the immutable catalog of half-cycle waveforms and the
// mirrored-phase lookup that rebuilds a full cycle from each of them.
package waves

import (
	"errors"
	"fmt"
)

const (
	// WaveLen is the number of stored samples per waveform (one half-cycle).
	WaveLen = 64
	// MaxWaves is the size of a full waveform catalog.
	MaxWaves = 256
	// CycleLen is the number of distinct lookups in one full mirrored cycle.
	CycleLen = 2 * WaveLen
)

// ErrInvalidIndex reports a waveform, sample, slot or table index outside its
// defined range.
var ErrInvalidIndex = errors.New("invalid index")

// Store is a read-only catalog of waveforms. It is safe for concurrent use.
type Store struct {
	waves [][WaveLen]byte
}

// NewStore copies every waveform out of src.
func NewStore(src Source) (*Store, error) {
	n := src.NumWaves()
	if n < 0 || n > MaxWaves {
		return nil, fmt.Errorf("%w: source holds %d waveforms, max is %d", ErrInvalidIndex, n, MaxWaves)
	}
	s := &Store{waves: make([][WaveLen]byte, n)}
	for i := range s.waves {
		if err := src.ReadWave(i, s.waves[i][:]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len returns the number of waveforms in the store.
func (s *Store) Len() int {
	return len(s.waves)
}

// Wave returns a copy of waveform i.
func (s *Store) Wave(i int) ([WaveLen]byte, error) {
	if i < 0 || i >= len(s.waves) {
		return [WaveLen]byte{}, fmt.Errorf("%w: waveform %d", ErrInvalidIndex, i)
	}
	return s.waves[i], nil
}

// SampleAt returns the raw unsigned byte at position sample of waveform wave.
func (s *Store) SampleAt(wave, sample int) (byte, error) {
	if wave < 0 || wave >= len(s.waves) {
		return 0, fmt.Errorf("%w: waveform %d", ErrInvalidIndex, wave)
	}
	if sample < 0 || sample >= WaveLen {
		return 0, fmt.Errorf("%w: sample %d", ErrInvalidIndex, sample)
	}
	return s.waves[wave][sample], nil
}

// SampleByPhase returns the normalized value of waveform wave at phase in
// [0,1). The second half of the cycle plays the stored half backwards and
// inverted.
func (s *Store) SampleByPhase(wave int, phase float64) (float64, error) {
	if wave < 0 || wave >= len(s.waves) {
		return 0, fmt.Errorf("%w: waveform %d", ErrInvalidIndex, wave)
	}
	return s.Value(wave, phase), nil
}

// Value is SampleByPhase without the waveform bounds check. wave must already
// be known to be < Len.
func (s *Store) Value(wave int, phase float64) float64 {
	w := &s.waves[wave]
	if phase < 0.5 {
		return normalize(w[sampleIndex(phase*CycleLen)])
	}
	return -normalize(w[WaveLen-1-sampleIndex((phase-0.5)*CycleLen)])
}

// sampleIndex floors x into [0, WaveLen-1].
func sampleIndex(x float64) int {
	i := int(x)
	if i < 0 {
		return 0
	}
	if i >= WaveLen {
		return WaveLen - 1
	}
	return i
}

func normalize(b byte) float64 {
	return (float64(b) - 128) / 128
}
