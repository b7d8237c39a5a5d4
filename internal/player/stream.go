// Package player plays a wavetable voice on the default audio device.
package player

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/mattetti/ppg-wavetables/internal/synth"
)

// Stream turns a Voice into little-endian float32 mono PCM. Control methods
// may be called from any goroutine while the audio device reads.
type Stream struct {
	mu    sync.Mutex
	voice *synth.Voice
	gain  float32
}

// NewStream wraps v. gain scales every sample.
func NewStream(v *synth.Voice, gain float32) *Stream {
	return &Stream{voice: v, gain: gain}
}

// Read fills p with whole samples. A trailing partial sample is left zeroed.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(p) / 4
	for i := 0; i < n; i++ {
		v := float32(s.voice.Next()) * s.gain
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	for i := n * 4; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// SetSweep queues a table sweep position; it applies at the next zero-crossing.
func (s *Stream) SetSweep(pos float64) {
	s.mu.Lock()
	s.voice.SetSweep(pos)
	s.mu.Unlock()
}

// SetPosition queues a wave position; it applies at the next zero-crossing.
// Fractional positions blend adjacent slots.
func (s *Stream) SetPosition(pos float64) {
	s.mu.Lock()
	s.voice.SetPosition(pos)
	s.mu.Unlock()
}

// SetFrequency retunes immediately.
func (s *Stream) SetFrequency(freq float64) {
	s.mu.Lock()
	s.voice.SetFrequency(freq)
	s.mu.Unlock()
}

// State returns the sweep and wave positions currently sounding.
func (s *Stream) State() (sweep, position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice.Sweep(), s.voice.Position()
}
