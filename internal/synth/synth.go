// Package synth renders audio samples from decoded wavetables.
package synth

import (
	"fmt"
	"math"

	"github.com/mattetti/ppg-wavetables/internal/waves"
	"github.com/mattetti/ppg-wavetables/internal/wavetable"
)

// Synth samples one or more wavetables at a wave position. Tables are shared
// read-only; a Synth only owns its position setting.
type Synth struct {
	store    *waves.Store
	tables   []*wavetable.Table
	position float64
}

// New builds a synth over tables, which must all reference store and share a
// slot count.
func New(store *waves.Store, tables ...*wavetable.Table) (*Synth, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: no waveform store", waves.ErrInvalidIndex)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no wavetables", waves.ErrInvalidIndex)
	}
	for i, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("%w: wavetable %d is missing", waves.ErrInvalidIndex, i)
		}
		if t.Store() != store {
			return nil, fmt.Errorf("wavetable %d was decoded against a different waveform store", i)
		}
		if t.Len() != tables[0].Len() {
			return nil, fmt.Errorf("%w: wavetable %d has %d slots, wavetable 0 has %d", waves.ErrInvalidIndex, i, t.Len(), tables[0].Len())
		}
	}
	return &Synth{store: store, tables: tables}, nil
}

// Tables returns the number of wavetables the sweep position ranges over.
func (s *Synth) Tables() int {
	return len(s.tables)
}

// Slots returns the number of slots per table.
func (s *Synth) Slots() int {
	return s.tables[0].Len()
}

// Slot returns the slot at or below the current wave position.
func (s *Synth) Slot() int {
	return int(s.position)
}

// Position returns the current, possibly fractional, wave position.
func (s *Synth) Position() float64 {
	return s.position
}

// SetSlot selects the wave position rendered in every table.
func (s *Synth) SetSlot(slot int) error {
	if slot < 0 || slot >= s.Slots() {
		return fmt.Errorf("%w: slot %d (have %d)", waves.ErrInvalidIndex, slot, s.Slots())
	}
	s.position = float64(slot)
	return nil
}

// SetPosition selects a fractional wave position. A fraction blends toward
// the next slot. pos is clamped to the table and NaN selects slot 0.
func (s *Synth) SetPosition(pos float64) {
	s.position = ClampPosition(pos, s.Slots())
}

// ClampPosition folds pos into [0, slots-1].
func ClampPosition(pos float64, slots int) float64 {
	last := float64(slots - 1)
	switch {
	case pos <= 0 || math.IsNaN(pos):
		return 0
	case pos >= last:
		return last
	}
	return pos
}

// Render returns the sample at phase for a sweep position across the tables.
// The integer part of sweep picks a table, the fraction blends toward the next
// one. Within each table the wave position blends adjacent slots. sweep is clamped to the loaded tables and phase is wrapped into [0,1).
func (s *Synth) Render(phase, sweep float64) float64 {
	phase = Wrap(phase)

	last := float64(len(s.tables) - 1)
	if sweep <= 0 || math.IsNaN(sweep) {
		return s.tables[0].SampleAt(s.position, phase)
	}
	if sweep >= last {
		return s.tables[len(s.tables)-1].SampleAt(s.position, phase)
	}
	i := int(sweep)
	frac := sweep - float64(i)
	s0 := s.tables[i].SampleAt(s.position, phase)
	if frac == 0 {
		return s0
	}
	s1 := s.tables[i+1].SampleAt(s.position, phase)
	return (1-frac)*s0 + frac*s1
}

// Wrap folds phase into [0,1).
func Wrap(phase float64) float64 {
	if phase >= 0 && phase < 1 {
		return phase
	}
	phase -= math.Floor(phase)
	if phase >= 1 {
		// -tiny + 1 rounds up to 1
		return 0
	}
	return phase
}

// ToPCM8 converts a sample in (-1,1) to an unsigned 8-bit PCM byte.
func ToPCM8(sample float64) uint8 {
	v := 128 + math.Round(sample*127)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
