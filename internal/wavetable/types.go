package wavetable

import (
	"fmt"
	"math"

	"github.com/mattetti/ppg-wavetables/internal/waves"
)

// DefaultSlotCount is the number of usable wave positions in a table.
const DefaultSlotCount = 61

// Entry is one decoded slot of a wavetable.
type Entry struct {
	Key  bool  // slot holds an exact waveform from the record stream
	Wave uint8 // waveform index when Key is set

	Left  uint8 // waveform of the nearest key at or before this slot
	Right uint8 // waveform of the nearest key after LeftSlot

	// Slot indices of the key entries Left and Right came from.
	LeftSlot  int
	RightSlot int

	Factor float64 // blend toward Right, in [0,1]
}

// Table is a dense, decoded wavetable. It is read-only once returned by a
// Decoder and safe for concurrent use.
type Table struct {
	store   *waves.Store
	entries []Entry
}

// Len returns the number of slots.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns a copy of the entry at slot.
func (t *Table) Entry(slot int) (Entry, error) {
	if slot < 0 || slot >= len(t.entries) {
		return Entry{}, fmt.Errorf("%w: slot %d", ErrInvalidIndex, slot)
	}
	return t.entries[slot], nil
}

// Keys returns the slot positions that hold key waveforms, in order.
func (t *Table) Keys() []int {
	var keys []int
	for i, e := range t.entries {
		if e.Key {
			keys = append(keys, i)
		}
	}
	return keys
}

// Store returns the waveform catalog the table references.
func (t *Table) Store() *waves.Store {
	return t.store
}

// Sample renders slot at phase by blending the slot's left and right key
// waveforms with the precomputed factor. A slot outside the table panics.
func (t *Table) Sample(slot int, phase float64) float64 {
	if slot < 0 || slot >= len(t.entries) {
		panic(fmt.Sprintf("wavetable: slot %d out of range [0,%d)", slot, len(t.entries)))
	}
	e := &t.entries[slot]
	l := t.store.Value(int(e.Left), phase)
	if e.Factor == 0 {
		return l
	}
	r := t.store.Value(int(e.Right), phase)
	return (1-e.Factor)*l + e.Factor*r
}

// SampleAt renders a fractional slot position by blending the two nearest
// slots. position is clamped to the table; NaN plays slot 0.
func (t *Table) SampleAt(position, phase float64) float64 {
	last := float64(len(t.entries) - 1)
	if position <= 0 || math.IsNaN(position) {
		return t.Sample(0, phase)
	}
	if position >= last {
		return t.Sample(len(t.entries)-1, phase)
	}
	i := int(position)
	frac := position - float64(i)
	s0 := t.Sample(i, phase)
	if frac == 0 {
		return s0
	}
	return s0*(1-frac) + t.Sample(i+1, phase)*frac
}
