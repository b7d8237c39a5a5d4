// Package wavetable decodes the sparse wavetable record streams of the ROM
// into dense per-slot tables and samples them.
package wavetable

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattetti/ppg-wavetables/internal/waves"
)

var (
	// ErrTruncatedData means the resource ended before a terminal pair.
	ErrTruncatedData = errors.New("truncated wavetable data")
	// ErrCorruptWavetable means a key references a waveform the store lacks.
	ErrCorruptWavetable = errors.New("corrupt wavetable")
	// ErrInvalidIndex is shared with the waveform store.
	ErrInvalidIndex = waves.ErrInvalidIndex
)

// Decoder turns record streams into Tables validated against Store.
type Decoder struct {
	Store     *waves.Store
	SlotCount int          // defaults to DefaultSlotCount
	Logger    *slog.Logger // defaults to slog.Default()
}

// NewDecoder creates a decoder for the standard 61-slot layout.
func NewDecoder(store *waves.Store, logger *slog.Logger) *Decoder {
	return &Decoder{Store: store, SlotCount: DefaultSlotCount, Logger: logger}
}

func (d *Decoder) slotCount() int {
	if d.SlotCount == 0 {
		return DefaultSlotCount
	}
	return d.SlotCount
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Decode reads one wavetable record starting at offset. It returns the table
// and the offset of the byte following the terminal pair, where the next
// table's record begins.
//
// A record is a tag byte, which is skipped, followed by (waveform, slot) byte
// pairs. The pair whose slot is >= SlotCount-1 ends the record and is itself
// recorded when it falls inside the table.
func (d *Decoder) Decode(resource []byte, offset int) (*Table, int, error) {
	n := d.slotCount()
	if n < 1 || n > 256 {
		return nil, offset, fmt.Errorf("%w: slot count %d", ErrInvalidIndex, n)
	}
	if d.Store == nil {
		return nil, offset, errors.New("wavetable: decoder has no waveform store")
	}
	if offset < 0 || offset >= len(resource) {
		return nil, offset, fmt.Errorf("%w: offset %d in %d bytes", ErrTruncatedData, offset, len(resource))
	}

	log := d.logger()
	log.Debug("decoding wavetable", "offset", offset, "tag", resource[offset])

	entries := make([]Entry, n)
	pos := offset + 1
	var corrupt error
	for {
		if pos+1 >= len(resource) {
			log.Debug("record ran out of data", "offset", offset, "dump", hex.Dump(resource[offset:]))
			return nil, len(resource), fmt.Errorf("%w: no terminal pair after offset %d", ErrTruncatedData, offset)
		}
		wave, slot := resource[pos], int(resource[pos+1])
		pos += 2

		if slot < n {
			if int(wave) >= d.Store.Len() && corrupt == nil {
				// keep scanning so the caller still learns where the next record starts
				log.Debug("key references missing waveform", "offset", offset, "slot", slot, "wave", wave)
				corrupt = fmt.Errorf("%w: slot %d references waveform %d, store has %d", ErrCorruptWavetable, slot, wave, d.Store.Len())
			}
			entries[slot].Key = true
			entries[slot].Wave = wave
		}
		if slot >= n-1 {
			break
		}
	}

	if corrupt != nil {
		return nil, pos, corrupt
	}
	if !fill(entries) && d.Store.Len() == 0 {
		return nil, pos, fmt.Errorf("%w: record has no keys and the store is empty", ErrCorruptWavetable)
	}
	return &Table{store: d.Store, entries: entries}, pos, nil
}

// fill sets the references and interpolation factor of every slot in one
// left-to-right pass over the keys placed by Decode. It reports whether any
// key was present.
func fill(entries []Entry) bool {
	left := -1
	for i := range entries {
		if entries[i].Key {
			left = i
			break
		}
	}
	if left < 0 {
		// no keys at all: everything plays waveform 0
		for i := range entries {
			entries[i] = Entry{}
		}
		return false
	}

	first := left
	right := nextKey(entries, left)
	for i := range entries {
		e := &entries[i]
		if e.Key && i != left {
			left = i
			right = nextKey(entries, i)
		}

		switch {
		case i < first:
			// before the first key: hold the first key
			e.LeftSlot, e.RightSlot = first, first
		case e.Key:
			e.LeftSlot, e.RightSlot = i, i
		default:
			e.LeftSlot, e.RightSlot = left, right
		}
		e.Left, e.Right = entries[e.LeftSlot].Wave, entries[e.RightSlot].Wave
		e.Factor = 0
		if span := e.RightSlot - e.LeftSlot; span != 0 {
			e.Factor = float64(i-e.LeftSlot) / float64(span)
		}
	}
	return true
}

// nextKey returns the first key after slot, or slot itself when there is none.
func nextKey(entries []Entry, slot int) int {
	for j := slot + 1; j < len(entries); j++ {
		if entries[j].Key {
			return j
		}
	}
	return slot
}

// Result is the outcome of decoding one table in a chain.
type Result struct {
	Table *Table // nil when Err is set
	Err   error
	Start int // offset of the record's tag byte
	End   int // offset just past the record
}

// DecodeAll decodes up to limit consecutive tables starting at offset 0. A
// corrupt table is recorded and decoding continues after it; truncation ends
// the chain, and that table and all later ones are absent.
func (d *Decoder) DecodeAll(resource []byte, limit int) []Result {
	var results []Result
	offset := 0
	for len(results) < limit && offset < len(resource) {
		t, next, err := d.Decode(resource, offset)
		results = append(results, Result{Table: t, Err: err, Start: offset, End: next})
		if errors.Is(err, ErrTruncatedData) {
			break
		}
		offset = next
	}
	return results
}
