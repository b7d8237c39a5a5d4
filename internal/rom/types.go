package rom

import (
	"fmt"

	"github.com/mattetti/ppg-wavetables/internal/waves"
	"github.com/mattetti/ppg-wavetables/internal/wavetable"
)

// ROM layout
const (
	RecordsSize = 768                            // wavetable records zone [0, 768)
	WaveOffset  = RecordsSize                    // first waveform byte
	WavesSize   = waves.MaxWaves * waves.WaveLen // 16384 bytes of waveforms
	FullSize    = WaveOffset + WavesSize         // size of a complete dump
	MaxTables   = 29                             // stored tables, the rest are computed
)

// Image represents a ROM dump split into its two zones
type Image struct {
	Filename string
	Path     string
	Size     int64
	Records  []byte       // sparse wavetable records, RecordsSize bytes
	Waves    *waves.Store // waveform catalog
}

// Span is the byte range a table's record occupies in Image.Records
type Span struct {
	Start int
	End   int
}

// Bank is a fully decoded ROM: the waveform catalog plus every stored table.
// Tables has one element per decoded record; failed tables are nil and their
// error is kept in Errors.
type Bank struct {
	Image  *Image
	Waves  *waves.Store
	Tables []*wavetable.Table
	Errors map[int]error
	Spans  []Span
}

// Usable returns the successfully decoded tables in order.
func (b *Bank) Usable() []*wavetable.Table {
	var tables []*wavetable.Table
	for _, t := range b.Tables {
		if t != nil {
			tables = append(tables, t)
		}
	}
	return tables
}

// Numbers returns the table number of each Usable table, so Numbers()[k] is
// the table a sweep position k plays.
func (b *Bank) Numbers() []int {
	var numbers []int
	for i, t := range b.Tables {
		if t != nil {
			numbers = append(numbers, i)
		}
	}
	return numbers
}

// Table returns table i or the reason it could not be decoded.
func (b *Bank) Table(i int) (*wavetable.Table, error) {
	if i < 0 || i >= len(b.Tables) {
		return nil, fmt.Errorf("%w: wavetable %d (have %d)", waves.ErrInvalidIndex, i, len(b.Tables))
	}
	if err := b.Errors[i]; err != nil {
		return nil, fmt.Errorf("wavetable %d: %w", i, err)
	}
	return b.Tables[i], nil
}

// Records returns the raw record bytes of table i.
func (b *Bank) Records(i int) []byte {
	if i < 0 || i >= len(b.Spans) {
		return nil
	}
	sp := b.Spans[i]
	return b.Image.Records[sp.Start:sp.End]
}
