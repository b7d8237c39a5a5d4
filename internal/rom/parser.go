// Package rom reads waveform ROM dumps and decodes every stored wavetable.
package rom

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattetti/ppg-wavetables/internal/waves"
	"github.com/mattetti/ppg-wavetables/internal/wavetable"
)

// ErrTooSmall is returned for images that cannot hold the records zone.
var ErrTooSmall = errors.New("rom image too small")

// Parser handles reading and decoding ROM images
type Parser struct {
	log *slog.Logger
}

// NewParser creates a new ROM parser. A nil logger uses slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{log: logger}
}

// dumpHex returns a hexadecimal dump of the provided data
func (p *Parser) dumpHex(data []byte, maxLen int) string {
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	return hex.Dump(data)
}

// waveCount returns how many complete waveforms an image of size bytes holds.
func waveCount(size int64) int {
	n := (size - WaveOffset) / waves.WaveLen
	if n > waves.MaxWaves {
		n = waves.MaxWaves
	}
	return int(n)
}

// ReadFile reads a ROM dump. Waveforms are read straight from the file.
func (p *Parser) ReadFile(inputFile string) (*Image, error) {
	file, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}

	img := &Image{
		Filename: filepath.Base(inputFile),
		Path:     inputFile,
		Size:     fileInfo.Size(),
	}
	if img.Size < RecordsSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, need at least %d", ErrTooSmall, img.Filename, img.Size, RecordsSize)
	}

	img.Records = make([]byte, RecordsSize)
	bytesRead, err := io.ReadFull(file, img.Records)
	if err != nil {
		p.log.Debug("short read of wavetable records", "read", bytesRead, "want", RecordsSize)
		return nil, fmt.Errorf("error reading wavetable records: %w (read %d of %d bytes)", err, bytesRead, RecordsSize)
	}

	n := waveCount(img.Size)
	if img.Size != FullSize {
		p.log.Warn("unexpected rom size", "file", img.Filename, "size", img.Size, "expected", FullSize, "waveforms", n)
	}

	img.Waves, err = waves.NewStore(waves.NewReaderAtSource(file, WaveOffset, n))
	if err != nil {
		return nil, fmt.Errorf("error reading waveforms: %w", err)
	}

	p.log.Debug("read rom image", "file", img.Filename, "size", img.Size, "waveforms", img.Waves.Len())
	return img, nil
}

// Parse splits an in-memory ROM dump. data is not copied.
func (p *Parser) Parse(data []byte) (*Image, error) {
	if len(data) < RecordsSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooSmall, len(data), RecordsSize)
	}
	img := &Image{
		Size:    int64(len(data)),
		Records: data[:RecordsSize],
	}
	n := waveCount(img.Size)
	store, err := waves.NewStore(waves.NewMemorySource(data[WaveOffset : WaveOffset+n*waves.WaveLen]))
	if err != nil {
		return nil, fmt.Errorf("error reading waveforms: %w", err)
	}
	img.Waves = store
	return img, nil
}

// Load decodes every stored wavetable of img. Tables that fail are logged and
// left nil in the bank; the rest of the bank stays usable. Load only fails
// when not a single table could be decoded.
func (p *Parser) Load(img *Image) (*Bank, error) {
	dec := wavetable.NewDecoder(img.Waves, p.log)
	results := dec.DecodeAll(img.Records, MaxTables)

	bank := &Bank{
		Image:  img,
		Waves:  img.Waves,
		Tables: make([]*wavetable.Table, len(results)),
		Errors: make(map[int]error),
		Spans:  make([]Span, len(results)),
	}
	for i, r := range results {
		bank.Spans[i] = Span{Start: r.Start, End: r.End}
		if r.Err != nil {
			bank.Errors[i] = r.Err
			p.log.Warn("skipping wavetable", "table", i, "offset", r.Start, "error", r.Err)
			p.log.Debug("wavetable record", "table", i, "dump", p.dumpHex(img.Records[r.Start:r.End], 64))
			continue
		}
		bank.Tables[i] = r.Table
		p.log.Debug("decoded wavetable", "table", i, "offset", r.Start, "keys", r.Table.Keys())
	}

	if len(bank.Usable()) == 0 {
		return nil, fmt.Errorf("no wavetables could be decoded from %d bytes of records", len(img.Records))
	}
	return bank, nil
}
