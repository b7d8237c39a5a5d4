// Package converter exports every wavetable of a ROM dump as a WAV file.
package converter

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mattetti/ppg-wavetables/internal/rom"
	"github.com/mattetti/ppg-wavetables/internal/synth"
	"github.com/mattetti/ppg-wavetables/internal/waves"
	"github.com/mattetti/ppg-wavetables/internal/wav"
)

// SamplesPerCycle is one sample per stored byte for each half of the cycle.
const SamplesPerCycle = waves.CycleLen

// Options represents the conversion options
type Options struct {
	Logger     *slog.Logger
	NoWrite    bool
	ErrorSave  bool   // dump records of tables that fail to decode to errors/
	Prefix     string // file name prefix, defaults to the ROM file name
	Cycles     int    // cycles rendered per slot, defaults to 1
	SampleRate int    // WAV header rate, defaults to 44100
	Tables     []int  // tables to export, all when empty
}

// Converter handles the conversion process
type Converter struct {
	options Options
	log     *slog.Logger
	parser  *rom.Parser
}

// NewConverter creates a new converter
func NewConverter(options Options) *Converter {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Cycles <= 0 {
		options.Cycles = 1
	}
	if options.SampleRate <= 0 {
		options.SampleRate = 44100
	}
	return &Converter{
		options: options,
		log:     options.Logger,
		parser:  rom.NewParser(options.Logger),
	}
}

// RenderCycles renders cycles full cycles of every slot of the table at the
// integer sweep position, slot 0 first. The synth's slot is left at the last
// slot.
func RenderCycles(s *synth.Synth, sweep, cycles int) []uint8 {
	out := make([]uint8, 0, s.Slots()*cycles*SamplesPerCycle)
	for slot := 0; slot < s.Slots(); slot++ {
		// slot is always in range here
		_ = s.SetSlot(slot)
		for c := 0; c < cycles; c++ {
			for i := 0; i < SamplesPerCycle; i++ {
				phase := float64(i) / SamplesPerCycle
				out = append(out, synth.ToPCM8(s.Render(phase, float64(sweep))))
			}
		}
	}
	return out
}

// ConvertFile exports the wavetables of one ROM dump to outputDir. It returns
// the number of WAV files written.
func (c *Converter) ConvertFile(ctx context.Context, inputFile, outputDir string) (int, error) {
	img, err := c.parser.ReadFile(inputFile)
	if err != nil {
		fmt.Printf("ROM READ ERROR: %s\n", filepath.Base(inputFile))
		return 0, err
	}
	bank, err := c.parser.Load(img)
	if err != nil {
		fmt.Printf("ROM DECODE ERROR: %s\n", filepath.Base(inputFile))
		return 0, err
	}
	prefix := c.options.Prefix
	if prefix == "" {
		prefix = strings.TrimSuffix(img.Filename, filepath.Ext(img.Filename))
	}
	return c.ExportBank(ctx, bank, prefix, outputDir)
}

// ExportBank renders the selected tables of bank concurrently and writes one
// WAV per table.
func (c *Converter) ExportBank(ctx context.Context, bank *rom.Bank, prefix, outputDir string) (int, error) {
	selected := c.options.Tables
	if len(selected) == 0 {
		for i := range bank.Tables {
			selected = append(selected, i)
		}
	}

	// sweep positions index the usable tables only
	usable := bank.Usable()
	sweepOf := make(map[int]int, len(usable))
	for k, i := range bank.Numbers() {
		sweepOf[i] = k
	}

	if c.options.ErrorSave {
		for _, i := range selected {
			if err := bank.Errors[i]; err != nil {
				c.saveErrorFile(bank, i, prefix, filepath.Join(outputDir, "errors"))
			}
		}
	}

	encoder := wav.NewEncoder(c.log, c.options.NoWrite, prefix)
	written := make([]bool, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for n, i := range selected {
		if _, err := bank.Table(i); err != nil {
			c.log.Warn("not exporting wavetable", "table", i, "error", err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := synth.New(bank.Waves, usable...)
			if err != nil {
				return err
			}
			pcm := RenderCycles(s, sweepOf[i], c.options.Cycles)
			name, err := encoder.WriteWAV(fmt.Sprintf("table %02d", i), pcm, c.options.SampleRate, outputDir)
			if err != nil {
				return fmt.Errorf("table %d: %w", i, err)
			}
			c.log.Debug("exported wavetable", "table", i, "file", name)
			written[n] = true
			return nil
		})
	}
	err := g.Wait()

	count := 0
	for _, w := range written {
		if w {
			count++
		}
	}
	return count, err
}

// ProcessDirectory exports every ROM dump (.bin or .rom) found under inputDir
// into its own folder of outputDir.
func (c *Converter) ProcessDirectory(ctx context.Context, inputDir, outputDir string) error {
	fmt.Printf("Scanning %s/ ...", inputDir)

	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !info.IsDir() && (ext == ".bin" || ext == ".rom") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error scanning directory: %w", err)
	}

	fmt.Printf("Done.\nPlanning to process %d ROM files in %s/\n", len(files), inputDir)

	totalWritten := 0
	converted := 0
	startTime := time.Now()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			fmt.Printf("Stopped after %d/%d files.\n", converted, len(files))
			return err
		}
		rel, err := filepath.Rel(inputDir, file)
		if err != nil {
			return fmt.Errorf("error calculating relative path: %w", err)
		}
		dirOutputPath := filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel)))
		if !c.options.NoWrite {
			if err := os.MkdirAll(dirOutputPath, 0755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
		}

		n, err := c.ConvertFile(ctx, file, dirOutputPath)
		if err != nil {
			c.log.Error("error converting rom", "file", file, "error", err)
			continue
		}
		fmt.Printf("%s - %d wavetable(s).\n", rel, n)
		totalWritten += n
		converted++
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Converted %d/%d files, %d wavetables. Duration: %.2fs\n", converted, len(files), totalWritten, elapsed.Seconds())
	return nil
}

// saveErrorFile writes a hex dump of a table's record that failed to decode
func (c *Converter) saveErrorFile(bank *rom.Bank, table int, prefix, errorDir string) {
	if c.options.NoWrite {
		return
	}

	if err := os.MkdirAll(errorDir, 0755); err != nil {
		c.log.Error("error creating error directory", "error", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "table %d: %v\n", table, bank.Errors[table])
	if table < len(bank.Spans) {
		sp := bank.Spans[table]
		fmt.Fprintf(&sb, "records %d..%d\n", sp.Start, sp.End)
	}
	sb.WriteString(hex.Dump(bank.Records(table)))

	errorFilePath := filepath.Join(errorDir, fmt.Sprintf("%s - table %02d.txt", prefix, table))
	if err := os.WriteFile(errorFilePath, []byte(sb.String()), 0644); err != nil {
		c.log.Error("error writing error file", "file", errorFilePath, "error", err)
	}
}
