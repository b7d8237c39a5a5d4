package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/mattetti/ppg-wavetables/internal/converter"
	"github.com/mattetti/ppg-wavetables/internal/flac"
)

var (
	inputPath  string
	outputPath string
	prefix     string
	tableList  string
	cycles     int
	sampleRate int
	debugMode  bool
	logLevel   string
	errorSave  bool
	flacMode   bool
	playMode   bool
	frequency  float64
	sweep      float64
	slot       float64
	version    bool
)

func init() {
	flag.StringVar(&inputPath, "i", "", "Input ROM file or directory of .bin/.rom dumps (required)")
	flag.StringVar(&outputPath, "o", "", "Output directory (defaults to \"PPG Wavetables\")")
	flag.StringVar(&prefix, "prefix", "", "WAV file name prefix (defaults to the ROM file name)")
	flag.StringVar(&tableList, "tables", "", "Comma separated table numbers to export, e.g. 0,3,12 (defaults to all)")
	flag.IntVar(&cycles, "cycles", 1, "Cycles rendered per wave position")
	flag.IntVar(&sampleRate, "rate", 44100, "Sample rate written to the WAV header and used for playback")
	flag.BoolVar(&debugMode, "d", false, "Debug mode (same as -log-level debug)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.BoolVar(&errorSave, "e", false, "Save records of tables that fail to decode to output/errors/")
	flag.BoolVar(&flacMode, "flac", false, "Convert output to FLAC format (requires ffmpeg)")
	flag.BoolVar(&playMode, "play", false, "Play the ROM's wavetables on the audio device instead of exporting")
	flag.Float64Var(&frequency, "freq", 110, "Playback frequency in Hz")
	flag.Float64Var(&sweep, "sweep", 0, "Initial playback sweep position across the decoded tables")
	flag.Float64Var(&slot, "slot", 0, "Initial playback wave position (0-60, fractions blend slots)")
	flag.BoolVar(&version, "version", false, "Display version information")
}

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if version {
		fmt.Printf("ppg2wav version %s\n", VERSION)
		os.Exit(0)
	}

	if debugMode {
		logLevel = "debug"
	}
	logger, err := InitLogger(logLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if inputPath == "" {
		fmt.Println("Error: Input path is required. Use the -i flag.")
		printUsage()
		os.Exit(1)
	}
	if inputPath, err = homedir.Expand(inputPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if playMode {
		if err := play(logger, inputPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if outputPath == "" {
		outputPath = "PPG Wavetables"
		fmt.Printf("No output directory selected - Defaulting to %s\n", outputPath)
	}
	if outputPath, err = homedir.Expand(outputPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	tables, err := parseTables(tableList)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	conv := converter.NewConverter(converter.Options{
		Logger:     logger,
		NoWrite:    false,
		ErrorSave:  errorSave,
		Prefix:     prefix,
		Cycles:     cycles,
		SampleRate: sampleRate,
		Tables:     tables,
	})

	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(outputPath, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	logger.Debug("starting", "error_save", errorSave, "flac", flacMode, "cpus", runtime.NumCPU())

	if inputInfo.IsDir() {
		if err := conv.ProcessDirectory(ctx, inputPath, outputPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		n, err := conv.ConvertFile(ctx, inputPath, outputPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Converted %s - %d wavetable(s)\n", filepath.Base(inputPath), n)
	}

	if flacMode {
		convertToFlac(ctx, logger, outputPath)
	}
}

// parseTables parses the -tables flag, dropping repeated numbers.
func parseTables(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var tables []int
	for _, f := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid table number %q", f)
		}
		// each table is exported by one worker
		if !slices.Contains(tables, n) {
			tables = append(tables, n)
		}
	}
	return tables, nil
}

// convertToFlac converts all WAV files in the output directory to FLAC
func convertToFlac(ctx context.Context, logger *slog.Logger, outputDir string) {
	flacConverter, err := flac.NewConverter(logger, debugMode)
	if err != nil {
		fmt.Printf("Error initializing FLAC converter: %v\n", err)
		fmt.Println("WAV files were not converted to FLAC.")
		return
	}

	fmt.Println("Converting WAV files to FLAC format (using parallel processing)...")
	startTime := time.Now()

	if err := flacConverter.ConvertDirectory(ctx, outputDir); err != nil {
		fmt.Printf("Error converting to FLAC: %v\n", err)
		fmt.Println("Some WAV files may not have been converted.")
		return
	}

	elapsed := time.Since(startTime)
	fmt.Printf("FLAC conversion completed successfully in %.2f seconds.\n", elapsed.Seconds())
}

func printUsage() {
	fmt.Println("Usage: ppg2wav -i <input> [options]")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  ppg2wav -i waveterm.bin -o .              # Export every wavetable of a ROM")
	fmt.Println("  ppg2wav -i ~/roms/ -flac                  # Export a directory of ROMs as FLAC")
	fmt.Println("  ppg2wav -i waveterm.bin -tables 0,5 -cycles 4")
	fmt.Println("  ppg2wav -i waveterm.bin -play -freq 220   # Play, +/- sweeps tables, [/] moves wave position")
	fmt.Println("  ppg2wav -i waveterm.bin -d -e             # Debug logging and error dumps")
}
