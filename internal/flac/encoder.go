// Package flac converts exported WAV files to FLAC with ffmpeg.
package flac

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Converter handles converting WAV files to FLAC
type Converter struct {
	ffmpegPath string
	log        *slog.Logger
	debug      bool
}

// NewConverter creates a new FLAC converter. It fails when ffmpeg cannot be
// found. With debug set, ffmpeg's own output is passed through.
func NewConverter(logger *slog.Logger, debug bool) (*Converter, error) {
	ffmpegPath, err := findFFmpeg()
	if err != nil {
		return nil, err
	}
	return newConverter(ffmpegPath, logger, debug), nil
}

func newConverter(ffmpegPath string, logger *slog.Logger, debug bool) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		ffmpegPath: ffmpegPath,
		log:        logger,
		debug:      debug,
	}
}

// findFFmpeg locates the ffmpeg binary on the system
func findFFmpeg() (string, error) {
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path, nil
	}

	// Check common installation locations based on OS
	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/opt/local/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/ffmpeg/bin/ffmpeg",
		}
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("ffmpeg not found. Please install ffmpeg to use the FLAC conversion feature")
}

// flacName returns the FLAC path for a WAV path.
func flacName(wavFile string) string {
	return strings.TrimSuffix(wavFile, filepath.Ext(wavFile)) + ".flac"
}

// ConvertToFlac converts a WAV file to FLAC format and removes the WAV.
func (c *Converter) ConvertToFlac(ctx context.Context, wavFile string) error {
	if _, err := os.Stat(wavFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", wavFile)
	}

	flacFile := flacName(wavFile)
	cmd := exec.CommandContext(ctx,
		c.ffmpegPath,
		"-i", wavFile, // Input file
		"-c:a", "flac", // Use FLAC codec
		"-compression_level", "8", // Maximum compression
		"-y",     // Overwrite output file if it exists
		flacFile, // Output file
	)
	if c.debug {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	c.log.Debug("running ffmpeg", "cmd", cmd.String())

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error converting to FLAC: %w", err)
	}
	if err := os.Remove(wavFile); err != nil {
		return fmt.Errorf("error removing original WAV file: %w", err)
	}
	return nil
}

// ConvertDirectory converts every WAV file under dir to FLAC, running one
// ffmpeg per CPU. Failed files are logged and skipped; the number of failures
// is returned as an error.
func (c *Converter) ConvertDirectory(ctx context.Context, dir string) error {
	var wavFiles []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wav") {
			wavFiles = append(wavFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error finding WAV files: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	failed := make([]bool, len(wavFiles))
	for i, wavFile := range wavFiles {
		g.Go(func() error {
			if err := c.ConvertToFlac(ctx, wavFile); err != nil {
				c.log.Error("flac conversion failed", "file", wavFile, "error", err)
				failed[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d files failed to convert", n, len(wavFiles))
	}
	return nil
}
