// Package wav writes rendered wavetables as 8-bit mono PCM WAV files.
package wav

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth    = 8
	numChannels = 1
	pcmFormat   = 1
)

// Encoder handles encoding rendered samples to WAV files
type Encoder struct {
	log     *slog.Logger
	noWrite bool
	prefix  string // prepended to every file name, e.g. the ROM name
}

// NewEncoder creates a new WAV encoder. A nil logger uses slog.Default().
func NewEncoder(logger *slog.Logger, noWrite bool, prefix string) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{
		log:     logger,
		noWrite: noWrite,
		prefix:  prefix,
	}
}

// FileName returns the output file name for a base name.
func (e *Encoder) FileName(baseName string) string {
	baseName = cleanFilename(baseName)
	if e.prefix != "" {
		return fmt.Sprintf("%s - %s.wav", cleanFilename(e.prefix), baseName)
	}
	return baseName + ".wav"
}

// WriteWAV writes unsigned 8-bit samples to outputDir and returns the file name.
func (e *Encoder) WriteWAV(baseName string, pcm []uint8, sampleRate int, outputDir string) (string, error) {
	outputFilename := e.FileName(baseName)
	outputPath := filepath.Join(outputDir, outputFilename)

	if e.noWrite {
		e.log.Debug("skipping write", "file", outputPath, "samples", len(pcm))
		return outputFilename, nil
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("error creating output file: %w", err)
	}
	defer file.Close()

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(file, sampleRate, bitDepth, numChannels, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return "", fmt.Errorf("error writing audio data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("error writing WAV header: %w", err)
	}

	e.log.Debug("wrote wav", "file", outputPath, "samples", len(pcm), "rate", sampleRate)
	return outputFilename, nil
}

var unsafeChars = regexp.MustCompile(`[^0-9a-zA-Z\.,:%\-_#]+`)

// cleanFilename removes invalid characters from a filename (Windows-safe)
func cleanFilename(filename string) string {
	return unsafeChars.ReplaceAllString(filename, "_")
}
