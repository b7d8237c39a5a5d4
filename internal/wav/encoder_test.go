package wav

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV(t *testing.T) {
	dir := t.TempDir()
	pcm := []uint8{128, 255, 128, 1, 0, 64, 192, 128}

	name, err := NewEncoder(nil, false, "").WriteWAV("table 03", pcm, 22050, dir)
	if err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if name != "table_03.wav" {
		t.Errorf("name = %q, want table_03.wav", name)
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}
	if d.SampleRate != 22050 || d.BitDepth != 8 || d.NumChans != 1 || d.WavAudioFormat != 1 {
		t.Errorf("header = rate %d depth %d chans %d format %d, want 22050/8/1/1",
			d.SampleRate, d.BitDepth, d.NumChans, d.WavAudioFormat)
	}

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(raw, pcm) {
		t.Errorf("file does not end with the PCM data: % x", raw)
	}
}

func TestWriteWAVNoWrite(t *testing.T) {
	dir := t.TempDir()
	name, err := NewEncoder(nil, true, "waveterm A").WriteWAV("table 00", []uint8{128}, 44100, dir)
	if err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if name != "waveterm_A - table_00.wav" {
		t.Errorf("name = %q", name)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no-write mode created %d files", len(entries))
	}
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"table 00":    "table_00",
		"a/b\\c":      "a_b_c",
		"ok-name_1.x": "ok-name_1.x",
		"wave  term":  "wave_term",
	}
	for in, want := range tests {
		if got := cleanFilename(in); got != want {
			t.Errorf("cleanFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
