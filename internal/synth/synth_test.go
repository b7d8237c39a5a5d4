package synth

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/mattetti/ppg-wavetables/internal/waves"
	"github.com/mattetti/ppg-wavetables/internal/wavetable"
)

// flatStore builds waveforms that hold a constant byte level each.
func flatStore(t *testing.T, levels ...byte) *waves.Store {
	t.Helper()
	var data []byte
	for _, l := range levels {
		data = append(data, bytes.Repeat([]byte{l}, waves.WaveLen)...)
	}
	s, err := waves.NewStore(waves.NewMemorySource(data))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

// constTable decodes a table that plays waveform wave in every slot.
func constTable(t *testing.T, store *waves.Store, wave byte) *wavetable.Table {
	t.Helper()
	table, _, err := wavetable.NewDecoder(store, nil).Decode([]byte{0x00, wave, 0x3C}, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return table
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestRenderAllZeroWaveform(t *testing.T) {
	store := flatStore(t, 0x00)
	s, err := New(store, constTable(t, store, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Render(0.25, 0); got != -1 {
		t.Errorf("Render(0.25, 0) = %v, want -1", got)
	}
}

func TestRenderSweep(t *testing.T) {
	// -1, 0, +0.5
	store := flatStore(t, 0x00, 0x80, 0xC0)
	s, err := New(store, constTable(t, store, 0), constTable(t, store, 1), constTable(t, store, 2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		sweep float64
		want  float64
	}{
		{-5, -1},
		{math.NaN(), -1},
		{0, -1},
		{0.25, -0.75},
		{1, 0},
		{1.5, 0.25},
		{2, 0.5},
		{7, 0.5},
	}
	for _, tt := range tests {
		if got := s.Render(0.1, tt.sweep); !closeTo(got, tt.want) {
			t.Errorf("Render(0.1, %v) = %v, want %v", tt.sweep, got, tt.want)
		}
	}

	// phase outside [0,1) wraps
	if got, want := s.Render(1.1, 2), s.Render(0.1, 2); !closeTo(got, want) {
		t.Errorf("Render(1.1) = %v, want %v", got, want)
	}
	if got, want := s.Render(-0.4, 2), s.Render(0.6, 2); !closeTo(got, want) {
		t.Errorf("Render(-0.4) = %v, want %v", got, want)
	}
}

func TestSetSlot(t *testing.T) {
	store := flatStore(t, 0x00, 0xFF)
	table, _, err := wavetable.NewDecoder(store, nil).Decode([]byte{0x00, 0x00, 0x00, 0x01, 0x3C}, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, err := New(store, table)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Slots() != 61 || s.Tables() != 1 {
		t.Fatalf("Slots() = %d Tables() = %d", s.Slots(), s.Tables())
	}

	if err := s.SetSlot(61); !errors.Is(err, waves.ErrInvalidIndex) {
		t.Errorf("SetSlot(61) error = %v, want ErrInvalidIndex", err)
	}
	if err := s.SetSlot(60); err != nil {
		t.Fatalf("SetSlot(60): %v", err)
	}
	if got, want := s.Render(0.1, 0), 127.0/128; !closeTo(got, want) {
		t.Errorf("slot 60 = %v, want %v", got, want)
	}
	if err := s.SetSlot(30); err != nil {
		t.Fatalf("SetSlot(30): %v", err)
	}
	if got, want := s.Render(0.1, 0), 0.5*-1+0.5*127.0/128; !closeTo(got, want) {
		t.Errorf("slot 30 = %v, want %v", got, want)
	}
}

func TestSetPosition(t *testing.T) {
	// slot 0 at -1 rising linearly to slot 60 at 127/128
	store := flatStore(t, 0x00, 0xFF)
	table, _, err := wavetable.NewDecoder(store, nil).Decode([]byte{0x00, 0x00, 0x00, 0x01, 0x3C}, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, err := New(store, table)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	at := func(pos float64) float64 {
		return -1 + pos/60*(1+127.0/128)
	}

	tests := []struct {
		pos      float64
		wantPos  float64
		wantSlot int
	}{
		{30.5, 30.5, 30},
		{0.25, 0.25, 0},
		{59.75, 59.75, 59},
		{-2, 0, 0},
		{math.NaN(), 0, 0},
		{99, 60, 60},
	}
	for _, tt := range tests {
		s.SetPosition(tt.pos)
		if s.Position() != tt.wantPos || s.Slot() != tt.wantSlot {
			t.Errorf("SetPosition(%v): Position() = %v Slot() = %d, want %v and %d", tt.pos, s.Position(), s.Slot(), tt.wantPos, tt.wantSlot)
		}
		if got := s.Render(0.1, 0); !closeTo(got, at(tt.wantPos)) {
			t.Errorf("SetPosition(%v): Render = %v, want %v", tt.pos, got, at(tt.wantPos))
		}
	}
}

func TestNewErrors(t *testing.T) {
	store := flatStore(t, 0x80)
	other := flatStore(t, 0x80)
	short, _, err := (&wavetable.Decoder{Store: store, SlotCount: 8}).Decode([]byte{0x00, 0x00, 0x07}, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if _, err := New(store); !errors.Is(err, waves.ErrInvalidIndex) {
		t.Errorf("no tables error = %v", err)
	}
	if _, err := New(nil, constTable(t, store, 0)); err == nil {
		t.Error("nil store accepted")
	}
	if _, err := New(store, constTable(t, store, 0), nil); !errors.Is(err, waves.ErrInvalidIndex) {
		t.Errorf("nil table error = %v", err)
	}
	if _, err := New(store, constTable(t, other, 0)); err == nil {
		t.Error("table from another store accepted")
	}
	if _, err := New(store, constTable(t, store, 0), short); !errors.Is(err, waves.ErrInvalidIndex) {
		t.Errorf("mismatched slot counts error = %v", err)
	}
}

func TestToPCM8(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 128},
		{-1, 1},
		{1, 255},
		{0.5, 192},
		{-0.5, 64},
		{3, 255},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := ToPCM8(tt.in); got != tt.want {
			t.Errorf("ToPCM8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{0.25, 0.25},
		{1, 0},
		{2.75, 0.75},
		{-0.25, 0.75},
		{-1e-18, 0},
	}
	for _, tt := range tests {
		got := Wrap(tt.in)
		if !closeTo(got, tt.want) || got < 0 || got >= 1 {
			t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
