package synth

// Voice plays a Synth from its own oscillator. Sweep and wave position
// changes are queued and take effect at the next zero-crossing of the
// waveform (phase 0 or 0.5), so switching tables never cuts a cycle
// mid-swing.
//
// A Voice is not safe for concurrent use.
type Voice struct {
	synth *Synth
	osc   *Oscillator

	sweep     float64
	lastPhase float64
	started   bool

	pendingSweep float64
	hasSweep     bool
	pendingPos   float64
	hasPos       bool
}

// NewVoice drives s at freq Hz for the given output sample rate.
func NewVoice(s *Synth, freq, sampleRate float64) *Voice {
	return &Voice{synth: s, osc: NewOscillator(freq, sampleRate)}
}

// Sweep returns the sweep position currently being rendered.
func (v *Voice) Sweep() float64 {
	return v.sweep
}

// Slot returns the slot at or below the wave position being rendered.
func (v *Voice) Slot() int {
	return v.synth.Slot()
}

// Position returns the wave position currently being rendered.
func (v *Voice) Position() float64 {
	return v.synth.Position()
}

// SetFrequency retunes the voice immediately.
func (v *Voice) SetFrequency(freq float64) {
	v.osc.SetFrequency(freq)
}

// SetSweep queues a new sweep position.
func (v *Voice) SetSweep(pos float64) {
	v.pendingSweep, v.hasSweep = pos, true
}

// SetSlot queues a new slot. Out of range slots are clamped.
func (v *Voice) SetSlot(slot int) {
	v.SetPosition(float64(slot))
}

// SetPosition queues a fractional wave position, clamped to the table.
func (v *Voice) SetPosition(pos float64) {
	v.pendingPos, v.hasPos = ClampPosition(pos, v.synth.Slots()), true
}

// Pending reports whether a sweep or wave position change is waiting for a
// zero-crossing.
func (v *Voice) Pending() bool {
	return v.hasSweep || v.hasPos
}

// Next renders one sample and advances the oscillator.
func (v *Voice) Next() float64 {
	return v.Render(v.osc.Next())
}

// Render renders one sample at an externally supplied phase, applying queued
// changes when phase is at or has just crossed 0 or 0.5.
func (v *Voice) Render(phase float64) float64 {
	phase = Wrap(phase)
	if v.Pending() && v.crossed(phase) {
		if v.hasSweep {
			v.sweep, v.hasSweep = v.pendingSweep, false
		}
		if v.hasPos {
			v.synth.SetPosition(v.pendingPos)
			v.hasPos = false
		}
	}
	v.lastPhase, v.started = phase, true
	return v.synth.Render(phase, v.sweep)
}

func (v *Voice) crossed(phase float64) bool {
	switch {
	case !v.started, phase == 0, phase == 0.5:
		return true
	case phase < v.lastPhase:
		// wrapped past 1
		return true
	default:
		return v.lastPhase < 0.5 && phase >= 0.5
	}
}
