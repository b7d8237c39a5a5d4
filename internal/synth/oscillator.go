package synth

// Oscillator is a phase accumulator producing a phase in [0,1) per sample.
type Oscillator struct {
	phase      float64
	inc        float64
	sampleRate float64
}

// NewOscillator returns an oscillator at freq Hz for the given sample rate.
func NewOscillator(freq, sampleRate float64) *Oscillator {
	o := &Oscillator{sampleRate: sampleRate}
	o.SetFrequency(freq)
	return o
}

// SetFrequency changes pitch without resetting the phase.
func (o *Oscillator) SetFrequency(freq float64) {
	if o.sampleRate <= 0 {
		o.inc = 0
		return
	}
	o.inc = freq / o.sampleRate
}

// Next returns the current phase and advances by one sample.
func (o *Oscillator) Next() float64 {
	p := o.phase
	o.phase = Wrap(o.phase + o.inc)
	return p
}
