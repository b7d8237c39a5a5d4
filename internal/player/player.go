package player

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player sends a Stream to the audio device through oto.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	stream  *Stream
	started bool
	mutex   sync.Mutex
}

// New opens the default audio device at sampleRate for mono float32 output.
func New(sampleRate int, stream *Stream) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("error opening audio device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(stream),
		stream: stream,
	}, nil
}

// Stream returns the stream being played.
func (p *Player) Stream() *Stream {
	return p.stream
}

func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		p.player.Pause()
		p.started = false
	}
}

// Close stops playback and releases the oto player.
func (p *Player) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.player.Close()
}
