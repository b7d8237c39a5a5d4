package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/term"

	"github.com/mattetti/ppg-wavetables/internal/player"
	"github.com/mattetti/ppg-wavetables/internal/rom"
	"github.com/mattetti/ppg-wavetables/internal/synth"
)

const (
	sweepStep    = 0.25
	positionStep = 0.25
)

// play loads a ROM and plays it until q is pressed. Keys are read from the
// terminal in raw mode.
func play(logger *slog.Logger, path string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("-play needs an interactive terminal")
	}

	p := rom.NewParser(logger)
	img, err := p.ReadFile(path)
	if err != nil {
		return err
	}
	bank, err := p.Load(img)
	if err != nil {
		return err
	}
	s, err := synth.New(bank.Waves, bank.Usable()...)
	if err != nil {
		return err
	}
	numbers := bank.Numbers()

	pos := clampSweep(sweep, s.Tables())
	cur := synth.ClampPosition(slot, s.Slots())
	voice := synth.NewVoice(s, frequency, float64(sampleRate))
	voice.SetSweep(pos)
	voice.SetPosition(cur)
	stream := player.NewStream(voice, 0.5)

	out, err := player.New(sampleRate, stream)
	if err != nil {
		return err
	}
	defer out.Close()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("error setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	// raw mode needs explicit carriage returns
	fmt.Printf("Playing %s, %d tables. +/- sweep, [/] wave position, q quits.\r\n", img.Filename, s.Tables())
	if skipped := skippedTables(bank); len(skipped) > 0 {
		fmt.Printf("Tables %v failed to decode and are left out of the sweep.\r\n", skipped)
	}
	fmt.Printf("%s\r\n", status(numbers, pos, cur))
	out.Start()

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch buf[0] {
		case 'q', 'Q', 3: // 3 is ctrl-c in raw mode
			fmt.Print("\r\n")
			return nil
		case '+', '=':
			pos = clampSweep(pos+sweepStep, s.Tables())
			stream.SetSweep(pos)
		case '-', '_':
			pos = clampSweep(pos-sweepStep, s.Tables())
			stream.SetSweep(pos)
		case ']':
			cur = synth.ClampPosition(cur+positionStep, s.Slots())
			stream.SetPosition(cur)
		case '[':
			cur = synth.ClampPosition(cur-positionStep, s.Slots())
			stream.SetPosition(cur)
		default:
			continue
		}
		fmt.Printf("%s\r\n", status(numbers, pos, cur))
	}
}

func clampSweep(pos float64, tables int) float64 {
	return synth.ClampPosition(pos, tables)
}

// skippedTables lists the tables of bank that failed to decode, in order.
func skippedTables(bank *rom.Bank) []int {
	var skipped []int
	for i := range bank.Errors {
		skipped = append(skipped, i)
	}
	slices.Sort(skipped)
	return skipped
}

// status describes the sweep in ROM table numbers. Sweep positions count
// decoded tables only, so numbers maps each one back to its table.
func status(numbers []int, sweep, position float64) string {
	i := int(sweep)
	table := fmt.Sprintf("table %02d", numbers[i])
	if frac := sweep - float64(i); frac > 0 && i+1 < len(numbers) {
		table = fmt.Sprintf("table %02d > %02d", numbers[i], numbers[i+1])
	}
	return fmt.Sprintf("sweep %5.2f (%s)  wave %5.2f", sweep, table, position)
}
