package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/cbegin/neonsynth-go"
)

// Two rows of a piano: the home row is white keys from C, the row above
// holds the sharps.
const keyboardLayout = "awsedftgyhujkolp;'"

// A terminal reports no key releases, so every press plays a note of fixed
// length.
const keyboardGate = 300 * time.Millisecond

// keyNote maps a key to a semitone above the base octave.
func keyNote(b byte) (int, bool) {
	i := strings.IndexByte(keyboardLayout, b)
	return i, i >= 0
}

type keyPlayer struct {
	in     *neonsynth.Instrument
	mu     sync.Mutex
	timers map[int]*time.Timer
	octave int
}

func (k *keyPlayer) press(semitone int) {
	note := 12*(k.octave+1) + semitone
	if note < 0 || note > 127 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if t, ok := k.timers[note]; ok {
		t.Stop()
		k.in.NoteOff(note)
	}
	k.in.NoteOn(note, 0.8)
	k.timers[note] = time.AfterFunc(keyboardGate, func() {
		k.mu.Lock()
		delete(k.timers, note)
		k.mu.Unlock()
		k.in.NoteOff(note)
	})
}

func (k *keyPlayer) stopAll() {
	k.mu.Lock()
	for n, t := range k.timers {
		t.Stop()
		delete(k.timers, n)
	}
	k.mu.Unlock()
	k.in.AllNotesOff()
}

// playKeyboard reads raw key presses until q, Ctrl-C or ctx ends. z and x
// shift the octave.
func playKeyboard(ctx context.Context, in *neonsynth.Instrument, out io.Writer) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("--keyboard needs a terminal on stdin")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprintf(out, "keys %s play, z/x octave, q quits\r\n", keyboardLayout)
	k := &keyPlayer{in: in, timers: map[int]*time.Timer{}, octave: 4}
	defer k.stopAll()

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			switch b {
			case 'q', 3: // Ctrl-C arrives as a byte in raw mode
				return nil
			case 'z':
				k.octave = max(k.octave-1, -1)
				fmt.Fprintf(out, "octave %d\r\n", k.octave)
			case 'x':
				k.octave = min(k.octave+1, 9)
				fmt.Fprintf(out, "octave %d\r\n", k.octave)
			default:
				if s, ok := keyNote(b); ok {
					k.press(s)
				}
			}
		}
	}
}
