package synth

import (
	"math"

	"github.com/cbegin/neonsynth-go/internal/modmatrix"
)

const numNotes = 128

type heldNote struct {
	note     int
	velocity float64
}

// monoStack is the keys held outside the arp, most recent last, no
// duplicates. It is kept in every mode so switching to mono mid-phrase
// falls back to keys that are really down.
type monoStack struct {
	notes [numNotes]heldNote
	n     int
}

func (m *monoStack) push(note int, velocity float64) {
	m.remove(note)
	m.notes[m.n] = heldNote{note, velocity}
	m.n++
}

func (m *monoStack) remove(note int) {
	for i := 0; i < m.n; i++ {
		if m.notes[i].note == note {
			copy(m.notes[i:m.n], m.notes[i+1:m.n])
			m.n--
			return
		}
	}
}

func (m *monoStack) top() (heldNote, bool) {
	if m.n == 0 {
		return heldNote{}, false
	}
	return m.notes[m.n-1], true
}

func (m *monoStack) clear() { m.n = 0 }

// NoteOn starts a note. Velocity is in [0, 1]; zero is a note-off. When the
// arpeggiator is on it takes the key instead.
func (e *Engine) NoteOn(note int, velocity float64) {
	if note < 0 || note >= numNotes {
		return
	}
	if !(velocity > 0) {
		e.NoteOff(note)
		return
	}
	velocity = math.Min(velocity, 1)
	if e.arp.Press(note, velocity) {
		return
	}
	e.held.push(note, velocity)
	e.trigger(note, velocity)
}

// NoteOff releases every active voice holding note. In mono mode releasing
// the sounding key falls back to the most recent key still held.
func (e *Engine) NoteOff(note int) {
	if note < 0 || note >= numNotes {
		return
	}
	if e.arp.Release(note) {
		return
	}
	e.releaseNote(note)
	prev, sounding := e.held.top()
	e.held.remove(note)
	if !e.snap.mono || !sounding || prev.note != note {
		return
	}
	if next, ok := e.held.top(); ok {
		e.trigger(next.note, next.velocity)
	}
}

// AllNotesOff moves every active voice into release.
func (e *Engine) AllNotesOff() {
	e.arp.Reset(arpSink{e})
	e.held.clear()
	for i := range e.voices {
		if e.voices[i].active {
			e.voices[i].release()
		}
	}
}

func (e *Engine) releaseNote(note int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.note == note {
			v.release()
		}
	}
}

// allocate picks a voice: the first inactive one, else one already playing
// note, else the one with the oldest note-on.
func (e *Engine) allocate(note int) int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	for i := range e.voices {
		v := &e.voices[i]
		if v.note == note && v.env[envAmp].Active() {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(e.voices); i++ {
		if e.voices[i].noteOnTime < e.voices[oldest].noteOnTime {
			oldest = i
		}
	}
	return oldest
}

// trigger assigns a voice to note and starts it.
func (e *Engine) trigger(note int, velocity float64) {
	if e.snap.mono {
		for i := range e.voices {
			if e.voices[i].active {
				e.voices[i].release()
			}
		}
	}

	target := noteHz(note)
	start := target
	if e.snap.glide > 0 && e.lastFreq > 0 {
		start = e.lastFreq
		if e.lastVoice >= 0 && e.voices[e.lastVoice].active {
			start = e.voices[e.lastVoice].freq
		}
	}

	idx := e.allocate(note)
	v := &e.voices[idx]
	s := &e.snap
	e.clock++

	v.active = true
	v.note = note
	v.velocity = velocity
	v.aftertouch = 0
	v.noteOnTime = e.clock
	v.dec.Seed(e.rng.Intn(modmatrix.Interval))
	v.mod = modmatrix.Offsets{}
	v.freq = start
	v.target = target

	for i := range v.osc {
		o := &s.osc[i]
		v.wave[i] = o.wave
		v.osc[i].Reset(o.phase, o.keySync)
	}
	v.filter.Reset()
	for i := range v.lfo {
		v.lfo[i].Trigger(s.lfo[i], e.sampleRate)
	}
	for i := range v.env {
		v.env[i].Reset()
		v.env[i].SetSettings(s.env[i])
		v.env[i].NoteOn()
	}

	e.lastFreq = target
	e.lastVoice = idx
}

func noteHz(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}

// arpSink feeds arpeggiator steps straight to the voice pool, bypassing the
// key tracking in NoteOn and NoteOff.
type arpSink struct{ e *Engine }

func (s arpSink) ArpNoteOn(note int, velocity float64) { s.e.trigger(note, velocity) }
func (s arpSink) ArpNoteOff(note int)                  { s.e.releaseNote(note) }
