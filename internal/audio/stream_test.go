package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

type rampSource struct{ n int }

func (s *rampSource) RenderBlock(dst []float32) {
	for i := range dst {
		dst[i] = float32(s.n) / 100
		s.n++
	}
}

func TestStreamReaderEncodesFrames(t *testing.T) {
	r := NewStreamReader(&rampSource{})

	p := make([]byte, 8*4+3) // trailing partial frame is left alone
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 32 {
		t.Fatalf("read %d bytes, want 32", n)
	}
	for i := 0; i < 8; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) / 100; got != want {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
}

func TestStreamReaderShortRead(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	if n, err := r.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestStreamReaderClose(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(make([]byte, 64)); err != io.EOF {
		t.Fatalf("read after close: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("jack", 48000, &rampSource{}); err == nil {
		t.Fatal("expected an error")
	}
}
