package effects

import (
	"math"
	"testing"

	"github.com/cbegin/neonsynth-go/internal/param"
	"github.com/cbegin/neonsynth-go/internal/synth"
)

var _ synth.Effects = (*Rack)(nil)

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 100)
	d.SetFeedback(0.5)
	d.SetMix(0.5)
	// Feed a pulse and check delayed output appears
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected delayed output, got l=%f r=%f", l, r)
	}
}

func TestDelayTimeChange(t *testing.T) {
	d := NewDelay(1000, MaxDelayMs)
	d.SetTime(250)
	d.SetMix(1)
	if d.Length() != 250 {
		t.Fatalf("length %d, want 250", d.Length())
	}
	d.Process(1, 1)
	for i := 1; i < 250; i++ {
		if l, _ := d.Process(0, 0); l != 0 {
			t.Fatalf("echo early at %d", i)
		}
	}
	if l, _ := d.Process(0, 0); l != 1 {
		t.Fatalf("echo %f, want 1", l)
	}

	d.SetTime(1e9)
	if d.Length() != 2000 {
		t.Fatalf("length %d, want the whole buffer", d.Length())
	}
}

func TestReverbProducesOutput(t *testing.T) {
	r := NewReverb(44100)
	r.SetMix(0.5)
	// Feed impulse
	r.Process(1.0, 1.0)
	// After some samples, reverb tail should be present
	var maxOut float32
	for i := 0; i < 10000; i++ {
		l, _ := r.Process(0, 0)
		maxOut = max(maxOut, float32(math.Abs(float64(l))))
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestReverbZeroWidthIsMono(t *testing.T) {
	r := NewReverb(44100)
	r.SetMix(1)
	r.SetWidth(0)
	r.SetSize(0.9)
	r.Process(1, 1)
	for i := 0; i < 5000; i++ {
		l, rr := r.Process(0, 0)
		if math.Abs(float64(l-rr)) > 1e-6 {
			t.Fatalf("sample %d: l=%f r=%f", i, l, rr)
		}
	}
}

func TestReverbSizeChangeKeepsRunning(t *testing.T) {
	r := NewReverb(48000)
	r.SetMix(1)
	for i := 0; i < 20000; i++ {
		if i%1000 == 0 {
			r.SetSize(float32(i%7) / 6)
		}
		l, rr := r.Process(float32(math.Sin(float64(i)*0.05)), 0)
		if l != l || rr != rr || math.Abs(float64(l)) > 1e3 {
			t.Fatalf("unstable at %d: %f %f", i, l, rr)
		}
	}
}

func TestChorusDryWhenMixZero(t *testing.T) {
	c := NewChorus(44100)
	for i := 0; i < 1000; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := c.Process(in, -in)
		if l != in || r != -in {
			t.Fatalf("sample %d altered with mix 0", i)
		}
	}
}

func TestChorusDelaysSignal(t *testing.T) {
	c := NewChorus(1000)
	c.SetMix(1)
	c.SetCentreDelay(20)
	c.SetDepth(0.5)
	first := -1
	l, _ := c.Process(1, 1)
	if l != 0 {
		t.Fatalf("wet output at the impulse: %f", l)
	}
	for i := 1; i < 40; i++ {
		if l, _ := c.Process(0, 0); l != 0 && first < 0 {
			first = i
		}
	}
	// 20 ms centre, swept by up to half.
	if first < 9 || first > 31 {
		t.Fatalf("impulse came back after %d samples", first)
	}
}

func TestPhaserStable(t *testing.T) {
	p := NewPhaser(44100)
	p.SetMix(1)
	p.SetDepth(1)
	p.SetFeedback(0.95)
	p.SetRate(5)
	for i := 0; i < 44100; i++ {
		in := float32(math.Sin(float64(i) * 0.03))
		l, r := p.Process(in, in)
		if l != l || r != r || math.Abs(float64(l)) > 100 || math.Abs(float64(r)) > 100 {
			t.Fatalf("sample %d: %f %f", i, l, r)
		}
	}
}

func TestPhaserDryWhenMixZero(t *testing.T) {
	p := NewPhaser(44100)
	for i := 0; i < 100; i++ {
		in := float32(i%10) / 10
		if l, r := p.Process(in, in); l != in || r != in {
			t.Fatalf("sample %d altered with mix 0", i)
		}
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	a := NewDelay(1000, 10)
	b := NewDelay(1000, 5)
	a.SetMix(1)
	b.SetMix(1)
	c := NewChain(a, b)
	buf := make([]float32, 2*20)
	buf[0], buf[1] = 1, 1
	c.ProcessBlock(buf)
	for i := 0; i < 20; i++ {
		want := float32(0)
		if i == 15 {
			want = 1
		}
		if buf[2*i] != want || buf[2*i+1] != want {
			t.Fatalf("frame %d: %f %f, want %f", i, buf[2*i], buf[2*i+1], want)
		}
	}
}

func TestEQ5BandUnityGain(t *testing.T) {
	eq := NewEQ5Band(44100)
	// With unity gains, output should approximate input after warmup
	for i := 0; i < 1000; i++ {
		eq.Process(0.5, 0.5)
	}
	l, r := eq.Process(0.5, 0.5)
	if math.Abs(float64(l)-0.5) > 0.01 || math.Abs(float64(r)-0.5) > 0.01 {
		t.Errorf("expected ~0.5 with unity gains, got l=%f r=%f", l, r)
	}
}

func TestEQ5BandCutsLowBand(t *testing.T) {
	eq := NewEQ5Band(44100)
	eq.SetGainDB(0, -120)
	var l float32
	for i := 0; i < 5000; i++ {
		l, _ = eq.Process(0.5, 0.5)
	}
	if math.Abs(float64(l)) > 0.05 {
		t.Errorf("DC should sit in the cut low band, got %f", l)
	}
	if g := eq.Gain(0); g > 1e-5 {
		t.Errorf("gain %f", g)
	}
	eq.SetFlat()
	if g := eq.Gain(0); g != 1 {
		t.Errorf("flat gain %f", g)
	}
}

func TestCompressorReducesLoud(t *testing.T) {
	c := NewCompressor(44100, -10, 4, 1, 50, 0)
	// Feed loud signal repeatedly to let envelope settle
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("compressor should reduce loud signals, got %f", out)
	}
}

func TestLimiterHoldsCeiling(t *testing.T) {
	c := NewLimiter(44100)
	var out float32
	for i := 0; i < 4410; i++ {
		out, _ = c.Process(2, 2)
	}
	if out > 1.1 {
		t.Errorf("limited output %f", out)
	}
	c.Reset()
	if l, _ := c.Process(0.5, 0.5); l != 0.5 {
		t.Errorf("quiet signal changed: %f", l)
	}
}

func newRegistry(t *testing.T, values map[string]float64) *param.Registry {
	t.Helper()
	reg := param.NewRegistry()
	if err := RegisterParams(reg); err != nil {
		t.Fatal(err)
	}
	if err := reg.Apply(values); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRackTransparentByDefault(t *testing.T) {
	reg := newRegistry(t, nil)
	r := NewRack()
	r.Prepare(48000, 64)
	buf := make([]float32, 2*2048)
	want := make([]float32, len(buf))
	for i := range buf {
		buf[i] = float32(0.5 * math.Sin(float64(i/2)*0.01))
		want[i] = buf[i]
	}
	for off := 0; off < len(buf); off += 128 {
		r.Update(reg, 120)
		r.ProcessBlock(buf[off : off+128])
	}
	for i := range buf {
		if math.Abs(float64(buf[i]-want[i])) > 1e-5 {
			t.Fatalf("sample %d: %f, want %f", i, buf[i], want[i])
		}
	}
}

func TestRackDelayTime(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]float64
		bpm    float64
		want   int
	}{
		{"free", map[string]float64{"FX/Dly Time": 250}, 120, 250},
		{"synced quarter", map[string]float64{"FX/Dly Sync": 1, "FX/Dly Note": 4}, 120, 500},
		{"synced eighth", map[string]float64{"FX/Dly Sync": 1, "FX/Dly Note": 3}, 150, 200},
		{"clamped", map[string]float64{"FX/Dly Sync": 1, "FX/Dly Note": 8}, 20, 2000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRack()
			r.Prepare(1000, 64)
			r.Update(newRegistry(t, tc.values), tc.bpm)
			if got := r.DelayLength(); got != tc.want {
				t.Fatalf("delay %d samples, want %d", got, tc.want)
			}
		})
	}
}

func TestRackDelayEcho(t *testing.T) {
	reg := newRegistry(t, map[string]float64{
		"FX/Dly Time": 100,
		"FX/Dly Mix":  1,
		"FX/Dly FB":   0,
	})
	r := NewRack()
	r.Prepare(1000, 64)
	r.Update(reg, 120)
	buf := make([]float32, 2*200)
	buf[0], buf[1] = 0.5, 0.5
	r.ProcessBlock(buf)
	if math.Abs(float64(buf[200])-0.5) > 1e-3 {
		t.Fatalf("echo %f at 100 ms", buf[200])
	}
	if buf[0] != 0 {
		t.Fatalf("dry signal leaked with mix 1: %f", buf[0])
	}
}

func TestRackUnpreparedIsNoop(t *testing.T) {
	r := NewRack()
	r.Update(newRegistry(t, nil), 120)
	buf := []float32{0.25, -0.25}
	r.ProcessBlock(buf)
	if buf[0] != 0.25 || buf[1] != -0.25 || r.Prepared() {
		t.Fatal("unprepared rack touched the buffer")
	}
}

func TestSpecsRegisterCleanly(t *testing.T) {
	reg := newRegistry(t, nil)
	if len(reg.All()) != len(Specs()) {
		t.Fatalf("registered %d of %d", len(reg.All()), len(Specs()))
	}
	if err := RegisterParams(reg); err == nil {
		t.Fatal("registering twice should fail")
	}
}
