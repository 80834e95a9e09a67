package osc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-audio/wav"
)

const twoPi = math.Pi * 2

// TableSize is the length of generated single-cycle tables.
const TableSize = 2048

var ErrEmptyTable = errors.New("osc: table has no samples")

// Table is an immutable single-cycle waveform.
type Table struct {
	Name string
	data []float64
}

// NewTable copies samples and peak-normalizes them to [-1, 1].
func NewTable(name string, samples []float64) (*Table, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, name)
	}
	data := make([]float64, len(samples))
	peak := 0.0
	for i, s := range samples {
		if s != s || math.IsInf(s, 0) {
			s = 0
		}
		data[i] = s
		peak = math.Max(peak, math.Abs(s))
	}
	if peak > 0 {
		for i := range data {
			data[i] /= peak
		}
	}
	return &Table{Name: name, data: data}, nil
}

func (t *Table) Len() int { return len(t.data) }

// Lookup reads the table at phase p in [0, 1) with linear interpolation.
func (t *Table) Lookup(p float64) float64 {
	n := len(t.data)
	pos := p * float64(n)
	i := int(pos)
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	frac := pos - float64(i)
	j := i + 1
	if j >= n {
		j = 0
	}
	return t.data[i] + (t.data[j]-t.data[i])*frac
}

func generate(name string, f func(p float64) float64) *Table {
	s := make([]float64, TableSize)
	for i := range s {
		s[i] = f(float64(i) / TableSize)
	}
	t, _ := NewTable(name, s)
	return t
}

var fallbackTable = generate("Basic Saw", func(p float64) float64 { return 2*p - 1 })

// Fallback is the table used whenever a selection cannot be resolved.
func Fallback() *Table { return fallbackTable }

// Bank is an ordered, immutable set of tables.
type Bank struct {
	tables []*Table
}

func NewBank(tables ...*Table) *Bank {
	b := &Bank{}
	for _, t := range tables {
		if t != nil {
			b.tables = append(b.tables, t)
		}
	}
	return b
}

// DefaultBank holds generated basic shapes.
func DefaultBank() *Bank {
	return NewBank(
		generate("Sine", func(p float64) float64 { return math.Sin(twoPi * p) }),
		fallbackTable,
		generate("Square", func(p float64) float64 {
			if p < 0.5 {
				return 1
			}
			return -1
		}),
		generate("Triangle", func(p float64) float64 { return 1 - 4*math.Abs(p-0.5) }),
		generate("Organ", func(p float64) float64 {
			return math.Sin(twoPi*p) + 0.5*math.Sin(2*twoPi*p) + 0.25*math.Sin(4*twoPi*p)
		}),
	)
}

func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.tables)
}

// Table returns table i, or the fallback when i is out of range.
func (b *Bank) Table(i int) *Table {
	if b == nil || i < 0 || i >= len(b.tables) {
		return fallbackTable
	}
	return b.tables[i]
}

func (b *Bank) Names() []string {
	names := make([]string, b.Len())
	for i := range names {
		names[i] = b.tables[i].Name
	}
	return names
}

// DecodeWAVTable reads the first channel of a WAV file as one cycle.
func DecodeWAVTable(r io.ReadSeeker, name string) (*Table, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("osc: %s is not a valid wav file", name)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("osc: decode %s: %w", name, err)
	}
	ch := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		ch = buf.Format.NumChannels
	}
	samples := make([]float64, 0, len(buf.Data)/ch)
	for i := 0; i < len(buf.Data); i += ch {
		samples = append(samples, float64(buf.Data[i]))
	}
	return NewTable(name, samples)
}

// LoadBankDir loads every .wav file in dir, sorted by file name. Files that
// fail to decode are skipped and reported in the returned error alongside
// the bank of the ones that worked.
func LoadBankDir(dir string) (*Bank, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("osc: read bank dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	var tables []*Table
	var errs []error
	for _, n := range names {
		t, err := loadTableFile(filepath.Join(dir, n))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, t)
	}
	return NewBank(tables...), errors.Join(errs...)
}

func loadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeWAVTable(f, name)
}
