package param

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Patch is the on-disk form of a parameter snapshot.
type Patch struct {
	Name    string             `yaml:"name,omitempty"`
	Comment string             `yaml:"comment,omitempty"`
	Params  map[string]float64 `yaml:"params"`
}

// Capture builds a patch from the registry's current values.
func Capture(r *Registry, name string) *Patch {
	return &Patch{Name: name, Params: r.Snapshot()}
}

// ApplyTo writes the patch into r.
func (p *Patch) ApplyTo(r *Registry) error {
	if err := r.Apply(p.Params); err != nil {
		return fmt.Errorf("apply patch %q: %w", p.Name, err)
	}
	return nil
}

func DecodePatch(rd io.Reader) (*Patch, error) {
	var p Patch
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return &Patch{Params: map[string]float64{}}, nil
		}
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if p.Params == nil {
		p.Params = map[string]float64{}
	}
	return &p, nil
}

func (p *Patch) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	return enc.Close()
}

func ReadPatchFile(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}
	return DecodePatch(bytes.NewReader(data))
}

func WritePatchFile(path string, p *Patch) error {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write patch: %w", err)
	}
	return nil
}
