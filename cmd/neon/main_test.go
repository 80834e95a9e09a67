package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cbegin/neonsynth-go/internal/param"
)

func TestKeyNote(t *testing.T) {
	cases := []struct {
		key  byte
		want int
		ok   bool
	}{
		{'a', 0, true},
		{'w', 1, true},
		{'k', 12, true},
		{'m', 0, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			got, ok := keyNote(tc.key)
			if ok != tc.ok || (ok && got != tc.want) {
				t.Fatalf("keyNote(%q) = %d, %v", tc.key, got, ok)
			}
		})
	}
}

func TestParamsCommands(t *testing.T) {
	cases := []struct {
		args []string
		want []string
	}{
		{[]string{"params"}, []string{"Ladder Filter/Cutoff", "FX/Mod Type", "4 choices"}},
		{[]string{"params", "dump"}, []string{"name: init", "Amp Env/Release: 500"}},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tc.args)
			if err := rootCmd.Execute(); err != nil {
				t.Fatal(err)
			}
			for _, w := range tc.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output lacks %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestDescribeRange(t *testing.T) {
	reg := param.NewRegistry()
	if err := reg.Register(param.Float("T", "F", -1, 2, 0), param.Bool("T", "B", false)); err != nil {
		t.Fatal(err)
	}
	all := reg.All()
	if got := describeRange(all[0]); got != "-1..2" {
		t.Errorf("float range %q", got)
	}
	if got := describeRange(all[1]); got != "Off|On" {
		t.Errorf("bool range %q", got)
	}
}

func TestPortFlagExplainsDriver(t *testing.T) {
	f := playCmd.Flags().Lookup("port")
	if f == nil {
		t.Fatal("no --port flag")
	}
	for _, w := range []string{"driver", "--keyboard"} {
		if !strings.Contains(f.Usage, w) {
			t.Errorf("--port help %q lacks %q", f.Usage, w)
		}
	}
}
