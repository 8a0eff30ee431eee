package cmd

import (
	"path/filepath"
	"testing"
)

func TestRunExitStatus(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ppm")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version"}, 0},
		{"ir", []string{"ir", "--method=blocked", "--passes=2"}, 0},
		{"missing input", []string{"blur", missing}, 1},
		{"zero passes", []string{"blur", "--passes=0", missing}, 1},
		{"unknown method", []string{"ir", "--method=tiled"}, 1},
		{"unknown subcommand", []string{"sharpen"}, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := append([]string{"stencilc", "--loglevel=silent"}, test.args...)
			if got := run(args); got != test.want {
				t.Errorf("run(%q) = %d, want %d", args, got, test.want)
			}
		})
	}
}
