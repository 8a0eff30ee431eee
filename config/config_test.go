package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stencilc.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	// the package directory has no configuration file
	conf, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if diff := pretty.Diff(conf, Default()); len(diff) > 0 {
		t.Errorf("configuration differs from the defaults: %v", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[toolchain]
opt = "opt-15"
opt-level = 2
keep-temps = true

[log]
level = "verbose"
dump-ir = true

[stencil]
tile-size = 64
method = "image_wide"
`)

	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Toolchain.Opt = "opt-15"
	want.Toolchain.OptLevel = 2
	want.Toolchain.KeepTemps = true
	want.Log.Level = "verbose"
	want.Log.DumpIR = true
	want.Stencil.TileSize = 64
	want.Stencil.Method = "image_wide"

	if diff := pretty.Diff(conf, want); len(diff) > 0 {
		t.Errorf("loaded configuration differs: %v", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[stencil]
tile-size = 64
`)

	t.Setenv("STENCILC_TILE_SIZE", "16")
	t.Setenv("STENCILC_METHOD", "recompute")
	t.Setenv("STENCILC_CC", "clang")
	t.Setenv("STENCILC_DUMP_LLVM", "true")

	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if conf.Stencil.TileSize != 16 || conf.Stencil.Method != "recompute" {
		t.Errorf("stencil overrides not applied: %# v", pretty.Formatter(conf.Stencil))
	}

	if conf.Toolchain.CC != "clang" || !conf.Log.DumpLLVM {
		t.Errorf("toolchain overrides not applied: %# v", pretty.Formatter(conf))
	}
}

func TestEnvChangesBetweenLoads(t *testing.T) {
	t.Setenv("STENCILC_TILE_SIZE", "16")
	if conf, err := Load(""); err != nil || conf.Stencil.TileSize != 16 {
		t.Fatalf("first load: %v, %v", conf, err)
	}

	t.Setenv("STENCILC_TILE_SIZE", "32")
	t.Setenv("STENCILC_KEEP_TEMPS", "1")

	conf, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if conf.Stencil.TileSize != 32 || !conf.Toolchain.KeepTemps {
		t.Errorf("later environment changes ignored: %# v", pretty.Formatter(conf))
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":     "[toolchain\nopt = ",
		"opt level":  "[toolchain]\nopt-level = 7\n",
		"tile size":  "[stencil]\ntile-size = -4\n",
		"method":     "[stencil]\nmethod = \"tiled\"\n",
		"log level":  "[log]\nlevel = \"loud\"\n",
		"wrong type": "[stencil]\ntile-size = \"big\"\n",
	}

	for name, content := range tests {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("an explicitly named missing file must be an error")
	}
}
