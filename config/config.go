package config

import (
	"os"
	"path/filepath"

	"github.com/es1024/python-staged-programming/common"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/xyproto/env/v2"
)

// Config is the configuration of the compiler and the stencil front end.
type Config struct {
	Toolchain ToolchainConfig `toml:"toolchain"`
	Log       LogConfig       `toml:"log"`
	Stencil   StencilConfig   `toml:"stencil"`
}

// ToolchainConfig names the native tools used to turn LLVM modules into
// loadable shared objects.
type ToolchainConfig struct {
	Opt       string `toml:"opt"`
	Llc       string `toml:"llc"`
	CC        string `toml:"cc"`
	OptLevel  int    `toml:"opt-level"`
	WorkDir   string `toml:"work-dir"`
	KeepTemps bool   `toml:"keep-temps"`
}

// LogConfig controls the reporter.
type LogConfig struct {
	Level    string `toml:"level"`
	DumpIR   bool   `toml:"dump-ir"`
	DumpLLVM bool   `toml:"dump-llvm"`
}

// StencilConfig controls the stencil scheduler.
type StencilConfig struct {
	TileSize int    `toml:"tile-size"`
	Method   string `toml:"method"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Toolchain: ToolchainConfig{
			Opt:      "opt",
			Llc:      "llc",
			CC:       "cc",
			OptLevel: 3,
		},
		Log: LogConfig{
			Level: "silent",
		},
		Stencil: StencilConfig{
			TileSize: 128,
			Method:   "blocked",
		},
	}
}

// Load loads the configuration file at path.  If path is empty, the default
// file name in the working directory is used.  A missing file is not an error:
// the defaults are used instead.  Environment variables override the values of
// the file in either case.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = common.ConfigFileName
	}

	conf := &Config{}

	buff, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(buff, conf); err != nil {
			return nil, errors.Wrapf(err, "error parsing config file `%s`", filepath.Base(path))
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	conf.fillDefaults()
	conf.applyEnv()

	if err := conf.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration in `%s`", path)
	}

	return conf, nil
}

// fillDefaults replaces every unset value with its default.
func (c *Config) fillDefaults() {
	def := Default()

	if c.Toolchain.Opt == "" {
		c.Toolchain.Opt = def.Toolchain.Opt
	}

	if c.Toolchain.Llc == "" {
		c.Toolchain.Llc = def.Toolchain.Llc
	}

	if c.Toolchain.CC == "" {
		c.Toolchain.CC = def.Toolchain.CC
	}

	if c.Toolchain.OptLevel == 0 {
		c.Toolchain.OptLevel = def.Toolchain.OptLevel
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	if c.Stencil.TileSize == 0 {
		c.Stencil.TileSize = def.Stencil.TileSize
	}

	if c.Stencil.Method == "" {
		c.Stencil.Method = def.Stencil.Method
	}
}

// applyEnv applies the `STENCILC_*` environment overrides.
func (c *Config) applyEnv() {
	p := common.EnvPrefix

	// env caches the environment on first use, so reread it to pick up
	// variables set since.
	env.Load()

	c.Toolchain.Opt = env.Str(p+"OPT", c.Toolchain.Opt)
	c.Toolchain.Llc = env.Str(p+"LLC", c.Toolchain.Llc)
	c.Toolchain.CC = env.Str(p+"CC", c.Toolchain.CC)
	c.Toolchain.OptLevel = env.Int(p+"OPT_LEVEL", c.Toolchain.OptLevel)
	c.Toolchain.WorkDir = env.Str(p+"WORK_DIR", c.Toolchain.WorkDir)
	c.Log.Level = env.Str(p+"LOG_LEVEL", c.Log.Level)
	c.Stencil.TileSize = env.Int(p+"TILE_SIZE", c.Stencil.TileSize)
	c.Stencil.Method = env.Str(p+"METHOD", c.Stencil.Method)

	if env.Has(p + "KEEP_TEMPS") {
		c.Toolchain.KeepTemps = env.Bool(p + "KEEP_TEMPS")
	}

	if env.Has(p + "DUMP_IR") {
		c.Log.DumpIR = env.Bool(p + "DUMP_IR")
	}

	if env.Has(p + "DUMP_LLVM") {
		c.Log.DumpLLVM = env.Bool(p + "DUMP_LLVM")
	}
}

// Methods lists the accepted stencil lowering methods.
var Methods = []string{"recompute", "image_wide", "blocked"}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Toolchain.OptLevel < 0 || c.Toolchain.OptLevel > 3 {
		return errors.Errorf("opt-level must be between 0 and 3, got %d", c.Toolchain.OptLevel)
	}

	if c.Stencil.TileSize <= 0 {
		return errors.Errorf("tile-size must be positive, got %d", c.Stencil.TileSize)
	}

	validMethod := false
	for _, m := range Methods {
		if m == c.Stencil.Method {
			validMethod = true
			break
		}
	}

	if !validMethod {
		return errors.Errorf("unknown stencil method `%s`", c.Stencil.Method)
	}

	switch c.Log.Level {
	case "silent", "error", "warn", "verbose":
	default:
		return errors.Errorf("unknown log level `%s`", c.Log.Level)
	}

	return nil
}
