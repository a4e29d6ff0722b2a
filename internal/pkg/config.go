// Package pkg loads the VM's boot configuration: arena size, stack size,
// max frame depth, classpath roots, and log level, read from a vm.toml
// found by walking upward from the working directory.
package pkg

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const ConfigFileName = "vm.toml"

// Config is the root of a vm.toml document.
type Config struct {
	VM        VMConfig `toml:"vm"`
	Classpath []string `toml:"classpath"`
}

// VMConfig sizes the pieces the VM parameterizes per machine instead of
// compiling in, plus a log verbosity setting. cmd/gojvm reads ArenaSize and
// StackSize; MaxFrameDepth and LogLevel are loaded and defaulted, and
// nothing else in the repository reads them.
type VMConfig struct {
	// ArenaSize is the per-thread bump-allocation arena size in slots.
	ArenaSize int `toml:"arena_size"`

	// StackSize is the per-thread operand stack size in slots.
	StackSize int `toml:"stack_size"`

	// MaxFrameDepth is a call-depth setting; Load replaces 0 with the
	// default (1024). prepareInvoke does not consult it: its
	// StackOverflowError check is against the operand stack size only.
	MaxFrameDepth int `toml:"max_frame_depth"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration a bare `gojvm` run uses when no
// vm.toml is found.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			ArenaSize:     1 << 16,
			StackSize:     4096,
			MaxFrameDepth: 1024,
			LogLevel:      "info",
		},
	}
}

// Load reads and parses path, filling in defaults for any field the file
// leaves zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pkg: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("pkg: parsing %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.VM.ArenaSize <= 0 {
		cfg.VM.ArenaSize = d.VM.ArenaSize
	}
	if cfg.VM.StackSize <= 0 {
		cfg.VM.StackSize = d.VM.StackSize
	}
	if cfg.VM.MaxFrameDepth <= 0 {
		cfg.VM.MaxFrameDepth = d.VM.MaxFrameDepth
	}
	if cfg.VM.LogLevel == "" {
		cfg.VM.LogLevel = d.VM.LogLevel
	}
}

// Save writes cfg back out as TOML with inline comments documenting each
// field.
func (c *Config) Save(path string) error {
	var sb []byte
	// classpath is a root-level key, so it goes before the [vm] header;
	// written after it, it would parse as vm.classpath.
	sb = append(sb, "classpath = ["...)
	for i, root := range c.Classpath {
		if i > 0 {
			sb = append(sb, ", "...)
		}
		sb = append(sb, fmt.Sprintf("%q", root)...)
	}
	sb = append(sb, "]\n\n"...)
	sb = append(sb, "[vm]\n"...)
	sb = append(sb, fmt.Sprintf("# per-thread bump-allocation arena size, in slots\narena_size = %d\n\n", c.VM.ArenaSize)...)
	sb = append(sb, fmt.Sprintf("# per-thread operand stack size, in slots\nstack_size = %d\n\n", c.VM.StackSize)...)
	sb = append(sb, fmt.Sprintf("# max call depth setting (not consulted by the interpreter)\nmax_frame_depth = %d\n\n", c.VM.MaxFrameDepth)...)
	sb = append(sb, fmt.Sprintf("# one of debug, info, warn, error\nlog_level = %q\n", c.VM.LogLevel)...)

	if err := os.WriteFile(path, sb, 0644); err != nil {
		return fmt.Errorf("pkg: writing %s: %w", path, err)
	}
	return nil
}
