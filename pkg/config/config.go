// Package config loads engine tuning from a TOML file (SPEC_FULL.md
// §10/§A9): heap size, strict-by-default, and trace flags a host or the
// cmd/jerryscript CLI wants to override without recompiling. Grounded
// on chazu-maggie's manifest package (github.com/BurntSushi/toml,
// Load-from-directory-with-defaults shape).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the engine's tunable surface. The built-in values are in
// Default below, which Load starts from; the zero Config is not equal
// to Default (its HeapSlots and MaxCallDepth are 0).
type Config struct {
	Engine Engine `toml:"engine"`
	Trace  Trace  `toml:"trace"`
}

// Engine controls resource limits and default script strictness.
type Engine struct {
	// HeapSlots caps each arena's compact-pointer address space (spec §3's
	// 512 KiB/16-bit default corresponds to 65536 slots).
	HeapSlots int `toml:"heap_slots"`
	// StrictByDefault runs top-level programs without a "use strict"
	// directive as if they had one — off by default, matching ES5.1.
	StrictByDefault bool `toml:"strict_by_default"`
	// MaxCallDepth overrides pkg/vm.MaxFrames; 0 keeps the compiled-in default.
	MaxCallDepth int `toml:"max_call_depth"`
}

// Trace controls diagnostic output unrelated to script-visible behavior.
type Trace struct {
	Opcodes bool `toml:"opcodes"`
	GC      bool `toml:"gc"`
}

// Default is the configuration used when no TOML file is loaded.
var Default = Config{
	Engine: Engine{
		HeapSlots:       1 << 16,
		StrictByDefault: false,
		MaxCallDepth:    1024,
	},
}

// Load reads and parses a TOML config file, filling any field the file
// omits from Default.
func Load(path string) (Config, error) {
	cfg := Default
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}
