package commands

import (
	"fmt"
	"plugin"

	"github.com/weftrpc/weft/pkg/declare"
)

// Every module plugin must export a function named Register with the
// signature func(*declare.Registry) error that adds its Declares to the
// registry handed to it. Plugins are ordinary `package main` Go plugins
// built with `go build -buildmode=plugin`.

// LoadModules opens each plugin path in order and calls its exported
// Register function against reg. A module whose Register call fails
// aborts the whole load — a half-registered method surface is worse than
// refusing to start.
func LoadModules(paths []string, reg *declare.Registry) error {
	for _, path := range paths {
		p, err := plugin.Open(path)
		if err != nil {
			return fmt.Errorf("module %s: %w", path, err)
		}
		sym, err := p.Lookup("Register")
		if err != nil {
			return fmt.Errorf("module %s: missing Register symbol: %w", path, err)
		}
		register, ok := sym.(func(*declare.Registry) error)
		if !ok {
			return fmt.Errorf("module %s: Register has the wrong signature", path)
		}
		if err := register(reg); err != nil {
			return fmt.Errorf("module %s: Register failed: %w", path, err)
		}
	}
	return nil
}
