package main

// Blank imports ensure built-in plugin init() registration runs for
// the CLI binary.
import (
	_ "github.com/raidos23/casl/plugins/checkfiles"
	_ "github.com/raidos23/casl/plugins/checksum"
	_ "github.com/raidos23/casl/plugins/cleanup"
)
