package main

import (
	"github.com/mj1618/dockwatch/cmd"

	// Registers the macOS provider via init().
	_ "github.com/mj1618/dockwatch/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
