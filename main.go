package main

import (
	"github.com/tameszaza/p2p/cmd"
	"github.com/tameszaza/p2p/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
