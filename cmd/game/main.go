package main

import (
	"os"

	"github.com/1siamBot/lullaby/engine/cli"
	"github.com/1siamBot/lullaby/engine/screen"
)

func main() {
	if err := cli.NewRootCmd(screen.Run).Execute(); err != nil {
		os.Exit(1)
	}
}
