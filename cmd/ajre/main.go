package main

import (
	"os"

	"github.com/ggerhardt/ajre-rules-engine/cmd/ajre/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
