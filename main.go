package main

import (
	"os"

	"github.com/Taichi-iskw/voice-support/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
