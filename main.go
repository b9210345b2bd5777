package main

import (
	"os"

	"github.com/examwhisperer/whisper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
