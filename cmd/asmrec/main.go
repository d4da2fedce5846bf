// Command asmrec is the entry point for the assessment recommendation engine.
// It provides a CLI interface (via Cobra) and an optional HTTP server exposing
// the recommendation API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hireloop/asmrec-go/cmd/asmrec/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
