package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/paul/pkg/app"
)

//go:embed samples
var embeddedSamples embed.FS

func main() {
	application := app.New(os.Stdin, os.Stdout, app.WithSamples(embeddedSamples))
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
