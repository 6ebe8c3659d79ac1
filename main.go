package main

import (
	"flag"
	"fmt"
	"os"
	"vidops/internal/di"
	"vidops/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug mode")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "vidops: %s\n", err)
		os.Exit(1)
	}
}
