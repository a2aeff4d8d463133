package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/bizsync/internal/buildinfo"
	"github.com/dmitrijs2005/bizsync/internal/cli"
	"github.com/dmitrijs2005/bizsync/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	app, err := cli.Build(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Printf("%v", err)
		app.Close()
		os.Exit(1)
	}

}
