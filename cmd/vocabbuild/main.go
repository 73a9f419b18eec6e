// Command vocabbuild builds Japanese vocabulary deck files from public
// datasets: a glossed JMdict deck (TSV) and a pitch-accent audio deck (CSV),
// both ranked by word frequency.
//
// Flags:
//
//	--phase    comma-separated list of phases to run: jmdict, audio (default: all)
//	--config   path to YAML config file (default: $CONFIG_PATH or ./vocabbuild.yaml)
//	--dry-run  fetch and parse sources without writing decks or publishing rows
//	--version  print the version and exit
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heartmarshall/kotoba-decks/internal/app"
)

func main() {
	phaseFlag := flag.String("phase", "", "comma-separated phases to run (default: all)")
	configFlag := flag.String("config", "", "path to YAML config file")
	dryRunFlag := flag.Bool("dry-run", false, "parse sources without writing decks or publishing rows")
	versionFlag := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(app.BuildVersion())
		return
	}

	// Parse phase filter.
	var phases []string
	if *phaseFlag != "" {
		for _, ph := range strings.Split(*phaseFlag, ",") {
			if ph = strings.TrimSpace(ph); ph != "" {
				phases = append(phases, ph)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, app.Options{
		ConfigPath: *configFlag,
		Phases:     phases,
		DryRun:     *dryRunFlag,
	})
	if err != nil {
		// Phase failures are already logged in detail.
		if !errors.Is(err, app.ErrBuildFailed) {
			log.Printf("vocabbuild: %v", err)
		}
		stop()
		os.Exit(1)
	}
}
