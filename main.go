package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ccollins476ad/imgfetch/download"
	log "github.com/sirupsen/logrus"
)

func printFatalError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func main() {
	cfg, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		printFatalError(err)
		flag.CommandLine.Usage()
		os.Exit(1)
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	urls, err := collectURLs(cfg, os.Stdin, os.Stdout)
	if err != nil {
		printFatalError(err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		printFatalError(fmt.Errorf("no URL provided"))
		os.Exit(1)
	}

	s := download.NewStore(cfg.DestDir, download.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		MaxSize:   cfg.MaxSize,
	})
	log.Debugf("fetching %d url(s) into %s", len(urls), s.DestDir())

	tally, err := processURLs(context.Background(), cfg, s, urls, os.Stdout)
	if err != nil {
		printFatalError(err)
		os.Exit(2)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(summary(tally))
	fmt.Println(strings.Repeat("=", 60))

	if tally.Succeeded == 0 {
		os.Exit(3)
	}
}
