package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"mvdan.cc/xurls/v2"
)

// splitURLs splits a comma-separated list of urls, dropping empty entries.
func splitURLs(s string) []string {
	var urls []string
	for _, u := range strings.Split(s, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// extractURLs returns every url found in the given free-form text.
func extractURLs(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rx := xurls.Strict()
	urls := rx.FindAllString(string(b), -1)
	log.Debugf("extracted %d urls from input", len(urls))

	return urls, nil
}

// promptURLs asks the user for a comma-separated list of urls and reads one
// line of response.
func promptURLs(in io.Reader, out io.Writer) ([]string, error) {
	fmt.Fprint(out, "Please enter image URL(s), separated by commas if multiple: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	return splitURLs(line), nil
}

// collectURLs returns the urls to fetch. Command line arguments take
// precedence, then the input file, then an interactive prompt.
func collectURLs(cfg *Config, stdin io.Reader, stdout io.Writer) ([]string, error) {
	if len(cfg.URLs) > 0 {
		var urls []string
		for _, arg := range cfg.URLs {
			urls = append(urls, splitURLs(arg)...)
		}
		return urls, nil
	}

	if cfg.Input != "" {
		if cfg.Input == "-" {
			return extractURLs(stdin)
		}

		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return extractURLs(f)
	}

	return promptURLs(stdin, stdout)
}
