// Package main is registryctl, a short-lived command-line consumer of the
// metadata registry. It uses the client's blocking call shape: each
// invocation constructs one client, runs one operation, and exits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/logging"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/registry"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/registry/snapshot"
)

const usage = `usage: registryctl [flags] <command> [args]

commands:
  manifest                 print the root index document
  get <category> <id>      print one record
  list [category]          print records of one category, or all
  find [find flags]        print records matching requirements
  health                   print the client health snapshot
  stats                    print cache statistics

flags:
  -base-url URL     record store root (or REGISTRY_BASE_URL)
  -ttl SECONDS      cache freshness window (default 300)
  -retries N        network attempts per fetch (default 3)
  -timeout SECONDS  per-attempt timeout (default 10)
  -no-snapshot      disable the embedded snapshot fallback
  -v                verbose (debug) logging

find flags:
  -requirements FILE    YAML file with category/features/compatibility/
                        display/numeric/weights
  -category NAME        category facet
  -features a,b         required feature tags
  -compat a,b           required compatibility tags
  -numeric k=v,...      numeric facets (value must fall in record range)
  -weights k=v,...      weighted-score ranking facets
`

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("base-url", os.Getenv("REGISTRY_BASE_URL"), "record store root")
	ttl := flag.Int("ttl", 300, "cache TTL in seconds")
	retries := flag.Int("retries", 3, "network attempts per fetch")
	timeout := flag.Int("timeout", 10, "per-attempt timeout in seconds")
	noSnapshot := flag.Bool("no-snapshot", false, "disable embedded snapshot fallback")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, "text", level)
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *baseURL == "" {
		fatal("base URL required: pass -base-url or set REGISTRY_BASE_URL")
	}

	var fallback map[string][]byte
	if !*noSnapshot {
		var err error
		fallback, err = snapshot.Documents()
		if err != nil {
			fatal("loading embedded snapshot: %v", err)
		}
	}

	client, err := registry.New(registry.Config{
		BaseURL:          *baseURL,
		CacheTTL:         time.Duration(*ttl) * time.Second,
		MaxRetries:       *retries,
		Timeout:          time.Duration(*timeout) * time.Second,
		FallbackSnapshot: fallback,
		Logger:           logger,
		UserAgent:        "registryctl",
	})
	if err != nil {
		fatal("%v", err)
	}
	reg := client.Blocking()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "manifest":
		m, err := reg.Manifest()
		exitOn(err)
		printJSON(m)
	case "get":
		if len(rest) != 2 {
			fatal("usage: registryctl get <category> <id>")
		}
		r, err := reg.Record(rest[0], rest[1])
		exitOn(err)
		printJSON(r)
	case "list":
		category := ""
		if len(rest) > 0 {
			category = rest[0]
		}
		records, err := reg.List(category)
		exitOn(err)
		printJSON(records)
	case "find":
		req, err := parseFindArgs(rest)
		if err != nil {
			fatal("%v", err)
		}
		records, err := reg.Find(req)
		exitOn(err)
		printJSON(records)
	case "health":
		printJSON(reg.Health())
	case "stats":
		printJSON(reg.CacheStats())
	default:
		fatal("unknown command %q", cmd)
	}
}

// parseFindArgs builds Requirements from a YAML file, command-line flags,
// or both; flags override file values.
func parseFindArgs(args []string) (registry.Requirements, error) {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	reqFile := fs.String("requirements", "", "YAML requirements file")
	category := fs.String("category", "", "category facet")
	features := fs.String("features", "", "comma-separated feature tags")
	compat := fs.String("compat", "", "comma-separated compatibility tags")
	numeric := fs.String("numeric", "", "comma-separated key=value numeric facets")
	weights := fs.String("weights", "", "comma-separated key=value ranking weights")
	if err := fs.Parse(args); err != nil {
		return registry.Requirements{}, err
	}

	var req registry.Requirements
	if *reqFile != "" {
		raw, err := os.ReadFile(*reqFile)
		if err != nil {
			return req, fmt.Errorf("reading requirements file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &req); err != nil {
			return req, fmt.Errorf("parsing requirements file: %w", err)
		}
	}

	if *category != "" {
		req.Category = *category
	}
	if *features != "" {
		req.Features = splitList(*features)
	}
	if *compat != "" {
		req.Compatibility = splitList(*compat)
	}
	if *numeric != "" {
		m, err := parseFloatMap(*numeric)
		if err != nil {
			return req, fmt.Errorf("parsing -numeric: %w", err)
		}
		req.Numeric = m
	}
	if *weights != "" {
		m, err := parseFloatMap(*weights)
		if err != nil {
			return req, fmt.Errorf("parsing -weights: %w", err)
		}
		req.Weights = m
	}
	return req, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatMap(s string) (map[string]float64, error) {
	m := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in %q", pair)
		}
		m[k] = f
	}
	return m, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encoding output: %v", err)
	}
	fmt.Println(string(out))
}

func exitOn(err error) {
	if err != nil {
		fatal("%v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "registryctl: "+format+"\n", args...)
	os.Exit(1)
}
