// Command visionmux-probe is a flag-driven CLI smoke test: it loads the
// same configuration the server would, runs one image through the full
// pipeline or just probes analyzer health, and prints the result as
// indented JSON — useful for exercising a roster change without
// standing up the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/internal/logging"
	"github.com/menta2k/visionmux/pkg/captions"
	"github.com/menta2k/visionmux/pkg/client"
	"github.com/menta2k/visionmux/pkg/health"
	"github.com/menta2k/visionmux/pkg/orchestrator"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	imageURL := flag.String("url", "", "image URL to analyze")
	imageFile := flag.String("file", "", "local image path to analyze")
	healthOnly := flag.Bool("health", false, "probe every configured analyzer's health endpoint and exit")
	timeout := flag.Duration("timeout", 10*time.Second, "health probe timeout")
	flag.Parse()

	logger, err := logging.New(false)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	httpClient := client.NewHTTPClient(cfg.Call, logger)

	if *healthOnly {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		prober := health.New(httpClient, logger)
		results, overall := prober.ProbeAll(ctx, cfg.Analyzers)
		printJSON(health.ServicesStatus(results, overall))
		return
	}

	if *imageURL == "" && *imageFile == "" {
		fmt.Fprintln(os.Stderr, "one of -url or -file is required (or pass -health)")
		os.Exit(1)
	}

	orchestr := orchestrator.New(cfg.Analyzers, httpClient, cfg.Call, logger)
	aggregator := captions.New(captions.NewHTTPScorer(cfg.Similarity), logger)

	ctx := context.Background()
	run := orchestr.Analyze(ctx, orchestrator.Source{URL: *imageURL, FilePath: *imageFile})
	captionList := aggregator.Aggregate(ctx, cfg.Analyzers, run.Results, *imageURL, *imageFile)

	printJSON(struct {
		Run      orchestrator.Run `json:"run"`
		Captions interface{}      `json:"captions"`
	}{Run: run, Captions: captionList})
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
