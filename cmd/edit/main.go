package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"garmentedit/internal/analysis"
	"garmentedit/internal/domain"
	"garmentedit/internal/imagegen"
	"garmentedit/internal/imaging"
	"garmentedit/internal/infra"
	"garmentedit/internal/pipeline"
	"garmentedit/internal/providers/vision"
	"garmentedit/internal/storage"
)

func main() {
	var (
		imageFlag  string
		promptFlag string
		outFlag    string
	)
	flag.StringVar(&imageFlag, "image", "", "Path to the reference image")
	flag.StringVar(&promptFlag, "prompt", "", "Edit instruction, e.g. \"make the sleeves red\"")
	flag.StringVar(&outFlag, "out", "", "Directory for run artifacts (defaults to OUTPUT_DIR)")
	flag.Parse()

	_ = godotenv.Load()

	if strings.TrimSpace(imageFlag) == "" || strings.TrimSpace(promptFlag) == "" {
		fmt.Fprintln(os.Stderr, "-image and -prompt are required")
		os.Exit(2)
	}
	raw, err := os.ReadFile(imageFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read image: %v\n", err)
		os.Exit(1)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if outFlag != "" {
		cfg.OutputDir = outFlag
	}

	// stdout carries the JSON result, so logs go to stderr.
	logger := infra.NewLogger(cfg.AppEnv).
		Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("cmd", "edit").Logger()
	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare output directory: %v\n", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	analyzer, err := vision.NewOpenAIClient(vision.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.VisionModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Temperature:  0.1,
		JSONMode:     true,
		HTTPClient:   httpClient,
		Logger:       &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure vision client: %v\n", err)
		os.Exit(1)
	}
	p, err := pipeline.New(pipeline.Options{
		Normalizer: imaging.NewNormalizer(),
		Presence:   analysis.NewPresenceDetector(analyzer, &logger),
		Describer:  analysis.NewGarmentDescriber(analyzer, &logger),
		Generator: imagegen.NewOpenAIClient(imagegen.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.ImageModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			Logger:       &logger,
		}),
		Width:     cfg.ImageWidth,
		Height:    cfg.ImageHeight,
		Artifacts: store,
		Logger:    &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.UpstreamTimeout+10*time.Second)
	defer cancel()

	res, err := p.Run(ctx, pipeline.Request{Image: raw, Instruction: promptFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", domain.ErrorCode(err), err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
}
