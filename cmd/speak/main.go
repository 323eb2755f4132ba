package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgnsrekt/geminivoice/internal/api"
	"github.com/dgnsrekt/geminivoice/internal/client"
	"github.com/dgnsrekt/geminivoice/internal/logging"
)

func main() {
	var (
		voice      = flag.String("voice", "", "voice name (service default when empty)")
		expression = flag.String("expression", "", "expression preset (service default when empty)")
		model      = flag.String("model", "", "speech model (service default when empty)")
		output     = flag.String("o", "out.wav", "path of the WAV file to write")
		listVoices = flag.Bool("voices", false, "list available voices, expressions and models, then exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: speak [flags] <text>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load configuration from environment
	cfg, err := client.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg, logger)

	if *listVoices {
		resp, err := c.Voices(ctx)
		if err != nil {
			logger.Error("failed to fetch voices", "error", err)
			os.Exit(1)
		}
		printCatalog(resp)
		return
	}

	text := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(text) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := c.Speak(ctx, api.TTSRequest{
		Text:       text,
		Voice:      *voice,
		Expression: *expression,
		Model:      *model,
	})
	if err != nil {
		logger.Error("speech request failed", "api_url", cfg.APIURL, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, result.WAV, 0o644); err != nil {
		logger.Error("failed to write output", "path", *output, "error", err)
		os.Exit(1)
	}

	attrs := []any{
		"path", *output,
		"bytes", len(result.WAV),
		"model", result.ModelUsed,
		"expression", result.ExpressionUsed,
		"request_id", result.RequestID,
	}
	if d, err := result.Duration(); err == nil {
		attrs = append(attrs, "duration", d)
	} else {
		logger.Warn("could not determine audio duration", "error", err)
	}
	logger.Info("speech saved", attrs...)
}

func printCatalog(resp *api.VoicesResponse) {
	fmt.Println("Voices:")
	for _, v := range resp.Voices {
		marker := " "
		if v.Name == resp.DefaultVoice {
			marker = "*"
		}
		fmt.Printf(" %s %-16s %s\n", marker, v.Name, v.Description)
	}

	fmt.Println("Expressions:")
	for _, e := range resp.Expressions {
		marker := " "
		if e.Name == resp.DefaultExpression {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, e.Name)
	}

	fmt.Println("Models:")
	for _, m := range resp.Models {
		marker := " "
		if m == resp.DefaultModel {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, m)
	}
}
