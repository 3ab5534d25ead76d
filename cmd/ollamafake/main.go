package main

import (
	"flag"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/pkg/logger"
	"github.com/papercomputeco/ollamaclient/pkg/ollamatest"
)

func main() {
	// Parse command line flags
	listenAddr := flag.String("listen", ":11434", "Address to listen on")
	models := flag.String("models", "llama2:7b", "Comma-separated models installed at startup")
	registry := flag.String("registry", "", "Comma-separated models a pull can find (default: any)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set up logger
	logger := logger.NewLogger(*debug)
	defer logger.Sync()

	config := ollamatest.Config{
		ListenAddr: *listenAddr,
		Models:     splitList(*models),
		Registry:   splitList(*registry),
	}

	logger.Info("fake model server starting",
		zap.String("listen", config.ListenAddr),
		zap.Strings("models", config.Models),
		zap.Strings("registry", config.Registry),
		zap.Bool("debug", *debug),
	)

	s := ollamatest.New(config, logger)
	if err := s.Run(); err != nil {
		logger.Fatal("fake model server failed", zap.Error(err))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
