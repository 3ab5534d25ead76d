// Package ollamatest provides an in-process fake of an Ollama-compatible model
// server. It serves the generate, chat, tags, show and pull endpoints with
// deterministic answers, so clients can be exercised without a real model.
package ollamatest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// Server is a fake model server. Installed models are the only state; pulls add to it.
type Server struct {
	config    Config
	logger    *zap.Logger
	server    *fiber.App
	responder Responder

	mu        sync.RWMutex
	installed map[string]time.Time
	registry  map[string]bool
}

// New creates a new Server.
func New(config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		logger:    logger,
		server:    app,
		responder: config.Responder,
		installed: make(map[string]time.Time),
		registry:  make(map[string]bool),
	}
	if s.responder == nil {
		s.responder = EchoResponder
	}

	now := time.Now().UTC()
	for _, name := range config.Models {
		if n := normalizeName(name); n != "" {
			s.installed[n] = now
		}
	}
	for _, name := range config.Registry {
		if n := normalizeName(name); n != "" {
			s.registry[n] = true
		}
	}

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Ollama is running")
	})

	app.Post("/api/generate", s.handleGenerate)
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/tags", s.handleTags)
	app.Post("/api/show", s.handleShow)
	app.Post("/api/pull", s.handlePull)

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting fake model server",
		zap.String("listen", s.config.ListenAddr),
		zap.Strings("models", s.Installed()),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Debug("serving fake model server", zap.String("addr", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// Installed returns the installed model names, sorted.
func (s *Server) Installed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.installed))
	for name := range s.installed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) isInstalled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.installed[normalizeName(name)]
	return ok
}

func (s *Server) install(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installed[normalizeName(name)] = time.Now().UTC()
}

func (s *Server) inRegistry(name string) bool {
	if len(s.registry) == 0 {
		return true
	}
	return s.registry[normalizeName(name)]
}

// handleGenerate answers a completion request.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.GenerateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Warn("failed to parse request", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.Model == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "model is required"})
	}
	if !s.isInstalled(req.Model) {
		return s.modelNotFound(c, req.Model)
	}

	reply := s.responder(req.Model, []llm.Message{llm.UserMessage(req.Prompt)})

	s.logger.Debug("generate request",
		zap.String("model", req.Model),
		zap.String("prompt_preview", truncate(req.Prompt, 50)),
		zap.Bool("stream", streaming(req.Stream)),
	)

	if streaming(req.Stream) {
		words := splitWords(reply)
		lines := make([]any, 0, len(words)+1)
		for _, word := range words {
			lines = append(lines, llm.StreamChunk{Model: req.Model, CreatedAt: llm.At(time.Now().UTC()), Response: word})
		}
		lines = append(lines, llm.StreamChunk{
			Model:     req.Model,
			CreatedAt: llm.At(time.Now().UTC()),
			Done:      true,
			Metrics:   metricsFor(req.Prompt, reply, startTime),
		})
		return s.writeNDJSON(c, lines)
	}

	return c.JSON(llm.GenerateResponse{
		Model:      req.Model,
		CreatedAt:  llm.At(time.Now().UTC()),
		Response:   reply,
		Done:       true,
		DoneReason: "stop",
		Metrics:    metricsFor(req.Prompt, reply, startTime),
	})
}

// handleChat answers a chat request with an assistant message.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Warn("failed to parse request", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.Model == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "model is required"})
	}
	if !s.isInstalled(req.Model) {
		return s.modelNotFound(c, req.Model)
	}

	reply := s.responder(req.Model, req.Messages)
	prompt := ""
	for _, msg := range req.Messages {
		prompt += msg.Content
	}

	s.logger.Debug("chat request",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("stream", streaming(req.Stream)),
	)

	if streaming(req.Stream) {
		words := splitWords(reply)
		lines := make([]any, 0, len(words)+1)
		for _, word := range words {
			msg := llm.AssistantMessage(word)
			lines = append(lines, llm.StreamChunk{Model: req.Model, CreatedAt: llm.At(time.Now().UTC()), Message: &msg})
		}
		final := llm.AssistantMessage("")
		lines = append(lines, llm.StreamChunk{
			Model:     req.Model,
			CreatedAt: llm.At(time.Now().UTC()),
			Message:   &final,
			Done:      true,
			Metrics:   metricsFor(prompt, reply, startTime),
		})
		return s.writeNDJSON(c, lines)
	}

	return c.JSON(llm.ChatResponse{
		Model:      req.Model,
		CreatedAt:  llm.At(time.Now().UTC()),
		Message:    llm.AssistantMessage(reply),
		Done:       true,
		DoneReason: "stop",
		Metrics:    metricsFor(prompt, reply, startTime),
	})
}

// handleTags lists installed models.
func (s *Server) handleTags(c *fiber.Ctx) error {
	s.mu.RLock()
	models := make([]llm.ModelSummary, 0, len(s.installed))
	for name, modified := range s.installed {
		models = append(models, summaryFor(name, modified))
	}
	s.mu.RUnlock()

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return c.JSON(llm.ListResponse{Models: models})
}

// handleShow returns the metadata of an installed model.
func (s *Server) handleShow(c *fiber.Ctx) error {
	var req llm.ShowRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "model is required"})
	}

	name := normalizeName(req.Name)
	s.mu.RLock()
	modified, ok := s.installed[name]
	s.mu.RUnlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: fmt.Sprintf("model '%s' not found", req.Name)})
	}

	summary := summaryFor(name, modified)
	return c.JSON(llm.ShowResponse{
		License:    "fake model license",
		Modelfile:  fmt.Sprintf("# Modelfile generated by \"ollama show\"\nFROM %s\nTEMPLATE \"{{ .Prompt }}\"\n", name),
		Parameters: "stop \"<|end|>\"",
		Template:   "{{ .Prompt }}",
		Details:    summary.Details,
		ModelInfo: map[string]any{
			"general.architecture": summary.Details.Family,
			"general.name":         name,
		},
		ModifiedAt: llm.At(modified),
	})
}

// handlePull streams download progress the way a real server does: one JSON
// object per line, ending in a success status or a terminal error line. A pull
// that fails in the registry still answers 200.
func (s *Server) handlePull(c *fiber.Ctx) error {
	var req llm.PullRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "model is required"})
	}

	name := normalizeName(req.Name)
	lines := []any{llm.PullProgress{Status: "pulling manifest"}}

	if !s.inRegistry(name) {
		s.logger.Info("pull of unknown model", zap.String("model", name))
		lines = append(lines, llm.ErrorResponse{Error: "pull model manifest: file does not exist"})
	} else {
		summary := summaryFor(name, time.Now().UTC())
		layer := "sha256:" + summary.Digest
		for _, pct := range []int64{0, 50, 100} {
			lines = append(lines, llm.PullProgress{
				Status:    "pulling " + summary.Digest[:12],
				Digest:    layer,
				Total:     summary.Size,
				Completed: summary.Size * pct / 100,
			})
		}
		lines = append(lines,
			llm.PullProgress{Status: "verifying sha256 digest"},
			llm.PullProgress{Status: "writing manifest"},
			llm.PullProgress{Status: "success"},
		)
		s.install(name)
		s.logger.Info("model pulled", zap.String("model", name))
	}

	if req.Stream != nil && !*req.Stream {
		return c.JSON(lines[len(lines)-1])
	}
	return s.writeNDJSON(c, lines)
}

func (s *Server) modelNotFound(c *fiber.Ctx, model string) error {
	s.logger.Debug("model not installed", zap.String("model", model))
	return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{
		Error: fmt.Sprintf("model %q not found, try pulling it first", model),
	})
}

// writeNDJSON streams lines as newline-delimited JSON. The stream writer runs
// after the handler returns, so everything it needs is encoded up front.
func (s *Server) writeNDJSON(c *fiber.Ctx, lines []any) error {
	encoded := make([][]byte, 0, len(lines))
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			s.logger.Error("failed to marshal stream line", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
		}
		encoded = append(encoded, data)
	}

	c.Set("Content-Type", "application/x-ndjson")

	logger := s.logger
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for _, data := range encoded {
			_, _ = w.Write(data)
			_ = w.WriteByte('\n')
			if err := w.Flush(); err != nil {
				logger.Debug("client went away mid-stream", zap.Error(err))
				return
			}
		}
	}))

	return nil
}

func streaming(stream *bool) bool {
	return stream == nil || *stream // Ollama defaults to streaming
}

func summaryFor(name string, modified time.Time) llm.ModelSummary {
	sum := sha256.Sum256([]byte(name))
	family, _, _ := strings.Cut(name, ":")
	return llm.ModelSummary{
		Name:       name,
		Model:      name,
		ModifiedAt: llm.At(modified),
		Size:       int64(len(name)) << 20,
		Digest:     hex.EncodeToString(sum[:]),
		Details: llm.ModelDetails{
			Format:            "gguf",
			Family:            family,
			Families:          []string{family},
			ParameterSize:     "7B",
			QuantizationLevel: "Q4_0",
		},
	}
}

func metricsFor(prompt, reply string, startTime time.Time) llm.Metrics {
	elapsed := time.Since(startTime).Nanoseconds()
	return llm.Metrics{
		TotalDuration:   elapsed,
		PromptEvalCount: len(strings.Fields(prompt)),
		EvalCount:       len(strings.Fields(reply)),
		EvalDuration:    elapsed,
	}
}

// splitWords splits reply into stream chunks that concatenate back to reply.
func splitWords(reply string) []string {
	fields := strings.SplitAfter(reply, " ")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
