// Package ollama is a client for the HTTP API of a local Ollama-compatible model
// server. It covers completion, chat, and the model management endpoints (list,
// pull, show).
//
// Every call is a single request/response exchange. Generate and chat always ask
// for a non-streamed answer. Pull is the exception: the server always streams
// pull progress as newline-delimited JSON, and the client collapses that stream
// to its final line.
//
//	client := ollama.New("http://localhost:11434", ollama.WithLogger(logger))
//	resp, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
//	    Temperature: llm.Ptr(0.7),
//	})
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// DefaultBaseURL is the address a local Ollama server listens on.
const DefaultBaseURL = "http://localhost:11434"

const (
	pathGenerate = "/api/generate"
	pathTags     = "/api/tags"
	pathPull     = "/api/pull"
	pathShow     = "/api/show"
	pathChat     = "/api/chat"
)

type operation struct {
	name    string
	failure string
}

var (
	opGenerate = operation{name: "generate", failure: "error generating completion"}
	opList     = operation{name: "list models", failure: "error listing models"}
	opPull     = operation{name: "pull model", failure: "error pulling model"}
	opShow     = operation{name: "show model", failure: "error getting model info"}
	opChat     = operation{name: "chat", failure: "error in chat"}
)

// Client issues requests against one server. The base URL is fixed at
// construction; a Client holds no other state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The default client has
// no timeout; bound calls with the context or with a client that has one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger that failures are reported to before being returned.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for baseURL, or DefaultBaseURL when baseURL is empty.
// The URL is used as given: it is not validated and a trailing slash is not removed.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate requests a single completion of prompt.
func (c *Client) Generate(ctx context.Context, model, prompt string, opts *llm.Options) (*llm.GenerateResponse, error) {
	return c.GenerateRequest(ctx, llm.GenerateRequest{Model: model, Prompt: prompt}, opts)
}

// GenerateRequest sends a fully specified completion request. Named parameters in
// opts replace req.Options when set; opts.Extra is merged into the body. Stream is
// always sent as false.
func (c *Client) GenerateRequest(ctx context.Context, req llm.GenerateRequest, opts *llm.Options) (*llm.GenerateResponse, error) {
	req.Stream = llm.Ptr(false)
	if opts.HasParameters() {
		req.Options = opts
	}

	var resp llm.GenerateResponse
	raw, err := c.call(ctx, opGenerate, http.MethodPost, pathGenerate, req, extraOf(opts), &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) (*llm.ListResponse, error) {
	var resp llm.ListResponse
	raw, err := c.call(ctx, opList, http.MethodGet, pathTags, nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// ShowModel returns the metadata of an installed model, including its Modelfile.
func (c *Client) ShowModel(ctx context.Context, model string) (*llm.ShowResponse, error) {
	var resp llm.ShowResponse
	raw, err := c.call(ctx, opShow, http.MethodPost, pathShow, llm.ShowRequest{Name: model}, nil, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// GetModelInfo is an alias for ShowModel.
func (c *Client) GetModelInfo(ctx context.Context, model string) (*llm.ShowResponse, error) {
	return c.ShowModel(ctx, model)
}

// Chat sends the conversation in messages, in order, and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, model string, messages []llm.Message, opts *llm.Options) (*llm.ChatResponse, error) {
	return c.ChatRequest(ctx, llm.ChatRequest{Model: model, Messages: messages}, opts)
}

// ChatRequest sends a fully specified chat request, with the same option rules as
// GenerateRequest.
func (c *Client) ChatRequest(ctx context.Context, req llm.ChatRequest, opts *llm.Options) (*llm.ChatResponse, error) {
	req.Stream = llm.Ptr(false)
	if opts.HasParameters() {
		req.Options = opts
	}
	if req.Messages == nil {
		req.Messages = []llm.Message{}
	}

	var resp llm.ChatResponse
	raw, err := c.call(ctx, opChat, http.MethodPost, pathChat, req, extraOf(opts), &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// PullModel downloads model and returns the final line of the server's progress
// stream, usually {"status":"success"} or a terminal {"error": ...}. The whole
// body is buffered first; intermediate progress is discarded. A line that is not
// valid JSON does not fail the call: it comes back as a Malformed PullLine if it
// is the last one.
func (c *Client) PullModel(ctx context.Context, model string) (PullLine, error) {
	lines, err := c.PullModelLines(ctx, model)
	if err != nil {
		return PullLine{}, err
	}
	return lines[len(lines)-1], nil
}

// PullModelLines is PullModel returning every parsed line, oldest first.
func (c *Client) PullModelLines(ctx context.Context, model string) ([]PullLine, error) {
	call := c.begin(opPull, pathPull)

	resp, err := c.send(ctx, call, http.MethodPost, llm.PullRequest{Name: model}, nil)
	if err != nil {
		return nil, c.fail(call, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(call, &TransportError{Op: opPull.name, URL: call.url, Err: err})
	}

	lines := ParseLines(string(body))
	if len(lines) == 0 {
		return nil, c.fail(call, &DecodeError{Op: opPull.name, Err: ErrEmptyPull})
	}

	call.logger.Debug("pull finished",
		zap.Int("lines", len(lines)),
		zap.String("final", lines[len(lines)-1].Raw),
	)
	return lines, nil
}

// PullModelStream is the incremental form of PullModel: fn is called with each
// non-empty line as it arrives, and the last line is returned. Splitting and
// malformed-line handling match PullModel exactly.
func (c *Client) PullModelStream(ctx context.Context, model string, fn func(PullLine)) (PullLine, error) {
	call := c.begin(opPull, pathPull)

	resp, err := c.send(ctx, call, http.MethodPost, llm.PullRequest{Name: model}, nil)
	if err != nil {
		return PullLine{}, c.fail(call, err)
	}
	defer resp.Body.Close()

	var (
		last  PullLine
		count int
	)
	reader := bufio.NewReader(resp.Body)
	for {
		text, readErr := reader.ReadString('\n')
		text = strings.TrimSuffix(text, "\n")
		if text != "" {
			last = ParseLine(text)
			count++
			if fn != nil {
				fn(last)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return PullLine{}, c.fail(call, &TransportError{Op: opPull.name, URL: call.url, Err: readErr})
		}
	}

	if count == 0 {
		return PullLine{}, c.fail(call, &DecodeError{Op: opPull.name, Err: ErrEmptyPull})
	}
	call.logger.Debug("pull finished", zap.Int("lines", count), zap.String("final", last.Raw))
	return last, nil
}

// callState carries the per-call values shared by send and fail.
type callState struct {
	op     operation
	url    string
	logger *zap.Logger
}

func (c *Client) begin(op operation, path string) callState {
	url := c.baseURL + path
	return callState{
		op:  op,
		url: url,
		logger: c.logger.With(
			zap.String("op", op.name),
			zap.String("url", url),
			zap.String("request_id", uuid.NewString()),
		),
	}
}

// call performs a request whose response is a single JSON document, decodes it
// into out and returns the document as received. Only a body that is not valid
// JSON fails the call. Fields that do not fit out are left at their zero value
// and logged; the caller still gets the raw document.
func (c *Client) call(ctx context.Context, op operation, method, path string, payload any, extra map[string]any, out any) (json.RawMessage, error) {
	call := c.begin(op, path)

	resp, err := c.send(ctx, call, method, payload, extra)
	if err != nil {
		return nil, c.fail(call, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(call, &TransportError{Op: op.name, URL: call.url, Err: err})
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.fail(call, &DecodeError{Op: op.name, Err: err})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		call.logger.Warn("response fields did not match", zap.Error(err))
	}
	return raw, nil
}

// send issues the request and checks the status. On success the caller owns
// the response body.
func (c *Client) send(ctx context.Context, call callState, method string, payload any, extra map[string]any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := c.encodeBody(call, payload, extra)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, call.url, body)
	if err != nil {
		return nil, &TransportError{Op: call.op.name, URL: call.url, Err: err}
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	call.logger.Debug("sending request", zap.String("method", method))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: call.op.name, URL: call.url, Err: err}
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		defer httpResp.Body.Close()
		return nil, readRequestError(call.op, httpResp)
	}
	return httpResp, nil
}

// fail logs err and hands it back unchanged.
func (c *Client) fail(call callState, err error) error {
	fields := []zap.Field{zap.Error(err)}
	if code, ok := StatusCode(err); ok {
		fields = append(fields, zap.Int("status", code))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fields = append(fields, zap.Bool("context_done", true))
	}
	call.logger.Error(call.op.failure, fields...)
	return err
}

func readRequestError(op operation, resp *http.Response) error {
	reqErr := &RequestError{Op: op.name, StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var errResp llm.ErrorResponse
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
		reqErr.Message = errResp.Error
	} else if text := strings.TrimSpace(string(data)); text != "" && !strings.HasPrefix(text, "{") {
		reqErr.Message = text
	}
	return reqErr
}

func (c *Client) encodeBody(call callState, payload any, extra map[string]any) ([]byte, error) {
	data, err := mergeBody(payload, extra, func(key, reason string) {
		call.logger.Debug("ignoring option key", zap.String("key", key), zap.String("reason", reason))
	})
	if err != nil {
		return nil, &EncodeError{Op: call.op.name, Err: err}
	}
	return data, nil
}
