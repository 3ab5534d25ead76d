package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
)

// exchange is what the stub server saw and what it answers with.
type exchange struct {
	mu          sync.Mutex
	method      string
	path        string
	contentType string
	rawBody     string

	status int
	reply  string
}

func (e *exchange) body() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rawBody == "" {
		return nil
	}
	var out map[string]any
	Expect(json.Unmarshal([]byte(e.rawBody), &out)).To(Succeed())
	return out
}

// stubServer answers every request with ex.status and ex.reply and records the request.
func stubServer(ex *exchange) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ex.mu.Lock()
		ex.method = r.Method
		ex.path = r.URL.Path
		ex.contentType = r.Header.Get("Content-Type")
		ex.rawBody = string(data)
		status, reply := ex.status, ex.reply
		ex.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	DeferCleanup(server.Close)
	return server
}

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		ex     *exchange
		server *httptest.Server
		client *ollama.Client
		logs   *observer.ObservedLogs
	)

	BeforeEach(func() {
		ctx = context.Background()
		ex = &exchange{}
		server = stubServer(ex)

		var core zapcore.Core
		core, logs = observer.New(zap.DebugLevel)
		client = ollama.New(server.URL, ollama.WithLogger(zap.New(core)))
	})

	Describe("New", func() {
		It("defaults to the local server address", func() {
			Expect(ollama.New("").BaseURL()).To(Equal("http://localhost:11434"))
		})

		It("uses the base URL exactly as given", func() {
			ex.reply = `{"models":[]}`
			c := ollama.New(server.URL + "/")

			_, err := c.ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.path).To(Equal("//api/tags"))
		})
	})

	Describe("Generate", func() {
		BeforeEach(func() {
			ex.reply = `{"model":"llama2:7b","response":"Hello!","done":true,"eval_count":2}`
		})

		It("posts model, prompt and stream:false as JSON", func() {
			resp, err := client.Generate(ctx, "llama2:7b", "Say hello", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Response).To(Equal("Hello!"))
			Expect(resp.EvalCount).To(Equal(2))

			Expect(ex.method).To(Equal(http.MethodPost))
			Expect(ex.path).To(Equal("/api/generate"))
			Expect(ex.contentType).To(Equal("application/json"))
			Expect(ex.body()).To(Equal(map[string]any{
				"model":  "llama2:7b",
				"prompt": "Say hello",
				"stream": false,
			}))
		})

		It("merges extra options into the top level without re-enabling streaming", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Extra: map[string]any{"temperature": 0.5, "max_tokens": 10},
			})
			Expect(err).NotTo(HaveOccurred())

			body := ex.body()
			Expect(body).To(HaveKeyWithValue("temperature", 0.5))
			Expect(body).To(HaveKeyWithValue("max_tokens", float64(10)))
			Expect(body).To(HaveKeyWithValue("stream", false))
		})

		It("never lets extra options override the request identity", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Extra: map[string]any{"stream": true, "model": "other", "prompt": "other"},
			})
			Expect(err).NotTo(HaveOccurred())

			body := ex.body()
			Expect(body).To(HaveKeyWithValue("stream", false))
			Expect(body).To(HaveKeyWithValue("model", "llama2:7b"))
			Expect(body).To(HaveKeyWithValue("prompt", "Say hello"))
			Expect(logs.FilterMessage("ignoring option key").Len()).To(Equal(3))
		})

		It("merges an options entry from extra into the named options", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Temperature: llm.Ptr(0.5),
				Extra: map[string]any{
					"options": map[string]any{"num_ctx": 4096, "temperature": 0.9},
				},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.body()).To(HaveKeyWithValue("options", map[string]any{
				"temperature": 0.5,
				"num_ctx":     float64(4096),
			}))
			skipped := logs.FilterMessage("ignoring option key").All()
			Expect(skipped).To(HaveLen(1))
			Expect(skipped[0].ContextMap()).To(HaveKeyWithValue("key", "options.temperature"))
		})

		It("sends an options entry from extra on its own when no named options are set", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Extra: map[string]any{"options": map[string]any{"num_ctx": 4096}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.body()).To(HaveKeyWithValue("options", map[string]any{"num_ctx": float64(4096)}))
		})

		It("fails with an encode error before sending when an extra value has no JSON form", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Extra: map[string]any{"temperature": math.NaN()},
			})
			Expect(ollama.IsEncode(err)).To(BeTrue())
			Expect(ollama.IsTransport(err)).To(BeFalse())
			Expect(ollama.IsDecode(err)).To(BeFalse())
			_, hasStatus := ollama.StatusCode(err)
			Expect(hasStatus).To(BeFalse())

			var encodeErr *ollama.EncodeError
			Expect(errors.As(err, &encodeErr)).To(BeTrue())
			Expect(encodeErr.Op).To(Equal("generate"))
			Expect(ex.method).To(BeEmpty())
			Expect(logs.FilterMessage("error generating completion").Len()).To(Equal(1))
		})

		It("fails with an encode error when the extra options entry is not an object", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Extra: map[string]any{"options": "fast"},
			})
			Expect(ollama.IsEncode(err)).To(BeTrue())
			Expect(ex.method).To(BeEmpty())
		})

		It("sends named options under the options object", func() {
			_, err := client.Generate(ctx, "llama2:7b", "Say hello", &llm.Options{
				Temperature: llm.Ptr(0.3),
				TopK:        llm.Ptr(40),
				Stop:        []string{"\n"},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.body()).To(HaveKeyWithValue("options", map[string]any{
				"temperature": 0.3,
				"top_k":       float64(40),
				"stop":        []any{"\n"},
			}))
		})

		It("sends typed request fields", func() {
			_, err := client.GenerateRequest(ctx, llm.GenerateRequest{
				Model:  "llama2:7b",
				Prompt: "List three colors",
				System: "Answer in JSON.",
				Format: "json",
				Stream: llm.Ptr(true),
			}, nil)
			Expect(err).NotTo(HaveOccurred())

			body := ex.body()
			Expect(body).To(HaveKeyWithValue("system", "Answer in JSON."))
			Expect(body).To(HaveKeyWithValue("format", "json"))
			Expect(body).To(HaveKeyWithValue("stream", false))
		})
	})

	Describe("response documents", func() {
		It("accepts valid JSON whose fields do not match the response type", func() {
			ex.reply = `{"model":"m","created_at":"","response":"hi","done":true}`

			resp, err := client.Generate(ctx, "m", "p", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Response).To(Equal("hi"))
			Expect(resp.Done).To(BeTrue())
			Expect(resp.CreatedAt.IsZero()).To(BeTrue())
			Expect(string(resp.Raw)).To(Equal(ex.reply))
		})

		It("keeps the fields that fit when one has the wrong type", func() {
			ex.reply = `{"model":"m","response":"hi","done":true,"eval_count":"many"}`

			resp, err := client.Generate(ctx, "m", "p", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Response).To(Equal("hi"))
			Expect(resp.EvalCount).To(BeZero())
			Expect(logs.FilterMessage("response fields did not match").Len()).To(Equal(1))
		})

		It("keeps fields the response type does not declare in the raw document", func() {
			ex.reply = `{"models":[{"name":"llama2:7b","expires_at":"soon"}],"server":"custom"}`

			list, err := client.ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Models).To(HaveLen(1))

			var doc map[string]any
			Expect(json.Unmarshal(list.Raw, &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("server", "custom"))
		})

		It("parses a well-formed created_at", func() {
			ex.reply = `{"message":{"role":"assistant","content":"ok"},"created_at":"2024-01-02T03:04:05Z"}`

			resp, err := client.Chat(ctx, "m", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.CreatedAt.Year()).To(Equal(2024))
			Expect(resp.Raw).NotTo(BeEmpty())
		})

		It("fails with a decode error on truncated JSON", func() {
			ex.reply = `{"model":"m","response":"hi"`

			resp, err := client.Generate(ctx, "m", "p", nil)
			Expect(resp).To(BeNil())
			Expect(ollama.IsDecode(err)).To(BeTrue())
			var syntaxErr *json.SyntaxError
			Expect(errors.As(err, &syntaxErr)).To(BeTrue())
		})

		It("fails with a decode error on an empty body", func() {
			ex.reply = ""

			_, err := client.ShowModel(ctx, "m")
			Expect(ollama.IsDecode(err)).To(BeTrue())
		})
	})

	Describe("ListModels", func() {
		It("gets the tags endpoint without a body", func() {
			ex.reply = `{"models":[{"name":"llama2:7b","size":3826793677,"digest":"78e26419b446"}]}`

			list, err := client.ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Models).To(HaveLen(1))
			Expect(list.Models[0].Name).To(Equal("llama2:7b"))

			Expect(ex.method).To(Equal(http.MethodGet))
			Expect(ex.path).To(Equal("/api/tags"))
			Expect(ex.contentType).To(BeEmpty())
			Expect(ex.rawBody).To(BeEmpty())
		})

		It("returns an empty sequence when nothing is installed", func() {
			ex.reply = `{"models":[]}`

			list, err := client.ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Models).NotTo(BeNil())
			Expect(list.Models).To(BeEmpty())
		})
	})

	Describe("ShowModel", func() {
		It("posts the model name and returns the modelfile", func() {
			ex.reply = `{"modelfile":"FROM llama2:7b","template":"{{ .Prompt }}","details":{"family":"llama"}}`

			info, err := client.GetModelInfo(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Modelfile).To(Equal("FROM llama2:7b"))
			Expect(info.Details.Family).To(Equal("llama"))

			Expect(ex.path).To(Equal("/api/show"))
			Expect(ex.body()).To(Equal(map[string]any{"name": "llama2:7b"}))
		})
	})

	Describe("Chat", func() {
		It("preserves message order and returns the assistant message", func() {
			ex.reply = `{"model":"llama2:7b","message":{"role":"assistant","content":"Yes!"},"done":true}`
			messages := []llm.Message{
				llm.UserMessage("Let's play a game."),
				llm.AssistantMessage("Sure, pick a number."),
				llm.UserMessage("Is it 7?"),
			}

			resp, err := client.Chat(ctx, "llama2:7b", messages, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.Role).To(Equal("assistant"))
			Expect(resp.Message.Content).To(Equal("Yes!"))

			Expect(ex.path).To(Equal("/api/chat"))
			body := ex.body()
			Expect(body).To(HaveKeyWithValue("stream", false))
			Expect(body["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "Let's play a game."},
				map[string]any{"role": "assistant", "content": "Sure, pick a number."},
				map[string]any{"role": "user", "content": "Is it 7?"},
			}))
		})

		It("sends an empty message list rather than null", func() {
			ex.reply = `{"message":{"role":"assistant","content":""}}`

			_, err := client.Chat(ctx, "llama2:7b", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.body()).To(HaveKeyWithValue("messages", []any{}))
		})
	})

	Describe("PullModel", func() {
		It("posts only the model name", func() {
			ex.reply = "{\"status\":\"success\"}\n"

			_, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.path).To(Equal("/api/pull"))
			Expect(ex.contentType).To(Equal("application/json"))
			Expect(ex.body()).To(Equal(map[string]any{"name": "llama2:7b"}))
		})

		It("returns only the last line", func() {
			ex.reply = "{\"status\":\"downloading\"}\n{\"status\":\"success\"}\n"

			line, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Map()).To(Equal(map[string]any{"status": "success"}))
			Expect(line.Success()).To(BeTrue())
		})

		It("discards trailing blank lines before picking the last", func() {
			ex.reply = "{\"status\":\"pulling manifest\"}\n{\"status\":\"success\"}\n\n\n"

			line, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Progress.Status).To(Equal("success"))
		})

		It("returns the Invalid JSON record for a malformed final line", func() {
			ex.reply = "{\"status\":\"downloading\"}\nconnection reset by peer"

			line, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Map()).To(Equal(map[string]any{
				"error": "Invalid JSON",
				"line":  "connection reset by peer",
			}))
		})

		It("ignores malformed intermediate lines", func() {
			ex.reply = "garbage\n{\"status\":\"success\"}"

			line, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Success()).To(BeTrue())
		})

		It("returns a terminal error line as data", func() {
			ex.reply = "{\"status\":\"pulling manifest\"}\n{\"error\":\"pull model manifest: file does not exist\"}\n"

			line, err := client.PullModel(ctx, "ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(line.Map()).To(Equal(map[string]any{"error": "pull model manifest: file does not exist"}))
			Expect(line.Err()).To(HaveOccurred())
		})

		It("fails with a decode error when the body has no lines", func() {
			ex.reply = "\n"

			_, err := client.PullModel(ctx, "llama2:7b")
			Expect(ollama.IsDecode(err)).To(BeTrue())
			Expect(errors.Is(err, ollama.ErrEmptyPull)).To(BeTrue())
		})

		It("exposes every line through PullModelLines", func() {
			ex.reply = "{\"status\":\"a\"}\nbad\n{\"status\":\"b\"}\n"

			lines, err := client.PullModelLines(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(3))
			Expect(lines[1].Malformed).To(BeTrue())
		})

		It("streams each line to the callback and agrees on the last one", func() {
			ex.reply = "{\"status\":\"a\"}\n\nbad\n{\"status\":\"success\"}"

			var seen []string
			last, err := client.PullModelStream(ctx, "llama2:7b", func(line ollama.PullLine) {
				seen = append(seen, line.Raw)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]string{`{"status":"a"}`, "bad", `{"status":"success"}`}))

			buffered, err := client.PullModel(ctx, "llama2:7b")
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(Equal(buffered))
		})

		It("fails the streaming variant on an empty body", func() {
			ex.reply = ""

			_, err := client.PullModelStream(ctx, "llama2:7b", nil)
			Expect(errors.Is(err, ollama.ErrEmptyPull)).To(BeTrue())
		})
	})

	Describe("failures", func() {
		calls := map[string]func(c *ollama.Client) error{
			"generate": func(c *ollama.Client) error {
				_, err := c.Generate(context.Background(), "m", "p", nil)
				return err
			},
			"list models": func(c *ollama.Client) error {
				_, err := c.ListModels(context.Background())
				return err
			},
			"pull model": func(c *ollama.Client) error {
				_, err := c.PullModel(context.Background(), "m")
				return err
			},
			"show model": func(c *ollama.Client) error {
				_, err := c.ShowModel(context.Background(), "m")
				return err
			},
			"chat": func(c *ollama.Client) error {
				_, err := c.Chat(context.Background(), "m", []llm.Message{llm.UserMessage("hi")}, nil)
				return err
			},
		}

		for name, call := range calls {
			It("reports HTTP 404 with its status code for "+name, func() {
				ex.status = http.StatusNotFound
				ex.reply = `{"error":"model \"m\" not found, try pulling it first"}`

				err := call(client)
				Expect(err).To(HaveOccurred())
				code, ok := ollama.StatusCode(err)
				Expect(ok).To(BeTrue())
				Expect(code).To(Equal(http.StatusNotFound))
				Expect(ollama.IsNotFound(err)).To(BeTrue())

				var reqErr *ollama.RequestError
				Expect(errors.As(err, &reqErr)).To(BeTrue())
				Expect(reqErr.Op).To(Equal(name))
				Expect(reqErr.Message).To(ContainSubstring("not found"))
			})

			It("reports HTTP 500 with its status code for "+name, func() {
				ex.status = http.StatusInternalServerError
				ex.reply = "internal failure"

				err := call(client)
				code, ok := ollama.StatusCode(err)
				Expect(ok).To(BeTrue())
				Expect(code).To(Equal(http.StatusInternalServerError))
				Expect(err.Error()).To(ContainSubstring("status: 500"))
			})

			It("reports a transport error for "+name+" when the server is gone", func() {
				server.Close()

				err := call(client)
				Expect(ollama.IsTransport(err)).To(BeTrue())
				Expect(errors.Unwrap(err)).NotTo(BeNil())
			})
		}

		for _, name := range []string{"generate", "list models", "show model", "chat"} {
			call := calls[name]
			It("reports a decode error for a malformed "+name+" document", func() {
				ex.reply = `{"response": "cut off`

				err := call(client)
				Expect(ollama.IsDecode(err)).To(BeTrue())
			})
		}

		It("logs the failure before returning it", func() {
			ex.status = http.StatusInternalServerError

			_, err := client.Generate(ctx, "llama2:7b", "hi", nil)
			Expect(err).To(HaveOccurred())

			entries := logs.FilterMessage("error generating completion").All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Level).To(Equal(zapcore.ErrorLevel))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("status", int64(500)))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("op", "generate"))
		})

		It("wraps a cancelled context as a transport error", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := client.ListModels(cancelled)
			Expect(ollama.IsTransport(err)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})
})
