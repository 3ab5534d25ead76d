package ollama_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaclient/pkg/ollama"
)

var _ = Describe("Pull lines", func() {
	Describe("ParseLine", func() {
		It("decodes a progress object", func() {
			line := ollama.ParseLine(`{"status":"downloading","digest":"sha256:abc","total":100,"completed":40}`)

			Expect(line.OK()).To(BeTrue())
			Expect(line.Progress.Status).To(Equal("downloading"))
			Expect(line.Progress.Completed).To(Equal(int64(40)))
			Expect(line.Progress.Percent()).To(BeNumerically("~", 40.0))
			Expect(line.Map()).To(HaveKeyWithValue("digest", "sha256:abc"))
		})

		It("keeps unknown fields in the untyped view", func() {
			line := ollama.ParseLine(`{"status":"success","extra":true}`)

			Expect(line.Map()).To(Equal(map[string]any{"status": "success", "extra": true}))
		})

		It("substitutes the Invalid JSON record for unparsable text", func() {
			line := ollama.ParseLine("not json {")

			Expect(line.Malformed).To(BeTrue())
			Expect(line.Raw).To(Equal("not json {"))
			Expect(line.Map()).To(Equal(map[string]any{"error": "Invalid JSON", "line": "not json {"}))

			var invalid *ollama.InvalidLineError
			Expect(errors.As(line.Err(), &invalid)).To(BeTrue())
			Expect(invalid.Line).To(Equal("not json {"))
		})

		It("accepts a JSON value that is not an object", func() {
			line := ollama.ParseLine("42")

			Expect(line.OK()).To(BeTrue())
			Expect(line.Value).To(Equal(float64(42)))
			Expect(line.Map()).To(BeNil())
		})

		It("tolerates a trailing carriage return", func() {
			line := ollama.ParseLine("{\"status\":\"success\"}\r")

			Expect(line.Success()).To(BeTrue())
		})

		It("reports a terminal server error through Err", func() {
			line := ollama.ParseLine(`{"error":"pull model manifest: file does not exist"}`)

			Expect(line.OK()).To(BeTrue())
			Expect(line.Success()).To(BeFalse())
			Expect(line.Err()).To(MatchError(ContainSubstring("file does not exist")))
		})
	})

	Describe("ParseLines", func() {
		It("keeps order and drops empty lines", func() {
			lines := ollama.ParseLines("{\"status\":\"a\"}\n\n{\"status\":\"b\"}\n")

			Expect(lines).To(HaveLen(2))
			Expect(lines[0].Progress.Status).To(Equal("a"))
			Expect(lines[1].Progress.Status).To(Equal("b"))
		})

		It("keeps whitespace-only lines as malformed", func() {
			lines := ollama.ParseLines("{\"status\":\"a\"}\n   \n")

			Expect(lines).To(HaveLen(2))
			Expect(lines[1].Malformed).To(BeTrue())
			Expect(lines[1].Raw).To(Equal("   "))
		})

		It("returns nothing for an empty body", func() {
			Expect(ollama.ParseLines("")).To(BeEmpty())
			Expect(ollama.ParseLines("\n\n")).To(BeEmpty())
		})
	})
})
