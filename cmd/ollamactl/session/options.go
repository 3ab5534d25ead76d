package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// OptionFlags are the decoding option flags shared by generate and chat.
type OptionFlags struct {
	temperature float64
	topP        float64
	topK        int
	seed        int
	numPredict  int
	numCtx      int
	stop        []string
	set         []string
}

// Register adds the option flags to cmd.
func (o *OptionFlags) Register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&o.temperature, "temperature", 0, "Sampling temperature")
	flags.Float64Var(&o.topP, "top-p", 0, "Nucleus sampling threshold")
	flags.IntVar(&o.topK, "top-k", 0, "Top-k sampling")
	flags.IntVar(&o.seed, "seed", 0, "Random seed")
	flags.IntVar(&o.numPredict, "num-predict", 0, "Maximum tokens to generate")
	flags.IntVar(&o.numCtx, "num-ctx", 0, "Context window size")
	flags.StringArrayVar(&o.stop, "stop", nil, "Stop sequence, taken verbatim (repeatable)")
	flags.StringArrayVar(&o.set, "set", nil, "Extra request field as key=value; JSON values are decoded (repeatable)")
}

// Build returns the options for the flags that were set, or nil when none were.
func (o *OptionFlags) Build(cmd *cobra.Command) (*llm.Options, error) {
	flags := cmd.Flags()
	opts := &llm.Options{}

	if flags.Changed("temperature") {
		opts.Temperature = llm.Ptr(o.temperature)
	}
	if flags.Changed("top-p") {
		opts.TopP = llm.Ptr(o.topP)
	}
	if flags.Changed("top-k") {
		opts.TopK = llm.Ptr(o.topK)
	}
	if flags.Changed("seed") {
		opts.Seed = llm.Ptr(o.seed)
	}
	if flags.Changed("num-predict") {
		opts.NumPredict = llm.Ptr(o.numPredict)
	}
	if flags.Changed("num-ctx") {
		opts.NumCtx = llm.Ptr(o.numCtx)
	}
	opts.Stop = o.stop

	for _, kv := range o.set {
		key, value, err := ParseSet(kv)
		if err != nil {
			return nil, err
		}
		if opts.Extra == nil {
			opts.Extra = make(map[string]any)
		}
		opts.Extra[key] = value
	}

	if !opts.HasParameters() && len(opts.Extra) == 0 {
		return nil, nil
	}
	return opts, nil
}

// ParseSet splits a key=value flag. The value is decoded as JSON when it parses,
// so numbers and booleans keep their type; anything else is a string.
func ParseSet(kv string) (string, any, error) {
	key, raw, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set %q: expected key=value", kv)
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return key, raw, nil
	}
	return key, value, nil
}
