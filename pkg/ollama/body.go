package ollama

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// reservedKeys identify the request itself and are never taken from Options.Extra.
var reservedKeys = map[string]bool{
	"model":    true,
	"prompt":   true,
	"messages": true,
	"name":     true,
	"stream":   true,
}

func extraOf(opts *llm.Options) map[string]any {
	if opts == nil {
		return nil
	}
	return opts.Extra
}

// optionsKey is the nested model parameter object. Extra may contribute to it
// but never replaces it.
const optionsKey = "options"

// mergeBody encodes payload and merges extra into its top level. Extra keys win
// over typed fields except the reserved ones, which are reported to skipped and
// left as the payload has them. An "options" entry in extra is merged key by key
// into the payload's options object; named parameters keep their values.
func mergeBody(payload any, extra map[string]any, skipped func(key, reason string)) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if len(extra) == 0 {
		return data, nil
	}
	if skipped == nil {
		skipped = func(string, string) {}
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("merge options: %w", err)
	}

	for _, key := range sortedKeys(extra) {
		if reservedKeys[key] {
			skipped(key, "reserved")
			continue
		}
		if key == optionsKey {
			merged, err := mergeOptions(fields[optionsKey], extra[key], skipped)
			if err != nil {
				return nil, err
			}
			fields[optionsKey] = merged
			continue
		}
		raw, err := json.Marshal(extra[key])
		if err != nil {
			return nil, fmt.Errorf("marshal option %q: %w", key, err)
		}
		fields[key] = raw
	}

	return json.Marshal(fields)
}

// mergeOptions adds the entries of value, which must encode as a JSON object,
// to the existing options object. Keys already set there are reported to skipped.
func mergeOptions(existing json.RawMessage, value any, skipped func(key, reason string)) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal option %q: %w", optionsKey, err)
	}
	var added map[string]json.RawMessage
	if err := json.Unmarshal(data, &added); err != nil || added == nil {
		return nil, fmt.Errorf("option %q must be an object, got %T", optionsKey, value)
	}

	opts := make(map[string]json.RawMessage)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &opts); err != nil {
			return nil, fmt.Errorf("merge options: %w", err)
		}
	}
	for _, key := range sortedKeys(added) {
		if _, set := opts[key]; set {
			skipped(optionsKey+"."+key, "set by a named parameter")
			continue
		}
		opts[key] = added[key]
	}
	return json.Marshal(opts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
