package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes a response document indented, with its keys and values as the
// server sent them.
func JSON(w io.Writer, doc json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return fmt.Errorf("formatting response document: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
