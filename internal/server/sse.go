package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// writeEvent frames ev as a single server-sent event data line.
func writeEvent(w io.Writer, ev scanner.Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	_, _ = buf.WriteString("data: ")
	_, _ = buf.Write(payload)
	_, _ = buf.WriteString("\n\n")

	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}
