// Package stream writes server-sent events on an echo response.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// KeepAlive is how often idle streams send a comment frame.
const KeepAlive = 25 * time.Second

// Writer emits text/event-stream frames and flushes each one.
type Writer struct {
	res *echo.Response
}

// Open sends the event-stream headers and returns a writer.
func Open(c echo.Context) *Writer {
	res := c.Response()
	h := res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()
	return &Writer{res: res}
}

// Event writes one named event with a JSON payload.
func (w *Writer) Event(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(w.res, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

// Comment writes a comment line, used as a keep-alive.
func (w *Writer) Comment(text string) error {
	if _, err := fmt.Fprintf(w.res, ": %s\n\n", text); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}
