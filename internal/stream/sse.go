package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SetHeaders marks w as a non-buffering SSE response.
func SetHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Write frames one event onto w in `event: ...\ndata: ...\n\n` form.
// EventDone writes the literal DoneSentinel instead of JSON-encoding a
// nil body, since [DONE] is not itself JSON.
func Write(w http.ResponseWriter, ev Event) error {
	if ev.Type == EventDone {
		_, err := fmt.Fprintf(w, "data: %s\n\n", DoneSentinel)
		return err
	}

	body, err := marshalPayload(ev.Data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
		return err
	}
	for _, line := range strings.Split(body, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(w, "\n")
	return err
}

func marshalPayload(data any) (string, error) {
	if data == nil {
		return "null", nil
	}
	switch payload := data.(type) {
	case string:
		return payload, nil
	case []byte:
		return string(payload), nil
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("stream: marshaling event payload: %w", err)
		}
		return string(b), nil
	}
}
