package provider

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// eventStreamDecoder reads server-sent events from a response body. All
// supported backends stream completions as SSE.
type eventStreamDecoder struct {
	r *bufio.Reader
}

func newEventStreamDecoder(r io.Reader) *eventStreamDecoder {
	return &eventStreamDecoder{r: bufio.NewReader(r)}
}

// Next returns the data bytes for one SSE event. It returns io.EOF at the
// end of the stream or on the OpenAI-style "[DONE]" terminator.
func (d *eventStreamDecoder) Next() ([]byte, error) {
	var data []byte
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && len(data) == 0 {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" { // end of event
			break
		}
		if strings.HasPrefix(line, "data:") {
			chunk := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if chunk == "[DONE]" {
				return nil, io.EOF
			}
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
		}
	}
	return data, nil
}
