package stream

import (
	"bufio"
	"io"
	"strings"
)

// Fragments is a source of raw stream fragments. Next returns io.EOF when
// the transport closed the stream; any other error is a read failure.
type Fragments interface {
	Next() (string, error)
}

// FragmentsFunc adapts a function to the Fragments interface.
type FragmentsFunc func() (string, error)

// Next calls f.
func (f FragmentsFunc) Next() (string, error) { return f() }

// SSEReader frames a server-sent events body into fragments, one per event.
//
// Multiple data lines of one event are joined with "\n". Lines starting with
// ":" are comments. Fields other than data (event, id, retry) are ignored.
// An event still open when the body ends is discarded, so a connection that
// drops mid-frame reads as a plain io.EOF. The one exception is an
// unterminated sentinel, which is returned before io.EOF.
type SSEReader struct {
	r *bufio.Reader
}

// NewSSEReader returns an SSEReader reading from r. Lines are not limited in
// length, so large tool call payloads arrive intact.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{r: bufio.NewReader(r)}
}

// Next returns the data of the next event.
func (s *SSEReader) Next() (string, error) {
	var data []string
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		eof := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if data != nil && !eof {
				return strings.Join(data, "\n"), nil
			}
		case strings.HasPrefix(line, ":"):
			// comment
		default:
			field, value, _ := strings.Cut(line, ":")
			if field == "data" {
				data = append(data, strings.TrimPrefix(value, " "))
			}
		}

		if eof {
			// An unfinished event is dropped, except for the sentinel.
			if pending := strings.Join(data, "\n"); strings.TrimSpace(pending) == Sentinel {
				return pending, nil
			}
			return "", io.EOF
		}
	}
}
