package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const dataPrefix = "data: "

// Scanner splits a Server-Sent-Events response body into complete frame
// payloads. Frames are separated by a blank line; the payload line carries a
// "data: " prefix which is stripped before the payload is returned. Chunk
// boundaries in the underlying reader are arbitrary, so a frame may arrive
// across any number of reads.
//
// A Scanner is bound to one connection and cannot be reused.
type Scanner struct {
	inner *bufio.Scanner
	frame string
	err   error
}

// NewScanner creates a Scanner reading frames from r.
func NewScanner(r io.Reader) *Scanner {
	inner := bufio.NewScanner(r)
	inner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inner.Split(splitFrames)
	return &Scanner{inner: inner}
}

// Scan advances to the next complete frame. It returns false at end of
// stream or on a read error; a partial frame left in the buffer at EOF is
// discarded, not returned.
func (s *Scanner) Scan() bool {
	for s.inner.Scan() {
		payload, ok := extractPayload(s.inner.Text())
		if !ok {
			// Comment or empty record, skip it.
			continue
		}
		s.frame = payload
		return true
	}
	s.err = s.inner.Err()
	return false
}

// Frame returns the payload produced by the last successful Scan.
func (s *Scanner) Frame() string {
	return s.frame
}

// Err returns the first read error encountered, if any. A truncated trailing
// frame is not an error.
func (s *Scanner) Err() error {
	return s.err
}

// splitFrames is a bufio.SplitFunc that tokenizes on the blank-line frame
// separator. At EOF any residue that never saw its separator is dropped.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		// Incomplete final frame: consume without emitting.
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// extractPayload finds the data line inside one frame and strips its prefix.
func extractPayload(frame string) (string, bool) {
	for _, line := range strings.Split(frame, "\n") {
		if strings.HasPrefix(line, dataPrefix) {
			return strings.TrimPrefix(line, dataPrefix), true
		}
	}
	return "", false
}
