package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxLineSize caps a single envelope line. Large chat snapshots fit well
// under this; anything bigger is a protocol violation.
const maxLineSize = 1 << 20

// Writer encodes envelopes as JSON lines. Safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send marshals an envelope and writes it as one JSON line.
func (w *Writer) Send(env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// SendTyped marshals data and sends an envelope with the given type and id.
func (w *Writer) SendTyped(msgType, id string, data any) error {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal data: %w", err)
		}
		raw = b
	}
	return w.Send(Envelope{Type: msgType, ID: id, Data: raw})
}

// Reader decodes JSON-line envelopes from a stream.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Read blocks until the next line is available and parses it. Returns
// io.EOF when the stream ends.
func (r *Reader) Read() (Envelope, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Envelope{}, fmt.Errorf("scan: %w", err)
		}
		return Envelope{}, io.EOF
	}
	var env Envelope
	if err := json.Unmarshal(r.scanner.Bytes(), &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

// ParseData unmarshals the Data field of an envelope into target. A nil
// Data field leaves target untouched.
func ParseData(env Envelope, target any) error {
	if env.Data == nil {
		return nil
	}
	return json.Unmarshal(env.Data, target)
}
