package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zonehub/zonehub-go/pkg/log"
)

// Framing constants.
const (
	// DefaultMaxMessageSize is the default maximum message size (64 KB).
	DefaultMaxMessageSize = 65536

	// HeartbeatByte is the keep-alive byte sent by the hub between values.
	HeartbeatByte = 0x00

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	// Larger frames are truncated in log events to avoid excessive memory usage.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrMessageTooLarge indicates the message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates an empty message.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrMalformed indicates bytes that cannot start or form a JSON object.
	ErrMalformed = errors.New("malformed message")
)

// MalformedError describes input the framer or decoder rejected.
type MalformedError struct {
	// Data is the offending frame or byte, truncated for logging.
	Data []byte

	// Err is the underlying cause, if any.
	Err error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message %q: %v", e.Data, e.Err)
	}
	return fmt.Sprintf("malformed message %q", e.Data)
}

// Unwrap allows errors.Is(err, ErrMalformed) and matching the cause.
func (e *MalformedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

func newMalformed(data []byte, cause error) *MalformedError {
	if len(data) > MaxLogFrameDataSize {
		data = data[:MaxLogFrameDataSize]
	}
	return &MalformedError{Data: append([]byte(nil), data...), Err: cause}
}

// FrameWriter writes complete JSON values to an underlying writer.
type FrameWriter struct {
	w              io.Writer
	maxMessageSize int
	mu             sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return NewFrameWriterWithMaxSize(w, DefaultMaxMessageSize)
}

// NewFrameWriterWithMaxSize creates a frame writer with a custom max size.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize int) *FrameWriter {
	return &FrameWriter{
		w:              w,
		maxMessageSize: maxSize,
	}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// WriteFrame writes one value. The hub needs no delimiter.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if len(data) > fw.maxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), fw.maxMessageSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.connID, data, log.DirectionOut))
	}

	return nil
}

// FrameReader splits a byte stream into JSON objects and heartbeats.
//
// Scan state survives read errors, so a ReadFrame interrupted by a deadline
// can be retried without losing a partially received value.
type FrameReader struct {
	r              *bufio.Reader
	maxMessageSize int

	buf      []byte
	depth    int
	inString bool
	escaped  bool

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return NewFrameReaderWithMaxSize(r, DefaultMaxMessageSize)
}

// NewFrameReaderWithMaxSize creates a frame reader with a custom max size.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize int) *FrameReader {
	return &FrameReader{
		r:              bufio.NewReader(r),
		maxMessageSize: maxSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// ReadFrame reads the next value. It returns (nil, nil) for a heartbeat.
// Bytes that cannot start an object yield a *MalformedError; the reader
// stays usable afterwards.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && fr.depth > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if fr.depth == 0 {
			switch {
			case b == HeartbeatByte:
				if fr.logger != nil {
					ev := makeFrameEvent(fr.connID, []byte{b}, log.DirectionIn)
					ev.Category = log.CategoryHeartbeat
					fr.logger.Log(ev)
				}
				return nil, nil
			case isSpace(b):
				continue
			case b == '{':
				fr.buf = append(fr.buf[:0], b)
				fr.depth = 1
				continue
			default:
				return nil, newMalformed([]byte{b}, nil)
			}
		}

		fr.buf = append(fr.buf, b)
		if len(fr.buf) > fr.maxMessageSize {
			fr.resetScan()
			return nil, fmt.Errorf("%w: exceeds %d", ErrMessageTooLarge, fr.maxMessageSize)
		}

		if fr.inString {
			switch {
			case fr.escaped:
				fr.escaped = false
			case b == '\\':
				fr.escaped = true
			case b == '"':
				fr.inString = false
			}
			continue
		}

		switch b {
		case '"':
			fr.inString = true
		case '{', '[':
			fr.depth++
		case '}', ']':
			fr.depth--
		}

		if fr.depth == 0 {
			frame := append([]byte(nil), fr.buf...)
			fr.resetScan()
			if fr.logger != nil {
				fr.logger.Log(makeFrameEvent(fr.connID, frame, log.DirectionIn))
			}
			return frame, nil
		}
	}
}

func (fr *FrameReader) resetScan() {
	fr.buf = fr.buf[:0]
	fr.depth = 0
	fr.inString = false
	fr.escaped = false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(connID string, data []byte, direction log.Direction) log.Event {
	frameData := data
	truncated := false

	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      len(data),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize creates a framer with a custom max message size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize int) *Framer {
	return &Framer{
		FrameReader: NewFrameReaderWithMaxSize(rw, maxSize),
		FrameWriter: NewFrameWriterWithMaxSize(rw, maxSize),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.FrameReader.SetLogger(logger, connID)
	f.FrameWriter.SetLogger(logger, connID)
}
