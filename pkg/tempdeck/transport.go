package tempdeck

import (
	"bytes"
	"errors"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout bounds every line read. The firmware is line buffered,
// so half a second of silence means no response is coming. This value is
// part of the protocol contract, not a tunable default.
const DefaultReadTimeout = 500 * time.Millisecond

// ErrReadTimeout is returned by Transport.ReadLine when the read timeout
// expires before a full newline-terminated line has arrived.
var ErrReadTimeout = errors.New("tempdeck: serial read timed out")

// Transport is the byte-oriented line-framed channel the controller drives.
// Write sends raw bytes. ReadLine returns the next line including its
// trailing newline, or ErrReadTimeout if the timeout fires first.
type Transport interface {
	io.Writer
	ReadLine() (string, error)
}

// serialTransport frames a raw serial port into lines. Bytes received past
// a newline are kept in pending so back-to-back responses (data line plus
// the two ok lines) are never lost between ReadLine calls.
type serialTransport struct {
	rw      io.ReadWriteCloser
	timeout time.Duration
	pending []byte
}

// openSerialTransport opens the named port with default 8N1 framing and
// the protocol read timeout. The tempdeck is a USB CDC device, so baud
// rate and flow control settings are ignored by the hardware. Open errors
// from the serial layer are passed through unmodified.
func openSerialTransport(portname string, timeout time.Duration) (*serialTransport, error) {
	mode := &serial.Mode{}
	port, err := serial.Open(portname, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}
	return &serialTransport{rw: port, timeout: timeout}, nil
}

func (t *serialTransport) Write(p []byte) (int, error) {
	return t.rw.Write(p)
}

func (t *serialTransport) ReadLine() (string, error) {
	deadline := time.Now().Add(t.timeout)
	buf := make([]byte, 64)
	for {
		if i := bytes.IndexByte(t.pending, '\n'); i >= 0 {
			line := string(t.pending[:i+1])
			t.pending = t.pending[i+1:]
			return line, nil
		}
		if !time.Now().Before(deadline) {
			return "", ErrReadTimeout
		}
		n, err := t.rw.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// The port read timeout elapsed with nothing received.
			return "", ErrReadTimeout
		}
		t.pending = append(t.pending, buf[:n]...)
	}
}

func (t *serialTransport) Close() error {
	return t.rw.Close()
}
