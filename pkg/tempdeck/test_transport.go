package tempdeck

// TestTransport is a scripted Transport standing in for the firmware:
// queue the lines the device would send, then inspect the raw commands
// the controller wrote.
type TestTransport struct {
	writes []string
	script []scriptEntry
	closed bool
}

type scriptEntry struct {
	line    string
	timeout bool
}

func NewTestTransport() *TestTransport {
	return &TestTransport{}
}

// QueueLines appends response lines to the script. Lines are queued
// without terminators; ReadLine adds the newline the firmware would send.
func (t *TestTransport) QueueLines(lines ...string) {
	for _, line := range lines {
		t.script = append(t.script, scriptEntry{line: line})
	}
}

// QueueAck appends the standard two-line ok acknowledgment.
func (t *TestTransport) QueueAck() {
	t.QueueLines(ackLine, ackLine)
}

// QueueTimeout appends an entry that fails the next read with
// ErrReadTimeout, as a silent device would.
func (t *TestTransport) QueueTimeout() {
	t.script = append(t.script, scriptEntry{timeout: true})
}

// QueueIdentify scripts a complete M115 exchange.
func (t *TestTransport) QueueIdentify(model, serial, version string) {
	t.QueueLines("model:" + model + " serial:" + serial + " version:" + version)
	t.QueueAck()
}

// Writes returns every raw write observed, terminators included.
func (t *TestTransport) Writes() []string {
	return t.writes
}

// Remaining reports how many scripted entries were never consumed.
func (t *TestTransport) Remaining() int {
	return len(t.script)
}

func (t *TestTransport) Closed() bool {
	return t.closed
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *TestTransport) ReadLine() (string, error) {
	if len(t.script) == 0 {
		return "", ErrReadTimeout
	}
	entry := t.script[0]
	t.script = t.script[1:]
	if entry.timeout {
		return "", ErrReadTimeout
	}
	return entry.line + "\n", nil
}

func (t *TestTransport) Close() error {
	t.closed = true
	return nil
}
