package mcu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"steppulse/host/serial"

	"github.com/google/shlex"
)

// Terminating lines of every command reply
const (
	replyOK    = "ok"
	replyError = "error"
)

// ErrTimeout is returned when the MCU does not finish a reply in time
var ErrTimeout = errors.New("timeout waiting for MCU reply")

// CommandError is an "error msg=..." reply from the MCU
type CommandError struct {
	Command string
	Msg     string
}

func (e *CommandError) Error() string {
	return e.Command + ": " + e.Msg
}

// Response is one response line: `name key=value ...`
type Response struct {
	Name   string
	Params map[string]string
}

// ParseResponse splits a response line honouring quoted values
func ParseResponse(line string) (Response, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return Response{}, err
	}
	if len(tokens) == 0 {
		return Response{}, fmt.Errorf("empty response")
	}

	resp := Response{Name: tokens[0], Params: make(map[string]string, len(tokens)-1)}
	for _, tok := range tokens[1:] {
		eq := strings.IndexByte(tok, '=')
		if eq <= 0 {
			return Response{}, fmt.Errorf("malformed field %q in %q", tok, line)
		}
		resp.Params[tok[:eq]] = tok[eq+1:]
	}
	return resp, nil
}

// MCU represents a connection to the stepper firmware console
type MCU struct {
	// Serial port
	port serial.Port

	// Bytes read but not yet consumed as a line
	pending []byte

	// Dictionary data
	dictionary *Dictionary

	// ResponseTimeout bounds the wait for one command's reply
	ResponseTimeout time.Duration

	// OnDebug receives '#' debug lines from the firmware
	OnDebug func(line string)

	// Connection state
	connected bool
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Commands  map[string]string // name -> format
	Responses map[string]string // name -> format
	Config    map[string]string // constant -> value
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		ResponseTimeout: 2 * time.Second,
	}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	// Open serial port
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	m.Attach(port)

	// Drop anything the MCU printed before we connected
	if err := port.Flush(); err != nil {
		return fmt.Errorf("failed to flush serial port: %w", err)
	}
	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port serial.Port) {
	m.port = port
	m.pending = m.pending[:0]
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.connected = false
	if m.port != nil {
		return m.port.Close()
	}
	return nil
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// Send writes one command line and collects the response lines up to the
// terminating "ok". An "error" reply is returned as a *CommandError along
// with any responses sent before it.
func (m *MCU) Send(command string) ([]Response, error) {
	if !m.connected {
		return nil, fmt.Errorf("not connected to MCU")
	}

	command = strings.TrimSpace(command)
	if _, err := io.WriteString(m.port, command+"\n"); err != nil {
		return nil, fmt.Errorf("failed to send %q: %w", command, err)
	}

	name := command
	if sp := strings.IndexByte(command, ' '); sp > 0 {
		name = command[:sp]
	}

	var responses []Response
	deadline := time.Now().Add(m.ResponseTimeout)
	for {
		line, err := m.readLine(deadline)
		if err != nil {
			return responses, fmt.Errorf("%s: %w", name, err)
		}

		switch {
		case line == "":
			continue
		case line[0] == '#':
			if m.OnDebug != nil {
				m.OnDebug(strings.TrimSpace(line[1:]))
			}
			continue
		case line == replyOK:
			return responses, nil
		}

		resp, err := ParseResponse(line)
		if err != nil {
			return responses, err
		}
		if resp.Name == replyError {
			return responses, &CommandError{Command: name, Msg: resp.Params["msg"]}
		}
		responses = append(responses, resp)
	}
}

// readLine returns the next line without its terminator.
// A read timeout on the port shows up as (0, nil) or io.EOF; both are
// retried until deadline.
func (m *MCU) readLine(deadline time.Time) (string, error) {
	buf := make([]byte, 64)
	for {
		if i := bytes.IndexByte(m.pending, '\n'); i >= 0 {
			line := strings.TrimRight(string(m.pending[:i]), "\r")
			m.pending = append(m.pending[:0], m.pending[i+1:]...)
			return line, nil
		}

		if !time.Now().Before(deadline) {
			return "", ErrTimeout
		}

		n, err := m.port.Read(buf)
		m.pending = append(m.pending, buf[:n]...)
		if err != nil && err != io.EOF {
			return "", err
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// RetrieveDictionary sends identify and parses the dictionary lines
func (m *MCU) RetrieveDictionary() error {
	responses, err := m.Send("identify")
	if err != nil {
		return fmt.Errorf("failed to retrieve dictionary: %w", err)
	}

	dict := &Dictionary{
		Commands:  make(map[string]string),
		Responses: make(map[string]string),
		Config:    make(map[string]string),
	}
	for _, resp := range responses {
		if resp.Name != "identify_response" {
			continue
		}
		parseDictionaryLine(dict, resp.Params["data"])
	}
	m.dictionary = dict
	return nil
}

func parseDictionaryLine(dict *Dictionary, line string) {
	if rest, ok := strings.CutPrefix(line, "constant "); ok {
		if eq := strings.IndexByte(rest, '='); eq > 0 {
			dict.Config[rest[:eq]] = rest[eq+1:]
		}
		return
	}

	target := dict.Commands
	if rest, ok := strings.CutPrefix(line, "response "); ok {
		target = dict.Responses
		line = rest
	}
	name, format, _ := strings.Cut(line, " ")
	if name != "" {
		target[name] = format
	}
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// PrintDictionary prints a summary of the dictionary
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}

	fmt.Fprintln(w, "\n=== MCU Dictionary ===")

	fmt.Fprintln(w, "Config:")
	for _, k := range sortedKeys(m.dictionary.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, m.dictionary.Config[k])
	}

	fmt.Fprintf(w, "\nCommands (%d):\n", len(m.dictionary.Commands))
	for _, name := range sortedKeys(m.dictionary.Commands) {
		fmt.Fprintf(w, "  %s %s\n", name, m.dictionary.Commands[name])
	}

	fmt.Fprintf(w, "\nResponses (%d):\n", len(m.dictionary.Responses))
	for _, name := range sortedKeys(m.dictionary.Responses) {
		fmt.Fprintf(w, "  %s %s\n", name, m.dictionary.Responses[name])
	}

	fmt.Fprintln(w, "======================")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
