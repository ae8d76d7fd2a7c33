package core

import (
	"strings"

	"github.com/google/shlex"
)

// Terminating lines of every command reply
const (
	ReplyOK    = "ok"
	ReplyError = "error"
)

// ResponseWriter emits one response line (without the newline)
type ResponseWriter func(line string)

// Console parses text command lines and dispatches them to a registry.
// Each processed line produces zero or more response lines followed by
// a single "ok" or "error msg=..." line.
type Console struct {
	registry *CommandRegistry
	write    ResponseWriter
}

// NewConsole creates a console bound to a registry and an output
func NewConsole(registry *CommandRegistry, write ResponseWriter) *Console {
	return &Console{registry: registry, write: write}
}

// Send implements Reply
func (c *Console) Send(name string, fields ...Field) {
	c.write(FormatResponse(name, fields...))
}

// ProcessLine handles one command line.
// Blank lines and lines starting with '#' are ignored.
func (c *Console) ProcessLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil
	}

	name, args, err := ParseCommandLine(line)
	if err == nil {
		err = c.registry.Dispatch(name, args, c)
	}
	if err != nil {
		DebugPrintln("[CONSOLE] " + name + " failed: " + err.Error())
		c.Send(ReplyError, F("msg", err.Error()))
		return err
	}
	c.write(ReplyOK)
	return nil
}

// ParseCommandLine splits `name key=value ...` honouring shell quoting
func ParseCommandLine(line string) (string, Args, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, ErrBadArg
	}

	args := make(Args, len(tokens)-1)
	for _, tok := range tokens[1:] {
		eq := strings.IndexByte(tok, '=')
		if eq <= 0 {
			return tokens[0], nil, &ArgError{Key: tok, Err: ErrBadArg}
		}
		args[tok[:eq]] = tok[eq+1:]
	}
	return tokens[0], args, nil
}

// FormatResponse renders `name key=value ...`
func FormatResponse(name string, fields ...Field) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		sb.WriteString(valueToString(f.Value))
	}
	return sb.String()
}

// InitCoreCommands registers the built-in commands with the global registry
func InitCoreCommands() {
	RegisterCoreCommands(globalRegistry)
}

// RegisterCoreCommands registers identify, set_debug and dump_events
func RegisterCoreCommands(r *CommandRegistry) {
	r.Register("identify", "", func(args Args, reply Reply) error {
		for _, line := range strings.Split(strings.TrimRight(r.GetDictionary(), "\n"), "\n") {
			if line != "" {
				reply.Send("identify_response", F("data", line))
			}
		}
		return nil
	})
	r.Register("identify_response", "data=%s", nil)

	r.Register("set_debug", "enable=%c", func(args Args, reply Reply) error {
		enable, err := args.Bool("enable")
		if err != nil {
			return err
		}
		SetDebugEnabled(enable)
		return nil
	})

	r.Register("dump_events", "", func(args Args, reply Reply) error {
		for _, evt := range Events() {
			reply.Send("event",
				F("name", EventName(evt.EventType)),
				F("seq", evt.Seq),
				F("v1", evt.Value1),
				F("v2", evt.Value2))
		}
		return nil
	})
	r.Register("event", "name=%s seq=%u v1=%u v2=%u", nil)
}
