package core

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Field is one key=value pair of a response line
type Field struct {
	Key   string
	Value interface{}
}

// F builds a response field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Reply sends response lines back to the host while a command runs
type Reply interface {
	Send(name string, fields ...Field)
}

// CommandHandler handles one console command.
// The handler is responsible for reading its own arguments.
type CommandHandler func(args Args, reply Reply) error

// Command represents a console command or response message
type Command struct {
	ID      uint16
	Name    string
	Format  string // Format string for dictionary (e.g., "omega=%f dir=%c")
	Handler CommandHandler
	params  map[string]bool
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   map[uint16]*Command
	nameToID   map[string]uint16
	constants  map[string]interface{}
	nextID     uint16
	dictionary string // Serialized dictionary for host
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands:  make(map[uint16]*Command),
		nameToID:  make(map[string]uint16),
		constants: make(map[string]interface{}),
	}
}

// RegisterCommand registers a command handler in the global registry
func RegisterCommand(name string, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse registers a response message (MCU -> Host)
// This is a convenience wrapper around RegisterCommand with a nil handler
func RegisterResponse(name string, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// RegisterConstant registers a firmware constant in the global registry
func RegisterConstant(name string, value interface{}) {
	globalRegistry.AddConstant(name, value)
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check if already registered
	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++

	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
		params:  formatParams(format),
	}
	r.nameToID[name] = id

	r.rebuildDictionary()

	return id
}

// AddConstant adds a constant reported with the dictionary
func (r *CommandRegistry) AddConstant(name string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constants[name] = value
	r.rebuildDictionary()
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// GetCommandByName retrieves a command by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered under name
func (r *CommandRegistry) Dispatch(name string, args Args, reply Reply) error {
	cmd, ok := r.GetCommandByName(name)
	if !ok {
		return errors.New("unknown command: " + name)
	}
	if cmd.Handler == nil {
		return errors.New("not a command: " + name)
	}
	for key := range args {
		if !cmd.params[key] {
			return errors.New("unknown argument: " + key)
		}
	}
	return cmd.Handler(args, reply)
}

// GetDictionary returns the command dictionary string
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// GetCommandsAndResponses returns commands and responses keyed by their format line
// Commands have handlers (host->MCU), responses have nil handlers (MCU->host)
func (r *CommandRegistry) GetCommandsAndResponses() (map[string]int, map[string]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make(map[string]int)
	responses := make(map[string]int)

	for i := uint16(0); i < r.nextID; i++ {
		cmd, ok := r.commands[i]
		if !ok {
			continue
		}
		if cmd.Handler != nil {
			commands[formatLine(cmd)] = int(cmd.ID)
		} else {
			responses[formatLine(cmd)] = int(cmd.ID)
		}
	}

	return commands, responses
}

// rebuildDictionary rebuilds the dictionary string.
// Lines are "name format" for commands, "response name format" for
// responses and "constant NAME=value" for constants.
// Must be called with lock held
func (r *CommandRegistry) rebuildDictionary() {
	var sb strings.Builder
	for i := uint16(0); i < r.nextID; i++ {
		if cmd, ok := r.commands[i]; ok {
			if cmd.Handler == nil {
				sb.WriteString("response ")
			}
			sb.WriteString(formatLine(cmd))
			sb.WriteByte('\n')
		}
	}

	names := make([]string, 0, len(r.constants))
	for name := range r.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString("constant " + name + "=" + valueToString(r.constants[name]) + "\n")
	}
	r.dictionary = sb.String()
}

func formatLine(cmd *Command) string {
	if cmd.Format == "" {
		return cmd.Name
	}
	return cmd.Name + " " + cmd.Format
}

// formatParams extracts parameter names from "a=%u b=%c"
func formatParams(format string) map[string]bool {
	params := make(map[string]bool)
	for _, part := range strings.Fields(format) {
		if eq := strings.IndexByte(part, '='); eq > 0 {
			params[part[:eq]] = true
		}
	}
	return params
}

// DispatchCommand is a convenience function using the global registry
func DispatchCommand(name string, args Args, reply Reply) error {
	return globalRegistry.Dispatch(name, args, reply)
}

// GetGlobalRegistry returns the global command registry
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// GetCommandCount returns the number of registered commands
func GetCommandCount() int {
	return globalRegistry.Count()
}
