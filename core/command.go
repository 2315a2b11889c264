package core

import (
	"errors"
	"sync"

	"dactick/protocol"
)

// CommandHandler handles one command; it decodes its own arguments
type CommandHandler func(data *[]byte) error

// Command is an entry in the command dictionary. Responses (MCU to host)
// have a nil handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "value=%hu"
	Handler CommandHandler
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotResponse    = errors.New("command is not a response")
	ErrNoTransport    = errors.New("transport not configured")
)

// CommandRegistry assigns IDs to commands in registration order
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   []*Command
	nameToID   map[string]uint16
	dictionary string
}

var globalRegistry = NewCommandRegistry()

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the first ID.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.nameToID[name]; ok {
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.nameToID[name] = id

	line := name
	if format != "" {
		line += " " + format
	}
	r.dictionary += line + "\n"
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
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

// Count returns the number of registered commands and responses
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("unknown command ID: " + itoa(int(cmdID)))
	}
	if cmd.Handler == nil {
		return ErrNotResponse
	}
	return cmd.Handler(data)
}

// GetDictionary returns one "name format" line per ID, in ID order
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// RegisterCommand registers a command with the global registry
func RegisterCommand(name, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse registers a response message (MCU -> host)
func RegisterResponse(name, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// DispatchCommand dispatches through the global registry; it has the
// protocol.CommandHandler signature so it can be handed to a Transport.
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// GetGlobalRegistry returns the global command registry
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// ResponseSender frames a response; protocol.Transport.SendCommand fits
type ResponseSender func(cmdID uint16, args func(output protocol.OutputBuffer)) error

var responseSender ResponseSender

// SetResponseSender is called by target code once its transport exists
func SetResponseSender(s ResponseSender) {
	responseSender = s
}

// SendResponse sends a registered response by name
func SendResponse(name string, args func(output protocol.OutputBuffer)) error {
	if responseSender == nil {
		return ErrNoTransport
	}
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		return ErrUnknownCommand
	}
	return responseSender(cmd.ID, args)
}
