package mcu

import (
	"fmt"
	"strings"
)

// Message is one dictionary entry: a command the host can send or a
// response the board sends back
type Message struct {
	ID     uint16
	Name   string
	Format string
	Params []Param
}

// Param is one "name=%x" field of a message format
type Param struct {
	Name string
	Kind string // %c, %u, %hu, %i or %.*s
}

// IsBytes reports whether the parameter is a length-prefixed byte string
func (p Param) IsBytes() bool {
	return strings.HasSuffix(p.Kind, "s")
}

// Dictionary maps message names to IDs. The board numbers messages by
// their line in the dictionary text.
type Dictionary struct {
	Messages []Message
	byName   map[string]int
}

// ParseDictionary parses "name key=%fmt ..." lines
func ParseDictionary(text string) (*Dictionary, error) {
	dict := &Dictionary{byName: make(map[string]int)}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty dictionary line %d", i)
		}

		msg := Message{
			ID:     uint16(i),
			Name:   fields[0],
			Format: strings.Join(fields[1:], " "),
		}
		for _, f := range fields[1:] {
			name, kind, ok := strings.Cut(f, "=")
			if !ok || !strings.HasPrefix(kind, "%") {
				return nil, fmt.Errorf("bad parameter %q in %s", f, msg.Name)
			}
			msg.Params = append(msg.Params, Param{Name: name, Kind: kind})
		}

		dict.byName[msg.Name] = len(dict.Messages)
		dict.Messages = append(dict.Messages, msg)
	}
	return dict, nil
}

// Lookup finds a message by name
func (d *Dictionary) Lookup(name string) (Message, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Message{}, false
	}
	return d.Messages[i], true
}

// ByID finds a message by ID
func (d *Dictionary) ByID(id uint16) (Message, bool) {
	if int(id) >= len(d.Messages) {
		return Message{}, false
	}
	return d.Messages[id], true
}
