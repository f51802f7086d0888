package kvrouter

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// Command names as sent in the cmd field.
const (
	CmdSet = "SET"
	CmdGet = "GET"
	CmdRem = "REM"
	CmdAdd = "ADD"
	CmdDel = "DEL"
)

// CommandSpec describes one routable command: the inbound fields it needs and
// how those fields are laid out for the backend.
type CommandSpec struct {
	Name     string
	Required []string
	build    func(in url.Values) []Field
}

// Build checks that every required field is present in the inbound form and
// returns the outbound request. All absent fields are reported, each as a
// *MissingFieldError combined with multierr.
func (c *CommandSpec) Build(in url.Values) (*OutboundRequest, error) {
	var err error
	for _, name := range c.Required {
		if _, ok := in[name]; !ok {
			err = multierr.Append(err, &MissingFieldError{Command: c.Name, Field: name})
		}
	}
	if err != nil {
		return nil, err
	}
	return newOutboundRequest(c.Name, c.build(in)...), nil
}

// CommandSet maps an uppercase command name to its spec.
type CommandSet map[string]*CommandSpec

// Lookup matches name case-insensitively.
func (s CommandSet) Lookup(name string) (*CommandSpec, bool) {
	spec, ok := s[strings.ToUpper(name)]
	return spec, ok
}

func (s CommandSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// literal copies the named fields through under their own names.
func literal(names ...string) func(url.Values) []Field {
	return func(in url.Values) []Field {
		fields := make([]Field, 0, len(names))
		for _, name := range names {
			fields = append(fields, Field{name, in.Get(name)})
		}
		return fields
	}
}

var (
	getCommand = &CommandSpec{
		Name:     CmdGet,
		Required: []string{FieldKey},
		build:    literal(FieldKey),
	}
	// SET sends the key as the field name and the value as its value. The
	// backend stores the second form pair as key=value, so this is the wire
	// format it expects.
	setCommand = &CommandSpec{
		Name:     CmdSet,
		Required: []string{FieldKey, FieldValue},
		build: func(in url.Values) []Field {
			return []Field{{in.Get(FieldKey), in.Get(FieldValue)}}
		},
	}
	remCommand = &CommandSpec{
		Name:     CmdRem,
		Required: []string{FieldKey},
		build:    literal(FieldKey),
	}
	addCommand = &CommandSpec{
		Name:     CmdAdd,
		Required: []string{FieldIP, FieldPort, FieldWeight},
		build:    literal(FieldIP, FieldPort, FieldWeight),
	}
	delCommand = &CommandSpec{
		Name:     CmdDel,
		Required: []string{FieldIP, FieldPort},
		build:    literal(FieldIP, FieldPort),
	}
)

func newCommandSet(specs ...*CommandSpec) CommandSet {
	set := make(CommandSet, len(specs))
	for _, spec := range specs {
		set[spec.Name] = spec
	}
	return set
}

var (
	storeCommands    = newCommandSet(setCommand, getCommand, remCommand)
	registryCommands = newCommandSet(setCommand, getCommand, remCommand, addCommand, delCommand)
)

// Commands returns the command set accepted in mode m. Unknown modes accept
// nothing.
func (m Mode) Commands() CommandSet {
	switch m {
	case StoreMode:
		return storeCommands
	case RegistryMode:
		return registryCommands
	default:
		return CommandSet{}
	}
}

// buildCommand builds an outbound request for a command regardless of mode.
// It backs the client's convenience calls.
func buildCommand(name string, in url.Values) (*OutboundRequest, error) {
	spec, _ := registryCommands.Lookup(name)
	return spec.Build(in)
}
