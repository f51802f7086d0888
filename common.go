package kvrouter

import (
	"fmt"
	"net/url"
	"strings"
)

// Replies written without contacting the backend.
const (
	EmptyAck   = "\r\n"
	UnknownAck = "OK\r\n"
)

// Form field names understood by the router and the backend.
const (
	FieldCmd    = "cmd"
	FieldKey    = "key"
	FieldValue  = "value"
	FieldIP     = "ip"
	FieldPort   = "port"
	FieldWeight = "weight"
)

// Mode selects which commands a router deployment accepts.
type Mode uint16

const (
	// StoreMode accepts SET, GET and REM.
	StoreMode Mode = iota
	// RegistryMode additionally accepts ADD and DEL for weighted backend nodes.
	RegistryMode
)

func (m Mode) String() string {
	switch m {
	case StoreMode:
		return "store"
	case RegistryMode:
		return "registry"
	default:
		return fmt.Sprintf("mode(%d)", uint16(m))
	}
}

// ParseMode accepts "store" or "registry" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "store":
		return StoreMode, nil
	case "registry":
		return RegistryMode, nil
	}
	return 0, fmt.Errorf("unknown mode %q, expected store or registry", s)
}

// Field is one name=value pair of an outbound form.
type Field struct {
	Name  string
	Value string
}

// OutboundRequest is the form posted to the backend. The backend parses the
// body positionally, so fields keep their order and cmd always comes first.
type OutboundRequest struct {
	Fields []Field
}

func newOutboundRequest(cmd string, fields ...Field) *OutboundRequest {
	return &OutboundRequest{
		Fields: append([]Field{{FieldCmd, cmd}}, fields...),
	}
}

// Command returns the value of the leading cmd field.
func (r *OutboundRequest) Command() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0].Value
}

// Encode renders the request as an urlencoded form body in field order.
func (r *OutboundRequest) Encode() string {
	var b strings.Builder
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// Values returns the fields as url.Values; repeated names keep their order.
func (r *OutboundRequest) Values() url.Values {
	v := make(url.Values, len(r.Fields))
	for _, f := range r.Fields {
		v.Add(f.Name, f.Value)
	}
	return v
}

func (r *OutboundRequest) String() string {
	return r.Encode()
}
