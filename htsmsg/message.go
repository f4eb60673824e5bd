// Package htsmsg implements the length-prefixed binary message format used
// by the HTSP protocol: a frame is a 4-byte big-endian body length followed
// by a sequence of typed, named fields. Maps and lists nest recursively.
package htsmsg

import "fmt"

// Message is a set of named fields. Values are one of int64, string,
// []byte, *Message or []any.
type Message struct {
	fields map[string]any
}

func New(method string) *Message {
	m := &Message{fields: make(map[string]any)}
	if method != "" {
		m.fields["method"] = method
	}
	return m
}

func (m *Message) Method() string { return m.Str("method") }

// Put stores a field, replacing any previous value under the same name.
// Integer kinds are widened to int64.
func (m *Message) Put(name string, v any) {
	switch t := v.(type) {
	case int:
		m.fields[name] = int64(t)
	case int32:
		m.fields[name] = int64(t)
	case uint32:
		m.fields[name] = int64(t)
	case int64:
		m.fields[name] = t
	case uint64:
		m.fields[name] = int64(t)
	case string:
		m.fields[name] = t
	case []byte:
		m.fields[name] = t
	case *Message:
		m.fields[name] = t
	case []any:
		m.fields[name] = t
	default:
		panic(fmt.Sprintf("htsmsg: unsupported field type %T", v))
	}
}

func (m *Message) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

func (m *Message) Int(name string, fallback int64) int64 {
	if v, ok := m.fields[name].(int64); ok {
		return v
	}
	return fallback
}

func (m *Message) Str(name string) string {
	if v, ok := m.fields[name].(string); ok {
		return v
	}
	return ""
}

func (m *Message) Bytes(name string) []byte {
	if v, ok := m.fields[name].([]byte); ok {
		return v
	}
	return nil
}

func (m *Message) Msg(name string) *Message {
	if v, ok := m.fields[name].(*Message); ok {
		return v
	}
	return nil
}

// Msgs returns the map elements of a list field.
func (m *Message) Msgs(name string) []*Message {
	list, ok := m.fields[name].([]any)
	if !ok {
		return nil
	}
	msgs := make([]*Message, 0, len(list))
	for _, v := range list {
		if msg, ok := v.(*Message); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (m *Message) Len() int { return len(m.fields) }
