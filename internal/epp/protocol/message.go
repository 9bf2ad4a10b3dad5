package protocol

import (
	"fmt"

	"epp-gateway/internal/epp/codec"
)

// Message is a decoded <epp> document. Exactly one field is set.
type Message struct {
	Hello    *Hello
	Greeting *Greeting
	Command  *Command
	Response *Response
}

// Marshal wraps c in an <epp> root element and serialises the document.
func Marshal(c codec.Encoder) ([]byte, error) {
	doc := codec.NewDocument()
	root := codec.Declare(&doc.Element, NS, "epp")
	if _, err := c.Encode(root); err != nil {
		return nil, err
	}
	return codec.Marshal(doc)
}

// Unmarshal parses an <epp> document. Object and extension payloads resolve
// through reg.
func Unmarshal(b []byte, reg *codec.Registry) (*Message, error) {
	doc, err := codec.Parse(b)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if !NS.Matches(root, "epp") {
		return nil, &codec.Error{Op: "decode", Path: root.FullTag(), Err: codec.ErrUnknownElement, Detail: "expected epp root"}
	}
	children := root.ChildElements()
	if len(children) != 1 {
		return nil, &codec.Error{Op: "decode", Path: "epp", Err: codec.ErrInvalid, Detail: fmt.Sprintf("expected one child, got %d", len(children))}
	}
	el := children[0]
	m := &Message{}
	var target codec.Decoder
	switch {
	case NS.Matches(el, "hello"):
		m.Hello = &Hello{}
		target = m.Hello
	case NS.Matches(el, "greeting"):
		m.Greeting = &Greeting{}
		target = m.Greeting
	case NS.Matches(el, "command"):
		m.Command = &Command{reg: reg}
		target = m.Command
	case NS.Matches(el, "response"):
		m.Response = NewResponse(reg)
		target = m.Response
	default:
		return nil, &codec.Error{Op: "decode", Path: "epp/" + el.FullTag(), Err: codec.ErrUnknownElement}
	}
	if err := target.Decode(el); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalResponse parses a document that must hold a response.
func UnmarshalResponse(b []byte, reg *codec.Registry) (*Response, error) {
	m, err := Unmarshal(b, reg)
	if err != nil {
		return nil, err
	}
	if m.Response == nil {
		return nil, unexpected("response", m)
	}
	return m.Response, nil
}

// UnmarshalGreeting parses a document that must hold a greeting.
func UnmarshalGreeting(b []byte) (*Greeting, error) {
	m, err := Unmarshal(b, nil)
	if err != nil {
		return nil, err
	}
	if m.Greeting == nil {
		return nil, unexpected("greeting", m)
	}
	return m.Greeting, nil
}

func unexpected(want string, m *Message) error {
	got := "unknown"
	switch {
	case m.Hello != nil:
		got = "hello"
	case m.Greeting != nil:
		got = "greeting"
	case m.Command != nil:
		got = "command"
	case m.Response != nil:
		got = "response"
	}
	return &codec.Error{Op: "decode", Path: "epp", Err: codec.ErrUnknownElement, Detail: "expected " + want + ", got " + got}
}

var (
	_ codec.Component = (*Hello)(nil)
	_ codec.Component = (*Greeting)(nil)
	_ codec.Component = (*Login)(nil)
	_ codec.Component = (*Logout)(nil)
	_ codec.Component = (*Command)(nil)
	_ codec.Component = (*Response)(nil)
)
