package protocol

import (
	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// Verb names the command element inside <command>.
type Verb string

const (
	VerbLogin    Verb = "login"
	VerbLogout   Verb = "logout"
	VerbCheck    Verb = "check"
	VerbInfo     Verb = "info"
	VerbCreate   Verb = "create"
	VerbUpdate   Verb = "update"
	VerbDelete   Verb = "delete"
	VerbRenew    Verb = "renew"
	VerbTransfer Verb = "transfer"
	VerbPoll     Verb = "poll"
)

// Transfer operations.
const (
	TransferRequest = "request"
	TransferQuery   = "query"
	TransferApprove = "approve"
	TransferReject  = "reject"
	TransferCancel  = "cancel"
)

// Poll operations.
const (
	PollRequest = "req"
	PollAck     = "ack"
)

// ValidTransferOp reports whether op is a transfer operation.
func ValidTransferOp(op string) bool {
	switch op {
	case TransferRequest, TransferQuery, TransferApprove, TransferReject, TransferCancel:
		return true
	}
	return false
}

// Command is a client request. Login and logout carry their payload in
// Session; object commands carry an object mapping component in Object.
type Command struct {
	Verb       Verb
	Op         string
	MsgID      string
	Session    codec.Component
	Object     codec.Component
	Extensions []codec.Component
	ClTRID     string

	reg *codec.Registry
}

func (c *Command) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("command")
	switch c.Verb {
	case VerbLogin, VerbLogout:
		w.Comp(string(c.Verb), c.Session)
	case VerbPoll:
		pw := w.Empty("poll")
		if pw != nil {
			switch c.Op {
			case PollRequest:
				pw.CreateAttr("op", c.Op)
			case PollAck:
				if c.MsgID == "" {
					w.FailDetail("poll", codec.ErrMissing, "msgID attribute")
				}
				pw.CreateAttr("op", c.Op)
				pw.CreateAttr("msgID", c.MsgID)
			default:
				w.FailDetail("poll", codec.ErrInvalid, "op "+c.Op)
			}
		}
	case VerbCheck, VerbInfo, VerbCreate, VerbUpdate, VerbDelete, VerbRenew, VerbTransfer:
		vw := w.Child(string(c.Verb))
		if c.Verb == VerbTransfer {
			if !ValidTransferOp(c.Op) {
				w.FailDetail("transfer", codec.ErrInvalid, "op "+c.Op)
			}
			vw.Attr("op", c.Op)
		}
		vw.Comp("object", c.Object)
	default:
		w.FailDetail(string(c.Verb), codec.ErrUnknownElement, "verb")
	}
	if len(c.Extensions) > 0 {
		ext := w.Child("extension")
		for _, e := range c.Extensions {
			ext.Comp("extension", e)
		}
	}
	if n := len(c.ClTRID); n > 0 && (n < 3 || n > 64) {
		w.FailDetail("clTRID", codec.ErrInvalid, "clTRID must be 3 to 64 characters")
	}
	w.OptString("clTRID", c.ClTRID)
	return w.Element(), w.Err()
}

func (c *Command) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "command")
	var verbEl *etree.Element
	if cmd := r.Element(); cmd != nil {
		for _, child := range cmd.ChildElements() {
			if child.NamespaceURI() == NS.URI && child.Tag != "extension" && child.Tag != "clTRID" {
				verbEl = child
				break
			}
		}
		if verbEl == nil {
			r.Fail("verb", codec.ErrMissing)
		}
	}
	if verbEl != nil {
		c.Verb = Verb(verbEl.Tag)
		switch c.Verb {
		case VerbLogin:
			l := &Login{}
			r.Comp("login", l)
			c.Session = l
		case VerbLogout:
			c.Session = &Logout{}
		case VerbPoll:
			c.Op = codec.Attr(verbEl, "op")
			c.MsgID = codec.Attr(verbEl, "msgID")
		default:
			c.Op = codec.Attr(verbEl, "op")
			children := verbEl.ChildElements()
			if len(children) != 1 {
				r.FailDetail(string(c.Verb), codec.ErrInvalid, "expected exactly one object element")
				break
			}
			obj, err := c.decodeComponent(children[0])
			if err != nil {
				return err
			}
			c.Object = obj
		}
	}
	if ext := r.Child("extension"); ext != nil {
		for _, e := range ext.ChildElements() {
			comp, err := c.decodeComponent(e)
			if err != nil {
				return err
			}
			c.Extensions = append(c.Extensions, comp)
		}
	}
	c.ClTRID = r.OptString("clTRID")
	return r.Err()
}

func (c *Command) decodeComponent(el *etree.Element) (codec.Component, error) {
	if c.reg == nil {
		uri, _ := codec.QName(el)
		return nil, &codec.Error{Op: "decode", Path: el.FullTag(), Err: codec.ErrUnknownElement, Detail: "no registry for namespace " + uri}
	}
	return c.reg.Decode(el)
}

// Find returns the first component of type T, as used to pick a payload out
// of resData or extension lists.
func Find[T codec.Component](comps []codec.Component) (T, bool) {
	for _, c := range comps {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
