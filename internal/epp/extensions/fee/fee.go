// Package fee implements the RFC 8748 fee extension. Amounts are decimals and
// keep the scale the server sent.
package fee

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"epp-gateway/internal/epp/codec"
)

// NS is the fee extension namespace.
var NS = codec.Namespace{Prefix: "fee", URI: "urn:ietf:params:xml:ns:epp:fee-1.0"}

// Command names a fee can be quoted for.
const (
	CommandCreate   = "create"
	CommandDelete   = "delete"
	CommandRenew    = "renew"
	CommandUpdate   = "update"
	CommandTransfer = "transfer"
	CommandRestore  = "restore"
	CommandCustom   = "custom"
)

// When a fee is applied.
const (
	AppliedImmediate = "immediate"
	AppliedDelayed   = "delayed"
)

// Factory instantiates every fee element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindExtension, codec.Constructors{
		"check":    func() codec.Component { return &Check{} },
		"chkData":  func() codec.Component { return &CheckData{} },
		"info":     func() codec.Component { return &Info{} },
		"infData":  func() codec.Component { return &InfoData{} },
		"create":   func() codec.Component { return &Create{} },
		"renew":    func() codec.Component { return &Renew{} },
		"transfer": func() codec.Component { return &Transfer{} },
		"update":   func() codec.Component { return &Update{} },
		"creData":  func() codec.Component { return &CreateData{} },
		"renData":  func() codec.Component { return &RenewData{} },
		"trnData":  func() codec.Component { return &TransferData{} },
		"updData":  func() codec.Component { return &UpdateData{} },
		"delData":  func() codec.Component { return &DeleteData{} },
	})
}

func validCommand(name string) bool {
	switch name {
	case CommandCreate, CommandDelete, CommandRenew, CommandUpdate, CommandTransfer, CommandRestore, CommandCustom:
		return true
	}
	return false
}

// Fee is a charge. Refundable is nil when the server does not say.
type Fee struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Lang        string          `json:"lang,omitempty"`
	Refundable  *bool           `json:"refundable,omitempty"`
	GracePeriod string          `json:"grace_period,omitempty"`
	Applied     string          `json:"applied,omitempty"`
}

func (f *Fee) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS)
	if f.Amount.IsNegative() {
		w.FailDetail("fee", codec.ErrInvalid, "fee must not be negative")
	}
	switch f.Applied {
	case "", AppliedImmediate, AppliedDelayed:
	default:
		w.FailDetail("fee", codec.ErrInvalid, "applied "+f.Applied)
	}
	el := w.Decimal("fee", f.Amount)
	if el != nil {
		setAttr(el, "description", f.Description)
		setAttr(el, "lang", f.Lang)
		if f.Refundable != nil {
			el.CreateAttr("refundable", codec.FormatFlag(*f.Refundable))
		}
		setAttr(el, "grace-period", f.GracePeriod)
		setAttr(el, "applied", f.Applied)
	}
	return el, w.Err()
}

func (f *Fee) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "fee")
	if r.Element() == nil {
		return r.Err()
	}
	amount, err := decimal.NewFromString(codec.Text(el))
	if err != nil {
		return &codec.Error{Op: "decode", Path: el.FullTag(), Err: codec.ErrInvalid, Detail: codec.Text(el)}
	}
	f.Amount = amount
	f.Description = r.Attr("description")
	f.Lang = r.Attr("lang")
	if codec.Attr(el, "refundable") != "" {
		v := r.BoolAttr("refundable", false)
		f.Refundable = &v
	}
	f.GracePeriod = r.Attr("grace-period")
	f.Applied = r.Attr("applied")
	return r.Err()
}

// Credit is a negative amount such as a refund.
type Credit struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Lang        string          `json:"lang,omitempty"`
}

func (c *Credit) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS)
	if !c.Amount.IsNegative() {
		w.FailDetail("credit", codec.ErrInvalid, "credit must be negative")
	}
	el := w.Decimal("credit", c.Amount)
	if el != nil {
		setAttr(el, "description", c.Description)
		setAttr(el, "lang", c.Lang)
	}
	return el, w.Err()
}

func (c *Credit) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "credit")
	if r.Element() == nil {
		return r.Err()
	}
	amount, err := decimal.NewFromString(codec.Text(el))
	if err != nil {
		return &codec.Error{Op: "decode", Path: el.FullTag(), Err: codec.ErrInvalid, Detail: codec.Text(el)}
	}
	c.Amount = amount
	c.Description = r.Attr("description")
	c.Lang = r.Attr("lang")
	return r.Err()
}

func setAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

// Total sums fees and credits.
func Total(fees []Fee, credits []Credit) decimal.Decimal {
	sum := decimal.Zero
	for _, f := range fees {
		sum = sum.Add(f.Amount)
	}
	for _, c := range credits {
		sum = sum.Add(c.Amount)
	}
	return sum
}
