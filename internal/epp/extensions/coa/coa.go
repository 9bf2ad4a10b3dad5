// Package coa implements the client object attribute extension, which stores
// registrar-defined key/value pairs on a domain.
package coa

import (
	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// NS is the coa extension namespace.
var NS = codec.Namespace{Prefix: "coa", URI: "urn:ietf:params:xml:ns:coa-1.0"}

// Factory instantiates every coa element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindExtension, codec.Constructors{
		"create":  func() codec.Component { return &Create{} },
		"update":  func() codec.Component { return &Update{} },
		"infData": func() codec.Component { return &InfoData{} },
	})
}

// Attr is one client object attribute.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (a *Attr) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("attr")
	w.String("key", a.Key)
	w.String("value", a.Value)
	return w.Element(), w.Err()
}

func (a *Attr) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "attr")
	a.Key = r.String("key")
	a.Value = r.String("value")
	return r.Err()
}

func checkKeys(w *codec.Writer, attrs []Attr) {
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if _, ok := seen[a.Key]; ok {
			w.FailDetail("attr", codec.ErrInvalid, "duplicate key "+a.Key)
			return
		}
		seen[a.Key] = struct{}{}
	}
}

// Create sets attributes on a new object.
type Create struct {
	Attrs []Attr
}

func (c *Create) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("create")
	checkKeys(w, c.Attrs)
	codec.Comps(w, "attr", c.Attrs, 1)
	return w.Element(), w.Err()
}

func (c *Create) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "create")
	c.Attrs = codec.DecodeAll[Attr](r, "attr")
	if len(c.Attrs) == 0 {
		r.Fail("attr", codec.ErrMissing)
	}
	return r.Err()
}

// Update puts attributes, replacing values of existing keys, and removes
// keys.
type Update struct {
	Put []Attr
	Rem []string
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	if len(u.Put) == 0 && len(u.Rem) == 0 {
		w.FailDetail("put", codec.ErrMissing, "one of put or rem is required")
	}
	if len(u.Put) > 0 {
		pw := w.Child("put")
		checkKeys(pw, u.Put)
		codec.Comps(pw, "attr", u.Put, 1)
	}
	if len(u.Rem) > 0 {
		w.Child("rem").Strings("key", u.Rem, 1)
	}
	return w.Element(), w.Err()
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	if pr := r.OptSub("put"); pr != nil {
		u.Put = codec.DecodeAll[Attr](pr, "attr")
	}
	if rr := r.OptSub("rem"); rr != nil {
		u.Rem = rr.Strings("key")
	}
	if len(u.Put) == 0 && len(u.Rem) == 0 && r.Err() == nil {
		r.FailDetail("put", codec.ErrMissing, "one of put or rem is required")
	}
	return r.Err()
}

// InfoData reports the attributes of an object.
type InfoData struct {
	Attrs []Attr
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	codec.Comps(w, "attr", d.Attrs, 1)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.Attrs = codec.DecodeAll[Attr](r, "attr")
	return r.Err()
}

// Map returns the attributes keyed by name.
func (d *InfoData) Map() map[string]string {
	m := make(map[string]string, len(d.Attrs))
	for _, a := range d.Attrs {
		m[a.Key] = a.Value
	}
	return m
}
