package codec

import "github.com/beevik/etree"

// Raw holds an element from a namespace no factory claims. It keeps a
// self-contained copy of the element so the content can be inspected or
// re-encoded unchanged.
type Raw struct {
	URI     string
	Local   string
	Element *etree.Element
}

// DecodeRaw returns el as a *Raw.
func DecodeRaw(el *etree.Element) (*Raw, error) {
	r := &Raw{}
	if err := r.Decode(el); err != nil {
		return nil, err
	}
	return r, nil
}

// Decode copies el and binds every namespace prefix used inside it on the
// copy, since the declarations may live on ancestors.
func (r *Raw) Decode(el *etree.Element) error {
	if el == nil {
		return decodeErr("", ErrMissing, "raw element")
	}
	r.URI, r.Local = QName(el)
	cp := el.Copy()
	declared := map[string]bool{}
	for _, a := range cp.Attr {
		switch {
		case a.Space == "" && a.Key == "xmlns":
			declared[""] = true
		case a.Space == "xmlns":
			declared[a.Key] = true
		}
	}
	bind := func(prefix, uri string) {
		if declared[prefix] || uri == "" || prefix == "xml" {
			return
		}
		declared[prefix] = true
		if prefix == "" {
			cp.CreateAttr("xmlns", uri)
			return
		}
		cp.CreateAttr("xmlns:"+prefix, uri)
	}
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		bind(e.Space, e.NamespaceURI())
		for i := range e.Attr {
			a := &e.Attr[i]
			if a.Space != "" && a.Space != "xmlns" {
				bind(a.Space, a.NamespaceURI())
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(el)
	r.Element = cp
	return nil
}

func (r *Raw) Encode(parent *etree.Element) (*etree.Element, error) {
	if r.Element == nil {
		return nil, encodeErr(parent.FullTag(), ErrMissing, "raw element")
	}
	el := r.Element.Copy()
	parent.AddChild(el)
	return el, nil
}

// String serialises the element.
func (r *Raw) String() string {
	if r.Element == nil {
		return ""
	}
	d := etree.NewDocument()
	d.SetRoot(r.Element.Copy())
	s, _ := d.WriteToString()
	return s
}
