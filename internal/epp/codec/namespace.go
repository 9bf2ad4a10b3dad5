package codec

import "github.com/beevik/etree"

// Namespace binds a prefix to a namespace URI. An empty prefix encodes as the
// default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// EPP is the envelope namespace. Object mappings borrow its transaction
// identifier elements inside paTRID.
var EPP = Namespace{URI: "urn:ietf:params:xml:ns:epp-1.0"}

// Tag returns the qualified tag for a local name.
func (ns Namespace) Tag(local string) string {
	if ns.Prefix == "" {
		return local
	}
	return ns.Prefix + ":" + local
}

// Matches reports whether el has the given local name inside ns.
func (ns Namespace) Matches(el *etree.Element, local string) bool {
	return el != nil && el.Tag == local && el.NamespaceURI() == ns.URI
}

// Declare creates a child of parent in ns and binds the namespace on it.
func Declare(parent *etree.Element, ns Namespace, local string) *etree.Element {
	el := parent.CreateElement(ns.Tag(local))
	if ns.Prefix == "" {
		el.CreateAttr("xmlns", ns.URI)
	} else {
		el.CreateAttr("xmlns:"+ns.Prefix, ns.URI)
	}
	return el
}

// QName returns the resolved namespace URI and local name of el.
func QName(el *etree.Element) (uri, local string) {
	return el.NamespaceURI(), el.Tag
}
