package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// MaxDocumentSize bounds the documents Parse accepts.
const MaxDocumentSize = 16 << 20

// NewDocument returns an empty document carrying the XML declaration EPP
// peers expect.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="no"`)
	return doc
}

// Marshal serialises doc.
func Marshal(doc *etree.Document) ([]byte, error) {
	b, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return b, nil
}

// Parse reads a document and returns it once it has a root element. DTDs and
// entity declarations are rejected before parsing.
func Parse(b []byte) (*etree.Document, error) {
	if len(b) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: document of %d bytes exceeds %d", ErrInvalid, len(b), MaxDocumentSize)
	}
	if bytes.Contains(b, []byte("<!DOCTYPE")) || bytes.Contains(b, []byte("<!ENTITY")) {
		return nil, ErrDTD
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMissing)
	}
	return doc, nil
}

// InnerXML serialises the children of el as an XML fragment. It is used for
// opaque content such as result values that are echoed back without
// interpretation. Text is escaped and child elements carry the namespace
// bindings they inherit from their ancestors.
func InnerXML(el *etree.Element) string {
	if el == nil {
		return ""
	}
	d := etree.NewDocument()
	d.WriteSettings.CanonicalText = true
	for _, c := range el.Child {
		switch t := c.(type) {
		case *etree.Element:
			raw, err := DecodeRaw(t)
			if err != nil {
				continue
			}
			d.AddChild(raw.Element)
		case *etree.CharData:
			if t.IsCData() {
				d.CreateCData(t.Data)
			} else {
				d.CreateText(t.Data)
			}
		}
	}
	s, _ := d.WriteToString()
	return strings.TrimSpace(s)
}
