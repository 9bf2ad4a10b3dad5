package codec

import (
	"reflect"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Encoder appends an object to parent and returns the element it created.
type Encoder interface {
	Encode(parent *etree.Element) (*etree.Element, error)
}

// Decoder populates an object from el.
type Decoder interface {
	Decode(el *etree.Element) error
}

// Component is an EPP object that round-trips through an element tree.
type Component interface {
	Encoder
	Decoder
}

type state struct {
	err error
}

// Writer appends child elements in one namespace to a parent element.
type Writer struct {
	el   *etree.Element
	ns   Namespace
	path string
	st   *state
}

// NewWriter returns a Writer that appends to el.
func NewWriter(el *etree.Element, ns Namespace) *Writer {
	return &Writer{el: el, ns: ns, path: el.FullTag(), st: &state{}}
}

// Declare creates a child element binding the namespace and returns a Writer
// positioned on it. It is the usual first call of a component's Encode.
func (w *Writer) Declare(local string) *Writer {
	el := Declare(w.el, w.ns, local)
	return &Writer{el: el, ns: w.ns, path: w.path + "/" + el.FullTag(), st: w.st}
}

// Child creates a container element and returns a Writer positioned on it.
// Writes to the child share the parent's error.
func (w *Writer) Child(local string) *Writer {
	el := w.el.CreateElement(w.ns.Tag(local))
	return &Writer{el: el, ns: w.ns, path: w.path + "/" + el.FullTag(), st: w.st}
}

// In returns a Writer over the same element appending in another namespace.
func (w *Writer) In(ns Namespace) *Writer {
	return &Writer{el: w.el, ns: ns, path: w.path, st: w.st}
}

// Element returns the element this Writer appends to.
func (w *Writer) Element() *etree.Element { return w.el }

// Err returns the first failure recorded by this Writer or any Writer derived
// from it.
func (w *Writer) Err() error { return w.st.err }

// Fail records err against the child tag unless a failure is already recorded.
func (w *Writer) Fail(local string, err error) {
	w.FailDetail(local, err, "")
}

// FailDetail is Fail with a human-readable detail.
func (w *Writer) FailDetail(local string, err error, detail string) {
	if w.st.err == nil {
		w.st.err = encodeErr(w.path+"/"+w.ns.Tag(local), err, detail)
	}
}

func (w *Writer) text(local, v string) *etree.Element {
	el := w.el.CreateElement(w.ns.Tag(local))
	el.SetText(v)
	return el
}

// String writes a required text element.
func (w *Writer) String(local, v string) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	if v == "" {
		w.Fail(local, ErrMissing)
		return nil
	}
	return w.text(local, v)
}

// OptString writes a text element when v is not empty.
func (w *Writer) OptString(local, v string) *etree.Element {
	if w.st.err != nil || v == "" {
		return nil
	}
	return w.text(local, v)
}

// Strings writes one element per value, failing when fewer than min are given.
func (w *Writer) Strings(local string, vs []string, min int) {
	if w.st.err != nil {
		return
	}
	if len(vs) < min {
		w.Fail(local, ErrMissing)
		return
	}
	for _, v := range vs {
		if w.String(local, v) == nil {
			return
		}
	}
}

// Bool writes a required boolean element.
func (w *Writer) Bool(local string, v bool) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	return w.text(local, FormatBool(v))
}

// OptBool writes a boolean element when v is set.
func (w *Writer) OptBool(local string, v *bool) *etree.Element {
	if v == nil {
		return nil
	}
	return w.Bool(local, *v)
}

// Int writes a required integer element.
func (w *Writer) Int(local string, v int) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	return w.text(local, strconv.Itoa(v))
}

// OptInt writes an integer element when v is set.
func (w *Writer) OptInt(local string, v *int) *etree.Element {
	if v == nil {
		return nil
	}
	return w.Int(local, *v)
}

// Time writes a required dateTime element.
func (w *Writer) Time(local string, t time.Time) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	if t.IsZero() {
		w.Fail(local, ErrMissing)
		return nil
	}
	return w.text(local, FormatTime(t))
}

// OptTime writes a dateTime element when t is not zero.
func (w *Writer) OptTime(local string, t time.Time) *etree.Element {
	if t.IsZero() {
		return nil
	}
	return w.Time(local, t)
}

// Date writes a required date element.
func (w *Writer) Date(local string, t time.Time) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	if t.IsZero() {
		w.Fail(local, ErrMissing)
		return nil
	}
	return w.text(local, FormatDate(t))
}

// Decimal writes a required decimal element, keeping the value's scale.
func (w *Writer) Decimal(local string, d decimal.Decimal) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	return w.text(local, FormatDecimal(d))
}

// OptDecimal writes a decimal element when d is set.
func (w *Writer) OptDecimal(local string, d *decimal.Decimal) *etree.Element {
	if d == nil {
		return nil
	}
	return w.Decimal(local, *d)
}

// Empty writes an element with no content.
func (w *Writer) Empty(local string) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	return w.el.CreateElement(w.ns.Tag(local))
}

// Flag writes an empty element when set is true.
func (w *Writer) Flag(local string, set bool) *etree.Element {
	if !set {
		return nil
	}
	return w.Empty(local)
}

// Attr sets an attribute on the Writer's element.
func (w *Writer) Attr(key, value string) {
	if w.st.err != nil {
		return
	}
	w.el.CreateAttr(key, value)
}

// OptAttr sets an attribute when value is not empty.
func (w *Writer) OptAttr(key, value string) {
	if value == "" {
		return
	}
	w.Attr(key, value)
}

// Comp encodes a required nested component. local names the element for
// error reporting when c is nil.
func (w *Writer) Comp(local string, c Encoder) *etree.Element {
	if w.st.err != nil {
		return nil
	}
	if isNil(c) {
		w.Fail(local, ErrMissing)
		return nil
	}
	el, err := c.Encode(w.el)
	if err != nil {
		w.adopt(err)
		return nil
	}
	return el
}

// OptComp encodes c when it is not nil.
func (w *Writer) OptComp(c Encoder) *etree.Element {
	if isNil(c) {
		return nil
	}
	return w.Comp("", c)
}

func (w *Writer) adopt(err error) {
	if w.st.err == nil {
		w.st.err = err
	}
}

// Comps encodes every item of a list, failing when fewer than min are given.
func Comps[T any, PT interface {
	*T
	Encoder
}](w *Writer, local string, items []T, min int) {
	if w.st.err != nil {
		return
	}
	if len(items) < min {
		w.Fail(local, ErrMissing)
		return
	}
	for i := range items {
		if w.Comp(local, PT(&items[i])) == nil {
			return
		}
	}
}

func isNil(c any) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
