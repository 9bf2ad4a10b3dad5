package codec

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Reader reads child elements in one namespace from an element. A Reader over
// a missing element returns zero values without recording further failures.
type Reader struct {
	el   *etree.Element
	ns   Namespace
	path string
	st   *state
}

// NewReader returns a Reader over el.
func NewReader(el *etree.Element, ns Namespace) *Reader {
	path := ""
	if el != nil {
		path = el.FullTag()
	}
	return &Reader{el: el, ns: ns, path: path, st: &state{}}
}

// Expect returns a Reader over el after checking that el is the named element
// in ns. It is the usual first call of a component's Decode.
func Expect(el *etree.Element, ns Namespace, local string) *Reader {
	r := NewReader(el, ns)
	if el == nil {
		r.st.err = decodeErr(ns.Tag(local), ErrMissing, "")
		return r
	}
	if !ns.Matches(el, local) {
		uri, got := QName(el)
		r.st.err = decodeErr(el.FullTag(), ErrUnknownElement, "expected {"+ns.URI+"}"+local+", got {"+uri+"}"+got)
		r.el = nil
	}
	return r
}

// In returns a Reader over the same element matching children in another namespace.
func (r *Reader) In(ns Namespace) *Reader {
	return &Reader{el: r.el, ns: ns, path: r.path, st: r.st}
}

// Element returns the element under this Reader.
func (r *Reader) Element() *etree.Element { return r.el }

// Err returns the first failure recorded by this Reader or any Reader derived from it.
func (r *Reader) Err() error { return r.st.err }

// Fail records err against the child tag unless a failure is already recorded.
func (r *Reader) Fail(local string, err error) {
	r.FailDetail(local, err, "")
}

// FailDetail is Fail with a human-readable detail.
func (r *Reader) FailDetail(local string, err error, detail string) {
	if r.st.err == nil {
		r.st.err = decodeErr(r.path+"/"+r.ns.Tag(local), err, detail)
	}
}

// Child returns the first child element named local, or nil.
func (r *Reader) Child(local string) *etree.Element {
	if r.el == nil {
		return nil
	}
	for _, c := range r.el.ChildElements() {
		if r.ns.Matches(c, local) {
			return c
		}
	}
	return nil
}

// Children returns every child element named local.
func (r *Reader) Children(local string) []*etree.Element {
	if r.el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range r.el.ChildElements() {
		if r.ns.Matches(c, local) {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether a child named local is present.
func (r *Reader) Has(local string) bool {
	return r.Child(local) != nil
}

func (r *Reader) required(local string) *etree.Element {
	if r.el == nil {
		return nil
	}
	c := r.Child(local)
	if c == nil {
		r.Fail(local, ErrMissing)
	}
	return c
}

// Text returns the trimmed text of el.
func Text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Attr returns the value of an unqualified attribute of el.
func Attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

// Attr returns an attribute of the Reader's element.
func (r *Reader) Attr(key string) string {
	return Attr(r.el, key)
}

// RequiredAttr returns an attribute of the Reader's element, failing when absent.
func (r *Reader) RequiredAttr(key string) string {
	if r.el == nil {
		return ""
	}
	v := Attr(r.el, key)
	if v == "" && r.st.err == nil {
		r.st.err = decodeErr(r.path+"/@"+key, ErrMissing, "")
	}
	return v
}

// BoolAttr parses a boolean attribute; absent attributes yield dflt.
func (r *Reader) BoolAttr(key string, dflt bool) bool {
	v := Attr(r.el, key)
	if v == "" {
		return dflt
	}
	b, err := ParseBool(v)
	if err != nil && r.st.err == nil {
		r.st.err = decodeErr(r.path+"/@"+key, ErrInvalid, v)
	}
	return b
}

// String returns the text of a required child.
func (r *Reader) String(local string) string {
	c := r.required(local)
	if c == nil {
		return ""
	}
	v := Text(c)
	if v == "" {
		r.Fail(local, ErrMissing)
	}
	return v
}

// OptString returns the text of an optional child.
func (r *Reader) OptString(local string) string {
	return Text(r.Child(local))
}

// Strings returns the text of every child named local.
func (r *Reader) Strings(local string) []string {
	var out []string
	for _, c := range r.Children(local) {
		out = append(out, Text(c))
	}
	return out
}

func (r *Reader) parse(local string, c *etree.Element, fn func(string) error) {
	if c == nil {
		return
	}
	s := Text(c)
	if err := fn(s); err != nil {
		r.FailDetail(local, ErrInvalid, s)
	}
}

// Bool returns a required boolean child.
func (r *Reader) Bool(local string) bool {
	var b bool
	r.parse(local, r.required(local), func(s string) (err error) { b, err = ParseBool(s); return })
	return b
}

// OptBool returns an optional boolean child.
func (r *Reader) OptBool(local string) *bool {
	c := r.Child(local)
	if c == nil {
		return nil
	}
	var b bool
	r.parse(local, c, func(s string) (err error) { b, err = ParseBool(s); return })
	return &b
}

// Int returns a required integer child.
func (r *Reader) Int(local string) int {
	var n int
	r.parse(local, r.required(local), func(s string) (err error) { n, err = ParseInt(s); return })
	return n
}

// OptInt returns an optional integer child.
func (r *Reader) OptInt(local string) *int {
	c := r.Child(local)
	if c == nil {
		return nil
	}
	var n int
	r.parse(local, c, func(s string) (err error) { n, err = ParseInt(s); return })
	return &n
}

// Time returns a required dateTime child.
func (r *Reader) Time(local string) time.Time {
	var t time.Time
	r.parse(local, r.required(local), func(s string) (err error) { t, err = ParseTime(s); return })
	return t
}

// OptTime returns an optional dateTime child, zero when absent.
func (r *Reader) OptTime(local string) time.Time {
	var t time.Time
	r.parse(local, r.Child(local), func(s string) (err error) { t, err = ParseTime(s); return })
	return t
}

// Date returns a required date child.
func (r *Reader) Date(local string) time.Time {
	var t time.Time
	r.parse(local, r.required(local), func(s string) (err error) { t, err = ParseDate(s); return })
	return t
}

// Decimal returns a required decimal child.
func (r *Reader) Decimal(local string) decimal.Decimal {
	var d decimal.Decimal
	r.parse(local, r.required(local), func(s string) (err error) { d, err = decimal.NewFromString(s); return })
	return d
}

// OptDecimal returns an optional decimal child.
func (r *Reader) OptDecimal(local string) *decimal.Decimal {
	c := r.Child(local)
	if c == nil {
		return nil
	}
	var d decimal.Decimal
	r.parse(local, c, func(s string) (err error) { d, err = decimal.NewFromString(s); return })
	return &d
}

// Sub returns a Reader over a required container child.
func (r *Reader) Sub(local string) *Reader {
	c := r.required(local)
	return r.sub(c)
}

// OptSub returns a Reader over an optional container child, or nil.
func (r *Reader) OptSub(local string) *Reader {
	c := r.Child(local)
	if c == nil {
		return nil
	}
	return r.sub(c)
}

// Subs returns a Reader per child named local.
func (r *Reader) Subs(local string) []*Reader {
	var out []*Reader
	for _, c := range r.Children(local) {
		out = append(out, r.sub(c))
	}
	return out
}

func (r *Reader) sub(c *etree.Element) *Reader {
	path := r.path
	if c != nil {
		path += "/" + c.FullTag()
	}
	return &Reader{el: c, ns: r.ns, path: path, st: r.st}
}

// Comp decodes a required child component.
func (r *Reader) Comp(local string, c Decoder) {
	el := r.required(local)
	if el == nil {
		return
	}
	r.adopt(c.Decode(el))
}

// OptComp decodes an optional child component and reports whether it was present.
func (r *Reader) OptComp(local string, c Decoder) bool {
	el := r.Child(local)
	if el == nil {
		return false
	}
	r.adopt(c.Decode(el))
	return true
}

func (r *Reader) adopt(err error) {
	if err != nil && r.st.err == nil {
		r.st.err = err
	}
}

// DecodeAll decodes every child named local into a new T.
func DecodeAll[T any, PT interface {
	*T
	Decoder
}](r *Reader, local string) []T {
	var out []T
	for _, el := range r.Children(local) {
		var v T
		if err := PT(&v).Decode(el); err != nil {
			r.adopt(err)
			return out
		}
		out = append(out, v)
	}
	return out
}

// DecodeOpt decodes an optional child named local into a new *T.
func DecodeOpt[T any, PT interface {
	*T
	Decoder
}](r *Reader, local string) *T {
	el := r.Child(local)
	if el == nil {
		return nil
	}
	var v T
	if err := PT(&v).Decode(el); err != nil {
		r.adopt(err)
		return nil
	}
	return &v
}
