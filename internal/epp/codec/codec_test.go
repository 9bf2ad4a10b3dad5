package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNS = Namespace{Prefix: "t", URI: "urn:example:test-1.0"}

type item struct {
	Name  string
	Price decimal.Decimal
}

func (i *item) Encode(parent *etree.Element) (*etree.Element, error) {
	w := NewWriter(parent, testNS).Child("item")
	w.String("name", i.Name)
	w.Decimal("price", i.Price)
	return w.Element(), w.Err()
}

func (i *item) Decode(el *etree.Element) error {
	r := Expect(el, testNS, "item")
	i.Name = r.String("name")
	i.Price = r.Decimal("price")
	return r.Err()
}

type order struct {
	ID       string
	Note     string
	Paid     bool
	Express  *bool
	Quantity int
	Placed   time.Time
	Due      time.Time
	Tags     []string
	Items    []item
}

func (o *order) Encode(parent *etree.Element) (*etree.Element, error) {
	w := NewWriter(parent, testNS).Declare("order")
	w.String("id", o.ID)
	w.OptString("note", o.Note)
	w.Bool("paid", o.Paid)
	w.OptBool("express", o.Express)
	w.Int("quantity", o.Quantity)
	w.Time("placed", o.Placed)
	w.Date("due", o.Due)
	w.Strings("tag", o.Tags, 0)
	Comps(w, "item", o.Items, 1)
	return w.Element(), w.Err()
}

func (o *order) Decode(el *etree.Element) error {
	r := Expect(el, testNS, "order")
	o.ID = r.String("id")
	o.Note = r.OptString("note")
	o.Paid = r.Bool("paid")
	o.Express = r.OptBool("express")
	o.Quantity = r.Int("quantity")
	o.Placed = r.Time("placed")
	o.Due = r.Date("due")
	o.Tags = r.Strings("tag")
	o.Items = DecodeAll[item](r, "item")
	return r.Err()
}

func encodeDoc(t *testing.T, c Encoder) []byte {
	t.Helper()
	doc := NewDocument()
	root := doc.CreateElement("root")
	_, err := c.Encode(root)
	require.NoError(t, err)
	b, err := Marshal(doc)
	require.NoError(t, err)
	return b
}

func TestWriterReader_RoundTrip(t *testing.T) {
	express := true
	in := &order{
		ID:       "ord-1",
		Paid:     true,
		Express:  &express,
		Quantity: 3,
		Placed:   time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Due:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Tags:     []string{"a", "b"},
		Items: []item{
			{Name: "widget", Price: decimal.RequireFromString("10.50")},
			{Name: "gadget", Price: decimal.RequireFromString("3.00")},
		},
	}
	b := encodeDoc(t, in)
	assert.Contains(t, string(b), `<t:order xmlns:t="urn:example:test-1.0">`)
	assert.Contains(t, string(b), `<t:placed>2024-05-01T10:30:00Z</t:placed>`)
	assert.Contains(t, string(b), `<t:price>10.50</t:price>`)
	assert.NotContains(t, string(b), "note")

	doc, err := Parse(b)
	require.NoError(t, err)
	out := &order{}
	require.NoError(t, out.Decode(doc.Root().ChildElements()[0]))
	assert.Equal(t, in, out)
}

func TestWriter_RequiredMissing(t *testing.T) {
	doc := NewDocument()
	root := doc.CreateElement("root")
	_, err := (&order{Quantity: 1}).Encode(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissing)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "encode", cerr.Op)
	assert.Equal(t, "root/t:order/t:id", cerr.Path)
}

func TestWriter_MinListLength(t *testing.T) {
	o := &order{ID: "x", Placed: time.Now(), Due: time.Now()}
	doc := NewDocument()
	_, err := o.Encode(doc.CreateElement("root"))
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "t:item")
}

func TestReader_DefaultNamespace(t *testing.T) {
	xml := `<order xmlns="urn:example:test-1.0">
		<id>ord-9</id><paid>1</paid><quantity>2</quantity>
		<placed>2024-05-01T10:30:00.123+02:00</placed><due>2024-06-01</due>
		<item><name>w</name><price>1.0</price></item>
	</order>`
	doc, err := Parse([]byte(xml))
	require.NoError(t, err)

	out := &order{}
	require.NoError(t, out.Decode(doc.Root()))
	assert.Equal(t, "ord-9", out.ID)
	assert.True(t, out.Paid)
	assert.Nil(t, out.Express)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 123000000, time.UTC), out.Placed)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "1", out.Items[0].Price.String())
}

func TestReader_InvalidValue(t *testing.T) {
	xml := `<t:order xmlns:t="urn:example:test-1.0"><t:id>x</t:id><t:paid>yes</t:paid></t:order>`
	doc, err := Parse([]byte(xml))
	require.NoError(t, err)

	err = (&order{}).Decode(doc.Root())
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "t:paid")
}

func TestReader_WrongNamespace(t *testing.T) {
	xml := `<x:order xmlns:x="urn:example:other"><x:id>1</x:id></x:order>`
	doc, err := Parse([]byte(xml))
	require.NoError(t, err)

	err = (&order{}).Decode(doc.Root())
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestParse_RejectsDTD(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><!DOCTYPE x [<!ENTITY a "b">]><x>&a;</x>`))
	assert.ErrorIs(t, err, ErrDTD)
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"1": true, "true": true, "0": false, "false": false} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBool("TRUE")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestInnerXML(t *testing.T) {
	doc, err := Parse([]byte(`<value><t:name xmlns:t="urn:x">a</t:name></value>`))
	require.NoError(t, err)
	assert.Equal(t, `<t:name xmlns:t="urn:x">a</t:name>`, InnerXML(doc.Root()))
}

func TestInnerXML_EscapesText(t *testing.T) {
	doc, err := Parse([]byte(`<value>Fish &amp; Chips &lt;Ltd&gt;</value>`))
	require.NoError(t, err)
	got := InnerXML(doc.Root())
	assert.Equal(t, `Fish &amp; Chips &lt;Ltd&gt;`, got)

	again, err := Parse([]byte("<value>" + got + "</value>"))
	require.NoError(t, err)
	assert.Equal(t, "Fish & Chips <Ltd>", again.Root().Text())
}

func TestInnerXML_BindsInheritedPrefixes(t *testing.T) {
	doc, err := Parse([]byte(`<root xmlns:t="urn:x"><value><t:name>a</t:name></value></root>`))
	require.NoError(t, err)
	got := InnerXML(doc.Root().ChildElements()[0])
	assert.Equal(t, `<t:name xmlns:t="urn:x">a</t:name>`, got)

	_, err = Parse([]byte(got))
	assert.NoError(t, err)
}
