package protocol

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// Result is one <result> of a response.
type Result struct {
	Code      Code
	Msg       string
	Lang      string
	Values    []string
	ExtValues []ExtValue
}

// ExtValue carries a server-specific reason for an error.
type ExtValue struct {
	Value  string
	Reason string
}

// MsgQ describes the service message queue.
type MsgQ struct {
	Count int
	ID    string
	QDate time.Time
	Msg   string
	Lang  string
}

// TrID pairs the client and server transaction identifiers.
type TrID struct {
	ClTRID string
	SvTRID string
}

// Response is a server reply to a command.
type Response struct {
	Results    []Result
	MsgQ       *MsgQ
	ResData    []codec.Component
	Extensions []codec.Component
	TrID       TrID

	reg *codec.Registry
}

// NewResponse returns a Response whose Decode resolves resData and extension
// elements through reg.
func NewResponse(reg *codec.Registry) *Response {
	return &Response{reg: reg}
}

// Code returns the code of the first result.
func (r *Response) Code() Code {
	if len(r.Results) == 0 {
		return 0
	}
	return r.Results[0].Code
}

// Success reports whether the first result is a completion code.
func (r *Response) Success() bool {
	return r.Code().IsSuccess()
}

// Err returns a *ResultError when the response reports a failure.
func (r *Response) Err() error {
	if len(r.Results) == 0 {
		return &ResultError{Code: CodeCommandFailed, Msg: "response has no result"}
	}
	if r.Success() {
		return nil
	}
	res := r.Results[0]
	e := &ResultError{Code: res.Code, Msg: res.Msg, ClTRID: r.TrID.ClTRID, SvTRID: r.TrID.SvTRID}
	if len(res.ExtValues) > 0 {
		e.Reason = res.ExtValues[0].Reason
	}
	return e
}

func (r *Response) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("response")
	if len(r.Results) == 0 {
		w.Fail("result", codec.ErrMissing)
	}
	for _, res := range r.Results {
		rw := w.Child("result")
		rw.Attr("code", strconv.Itoa(int(res.Code)))
		msg := rw.String("msg", valueOr(res.Msg, res.Code.Text()))
		if msg != nil && res.Lang != "" {
			msg.CreateAttr("lang", res.Lang)
		}
		for _, v := range res.Values {
			if err := appendRaw(rw.Child("value").Element(), v); err != nil {
				rw.FailDetail("value", codec.ErrInvalid, err.Error())
			}
		}
		for _, ev := range res.ExtValues {
			ew := rw.Child("extValue")
			if err := appendRaw(ew.Child("value").Element(), ev.Value); err != nil {
				ew.FailDetail("value", codec.ErrInvalid, err.Error())
			}
			ew.String("reason", ev.Reason)
		}
	}
	if q := r.MsgQ; q != nil {
		qw := w.Child("msgQ")
		qw.Attr("count", strconv.Itoa(q.Count))
		qw.Attr("id", q.ID)
		qw.OptTime("qDate", q.QDate)
		if msg := qw.OptString("msg", q.Msg); msg != nil && q.Lang != "" {
			msg.CreateAttr("lang", q.Lang)
		}
	}
	if len(r.ResData) > 0 {
		rd := w.Child("resData")
		for _, c := range r.ResData {
			rd.Comp("resData", c)
		}
	}
	if len(r.Extensions) > 0 {
		ext := w.Child("extension")
		for _, c := range r.Extensions {
			ext.Comp("extension", c)
		}
	}
	tr := w.Child("trID")
	tr.OptString("clTRID", r.TrID.ClTRID)
	tr.String("svTRID", r.TrID.SvTRID)
	return w.Element(), w.Err()
}

func (r *Response) Decode(el *etree.Element) error {
	rd := codec.Expect(el, NS, "response")
	results := rd.Subs("result")
	if len(results) == 0 && rd.Element() != nil {
		rd.Fail("result", codec.ErrMissing)
	}
	for _, sub := range results {
		code, err := codec.ParseInt(sub.RequiredAttr("code"))
		if err != nil {
			sub.FailDetail("result", codec.ErrInvalid, "code attribute")
		}
		res := Result{Code: Code(code), Msg: sub.String("msg"), Lang: codec.Attr(sub.Child("msg"), "lang")}
		for _, v := range sub.Children("value") {
			res.Values = append(res.Values, codec.InnerXML(v))
		}
		for _, ev := range sub.Subs("extValue") {
			res.ExtValues = append(res.ExtValues, ExtValue{
				Value:  codec.InnerXML(ev.Child("value")),
				Reason: ev.String("reason"),
			})
		}
		r.Results = append(r.Results, res)
	}
	if q := rd.OptSub("msgQ"); q != nil {
		count, err := codec.ParseInt(q.RequiredAttr("count"))
		if err != nil {
			q.FailDetail("msgQ", codec.ErrInvalid, "count attribute")
		}
		r.MsgQ = &MsgQ{
			Count: count,
			ID:    q.RequiredAttr("id"),
			QDate: q.OptTime("qDate"),
			Msg:   q.OptString("msg"),
			Lang:  codec.Attr(q.Child("msg"), "lang"),
		}
	}
	if err := rd.Err(); err != nil {
		return err
	}
	var err error
	if r.ResData, err = r.decodeAll(rd.Child("resData")); err != nil {
		return err
	}
	if r.Extensions, err = r.decodeAll(rd.Child("extension")); err != nil {
		return err
	}
	tr := rd.Sub("trID")
	r.TrID = TrID{ClTRID: tr.OptString("clTRID"), SvTRID: tr.String("svTRID")}
	return rd.Err()
}

// decodeAll decodes the components under el. Elements from namespaces the
// registry does not claim are kept as *codec.Raw so that a server extension
// the client never asked for does not fail an otherwise good response.
func (r *Response) decodeAll(el *etree.Element) ([]codec.Component, error) {
	if el == nil {
		return nil, nil
	}
	if r.reg == nil {
		var out []codec.Component
		for _, c := range el.ChildElements() {
			raw, err := codec.DecodeRaw(c)
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
		}
		return out, nil
	}
	return r.reg.DecodeChildrenOrRaw(el)
}

// appendRaw parses an XML fragment and appends its nodes to el. Plain text
// is appended as character data.
func appendRaw(el *etree.Element, raw string) error {
	if raw == "" {
		return nil
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromString("<frag>" + raw + "</frag>"); err != nil {
		return fmt.Errorf("parse value fragment: %w", err)
	}
	for _, tok := range frag.Root().Child {
		switch t := tok.(type) {
		case *etree.Element:
			el.AddChild(t.Copy())
		case *etree.CharData:
			el.CreateText(t.Data)
		}
	}
	return nil
}

// ResultError is a failed EPP result surfaced as a Go error.
type ResultError struct {
	Code   Code
	Msg    string
	Reason string
	ClTRID string
	SvTRID string
}

func (e *ResultError) Error() string {
	msg := fmt.Sprintf("epp %d %s", int(e.Code), valueOr(e.Msg, e.Code.Text()))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
