// Package rgp implements the RFC 3915 redemption grace period extension.
package rgp

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// NS is the rgp extension namespace.
var NS = codec.Namespace{Prefix: "rgp", URI: "urn:ietf:params:xml:ns:rgp-1.0"}

// Grace period states.
const (
	StatusAddPeriod        = "addPeriod"
	StatusAutoRenewPeriod  = "autoRenewPeriod"
	StatusRenewPeriod      = "renewPeriod"
	StatusTransferPeriod   = "transferPeriod"
	StatusRedemptionPeriod = "redemptionPeriod"
	StatusPendingRestore   = "pendingRestore"
	StatusPendingDelete    = "pendingDelete"
)

// Restore operations.
const (
	OpRequest = "request"
	OpReport  = "report"
)

// Factory instantiates every rgp element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindExtension, codec.Constructors{
		"update":  func() codec.Component { return &Update{} },
		"infData": func() codec.Component { return &InfoData{} },
		"upData":  func() codec.Component { return &UpdateData{} },
	})
}

// Report is the restore report a registrar files after a restore request.
// Statements holds the two attestations the report requires.
type Report struct {
	PreData    string    `json:"pre_data"`
	PostData   string    `json:"post_data"`
	DelTime    time.Time `json:"del_time"`
	ResTime    time.Time `json:"res_time"`
	ResReason  string    `json:"res_reason"`
	Statements []string  `json:"statements"`
	Other      string    `json:"other,omitempty"`
}

func (rp *Report) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("report")
	w.String("preData", rp.PreData)
	w.String("postData", rp.PostData)
	w.Time("delTime", rp.DelTime)
	w.Time("resTime", rp.ResTime)
	w.String("resReason", rp.ResReason)
	if len(rp.Statements) != 2 {
		w.FailDetail("statement", codec.ErrInvalid, "exactly two statements are required")
	}
	w.Strings("statement", rp.Statements, 2)
	w.OptString("other", rp.Other)
	return w.Element(), w.Err()
}

func (rp *Report) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "report")
	rp.PreData = r.String("preData")
	rp.PostData = r.String("postData")
	rp.DelTime = r.Time("delTime")
	rp.ResTime = r.Time("resTime")
	rp.ResReason = r.String("resReason")
	rp.Statements = r.Strings("statement")
	if len(rp.Statements) != 2 {
		r.FailDetail("statement", codec.ErrInvalid, "exactly two statements are required")
	}
	rp.Other = r.OptString("other")
	return r.Err()
}

// Update asks for a deleted domain to be restored. It accompanies a domain
// update that changes nothing else. Report is set only when Op is report.
type Update struct {
	Op     string
	Report *Report
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	rw := w.Child("restore")
	switch u.Op {
	case OpRequest:
		if u.Report != nil {
			w.FailDetail("restore", codec.ErrInvalid, "request carries no report")
		}
	case OpReport:
		rw.Comp("report", u.Report)
	default:
		w.FailDetail("restore", codec.ErrInvalid, "op "+u.Op)
	}
	rw.Attr("op", u.Op)
	return w.Element(), w.Err()
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	rr := r.Sub("restore")
	u.Op = rr.RequiredAttr("op")
	switch u.Op {
	case OpRequest, "":
	case OpReport:
		u.Report = &Report{}
		rr.Comp("report", u.Report)
	default:
		r.FailDetail("restore", codec.ErrInvalid, "op "+u.Op)
	}
	return r.Err()
}

// Status is a grace period state of a domain.
type Status struct {
	Value string `json:"s"`
	Lang  string `json:"lang,omitempty"`
	Text  string `json:"text,omitempty"`
}

func writeStatuses(w *codec.Writer, statuses []Status) {
	if len(statuses) == 0 {
		w.Fail("rgpStatus", codec.ErrMissing)
		return
	}
	for _, st := range statuses {
		if st.Value == "" {
			w.FailDetail("rgpStatus", codec.ErrMissing, "s attribute")
			return
		}
		el := w.Empty("rgpStatus")
		if el == nil {
			return
		}
		el.CreateAttr("s", st.Value)
		if st.Lang != "" {
			el.CreateAttr("lang", st.Lang)
		}
		if st.Text != "" {
			el.SetText(st.Text)
		}
	}
}

func readStatuses(r *codec.Reader) []Status {
	var out []Status
	for _, el := range r.Children("rgpStatus") {
		out = append(out, Status{Value: codec.Attr(el, "s"), Lang: codec.Attr(el, "lang"), Text: codec.Text(el)})
	}
	if len(out) == 0 {
		r.Fail("rgpStatus", codec.ErrMissing)
	}
	return out
}

// Has reports whether value is among statuses.
func Has(statuses []Status, value string) bool {
	for _, st := range statuses {
		if st.Value == value {
			return true
		}
	}
	return false
}

// InfoData reports the grace periods a domain is in.
type InfoData struct {
	Statuses []Status
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	writeStatuses(w, d.Statuses)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.Statuses = readStatuses(r)
	return r.Err()
}

// UpdateData answers a restore request.
type UpdateData struct {
	Statuses []Status
}

func (d *UpdateData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("upData")
	writeStatuses(w, d.Statuses)
	return w.Element(), w.Err()
}

func (d *UpdateData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "upData")
	d.Statuses = readStatuses(r)
	return r.Err()
}
