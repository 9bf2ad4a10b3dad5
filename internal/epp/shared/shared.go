// Package shared holds the element groups that domain, contact and host
// mappings declare identically in their own namespaces: availability check
// results, status values, authorization information and validity periods.
package shared

import (
	"fmt"

	"epp-gateway/internal/epp/codec"
)

// CheckResult is one <cd> entry of a check response.
type CheckResult struct {
	Key    string
	Avail  bool
	Reason string
}

// WriteCheckResults encodes results as <cd> entries keyed by keyTag.
func WriteCheckResults(w *codec.Writer, keyTag string, results []CheckResult) {
	if len(results) == 0 {
		w.Fail("cd", codec.ErrMissing)
		return
	}
	for _, res := range results {
		cd := w.Child("cd")
		if key := cd.String(keyTag, res.Key); key != nil {
			key.CreateAttr("avail", codec.FormatFlag(res.Avail))
		}
		cd.OptString("reason", res.Reason)
	}
}

// ReadCheckResults decodes <cd> entries keyed by keyTag. At least one entry
// is required.
func ReadCheckResults(r *codec.Reader, keyTag string) []CheckResult {
	var out []CheckResult
	cds := r.Subs("cd")
	if len(cds) == 0 && r.Element() != nil {
		r.Fail("cd", codec.ErrMissing)
	}
	for _, cd := range cds {
		key := cd.Child(keyTag)
		res := CheckResult{Key: cd.String(keyTag), Reason: cd.OptString("reason")}
		if key != nil {
			avail, err := codec.ParseBool(codec.Attr(key, "avail"))
			if err != nil {
				cd.FailDetail(keyTag, codec.ErrInvalid, "avail attribute")
			}
			res.Avail = avail
		}
		out = append(out, res)
	}
	return out
}

// Status is an object status value with optional explanatory text.
type Status struct {
	Value string `json:"s"`
	Lang  string `json:"lang,omitempty"`
	Text  string `json:"text,omitempty"`
}

// WriteStatuses encodes statuses as <status s="..."> elements.
func WriteStatuses(w *codec.Writer, statuses []Status) {
	for _, st := range statuses {
		if st.Value == "" {
			w.FailDetail("status", codec.ErrMissing, "s attribute")
			return
		}
		el := w.Empty("status")
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

// ReadStatuses decodes <status> elements.
func ReadStatuses(r *codec.Reader) []Status {
	var out []Status
	for _, el := range r.Children("status") {
		st := Status{Value: codec.Attr(el, "s"), Lang: codec.Attr(el, "lang"), Text: codec.Text(el)}
		if st.Value == "" {
			r.FailDetail("status", codec.ErrMissing, "s attribute")
			return out
		}
		out = append(out, st)
	}
	return out
}

// AuthInfo is the password used to authorise transfers and info queries.
// ROID binds the password to another object, as in a registrant's password.
type AuthInfo struct {
	Password string
	ROID     string
}

// WriteAuthInfo encodes <authInfo><pw/></authInfo>. A nil or empty AuthInfo
// with required set fails with ErrMissing.
func WriteAuthInfo(w *codec.Writer, ai *AuthInfo, required bool) {
	if ai == nil {
		if required {
			w.Fail("authInfo", codec.ErrMissing)
		}
		return
	}
	pw := w.Child("authInfo").String("pw", ai.Password)
	if pw != nil && ai.ROID != "" {
		pw.CreateAttr("roid", ai.ROID)
	}
}

// WriteNullAuthInfo encodes <authInfo><null/></authInfo>, clearing a password.
func WriteNullAuthInfo(w *codec.Writer) {
	w.Child("authInfo").Empty("null")
}

// ReadAuthInfo decodes an optional <authInfo>.
func ReadAuthInfo(r *codec.Reader) *AuthInfo {
	sub := r.OptSub("authInfo")
	if sub == nil {
		return nil
	}
	pw := sub.Child("pw")
	if pw == nil {
		return &AuthInfo{}
	}
	return &AuthInfo{Password: codec.Text(pw), ROID: codec.Attr(pw, "roid")}
}

// Period units.
const (
	UnitYear  = "y"
	UnitMonth = "m"
)

// Period is a registration or renewal term.
type Period struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// Validate checks the term is within 1..99 of a known unit.
func (p Period) Validate() error {
	if p.Unit != UnitYear && p.Unit != UnitMonth {
		return fmt.Errorf("%w: period unit %q", codec.ErrInvalid, p.Unit)
	}
	if p.Value < 1 || p.Value > 99 {
		return fmt.Errorf("%w: period value %d out of range 1..99", codec.ErrInvalid, p.Value)
	}
	return nil
}

// WritePeriod encodes an optional <period unit="y">n</period>.
func WritePeriod(w *codec.Writer, p *Period) {
	if p == nil {
		return
	}
	if err := p.Validate(); err != nil {
		w.FailDetail("period", codec.ErrInvalid, err.Error())
		return
	}
	if el := w.Int("period", p.Value); el != nil {
		el.CreateAttr("unit", p.Unit)
	}
}

// ReadPeriod decodes an optional <period>.
func ReadPeriod(r *codec.Reader) *Period {
	el := r.Child("period")
	if el == nil {
		return nil
	}
	v := r.OptInt("period")
	unit := codec.Attr(el, "unit")
	if unit == "" {
		unit = UnitYear
	}
	if v == nil {
		return nil
	}
	return &Period{Value: *v, Unit: unit}
}
