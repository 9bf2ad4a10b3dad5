package domain

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// UpdateSet lists values added to or removed from a domain.
type UpdateSet struct {
	NameServers *NameServers
	Contacts    []Contact
	Statuses    []shared.Status
}

func (s *UpdateSet) empty() bool {
	return s.NameServers == nil && len(s.Contacts) == 0 && len(s.Statuses) == 0
}

// UpdateChange replaces single-valued attributes. NullAuthInfo clears the
// password and excludes AuthInfo.
type UpdateChange struct {
	Registrant   *string
	AuthInfo     *shared.AuthInfo
	NullAuthInfo bool
}

// Update modifies a domain. At least one of Add, Rem or Chg is required.
type Update struct {
	Name string
	Add  *UpdateSet
	Rem  *UpdateSet
	Chg  *UpdateChange
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	w.String("name", u.Name)
	if u.Add == nil && u.Rem == nil && u.Chg == nil {
		w.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	writeUpdateSet(w, "add", u.Add)
	writeUpdateSet(w, "rem", u.Rem)
	if c := u.Chg; c != nil {
		if c.NullAuthInfo && c.AuthInfo != nil {
			w.FailDetail("chg", codec.ErrInvalid, "authInfo and null authInfo are mutually exclusive")
		}
		cw := w.Child("chg")
		if c.Registrant != nil {
			// An empty registrant element removes the registrant.
			if el := cw.Empty("registrant"); el != nil {
				el.SetText(*c.Registrant)
			}
		}
		if c.NullAuthInfo {
			shared.WriteNullAuthInfo(cw)
		} else {
			shared.WriteAuthInfo(cw, c.AuthInfo, false)
		}
	}
	return w.Element(), w.Err()
}

func writeUpdateSet(w *codec.Writer, local string, s *UpdateSet) {
	if s == nil {
		return
	}
	if s.empty() {
		w.Fail(local, codec.ErrMissing)
		return
	}
	sw := w.Child(local)
	writeNameServers(sw, s.NameServers)
	writeContacts(sw, s.Contacts)
	shared.WriteStatuses(sw, s.Statuses)
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	u.Name = r.String("name")
	u.Add = readUpdateSet(r.OptSub("add"))
	u.Rem = readUpdateSet(r.OptSub("rem"))
	if cr := r.OptSub("chg"); cr != nil {
		u.Chg = &UpdateChange{}
		if reg := cr.Child("registrant"); reg != nil {
			v := codec.Text(reg)
			u.Chg.Registrant = &v
		}
		if ar := cr.OptSub("authInfo"); ar != nil && ar.Has("null") {
			u.Chg.NullAuthInfo = true
		} else {
			u.Chg.AuthInfo = shared.ReadAuthInfo(cr)
		}
	}
	if u.Add == nil && u.Rem == nil && u.Chg == nil && r.Err() == nil {
		r.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	return r.Err()
}

func readUpdateSet(r *codec.Reader) *UpdateSet {
	if r == nil {
		return nil
	}
	return &UpdateSet{
		NameServers: readNameServers(r),
		Contacts:    readContacts(r),
		Statuses:    shared.ReadStatuses(r),
	}
}

// PendingActionData is the poll message a server queues when an action that
// returned 1001 completes.
type PendingActionData struct {
	Name     string
	PaResult bool
	PaClTRID string
	PaSvTRID string
	PaDate   time.Time
}

func (d *PendingActionData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("panData")
	if el := w.String("name", d.Name); el != nil {
		el.CreateAttr("paResult", codec.FormatFlag(d.PaResult))
	}
	tw := w.Child("paTRID")
	tw.Element().CreateAttr("xmlns", codec.EPP.URI)
	tw = tw.In(codec.EPP)
	tw.OptString("clTRID", d.PaClTRID)
	tw.String("svTRID", d.PaSvTRID)
	w.Time("paDate", d.PaDate)
	return w.Element(), w.Err()
}

func (d *PendingActionData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "panData")
	d.Name = r.String("name")
	if name := r.Child("name"); name != nil {
		v, err := codec.ParseBool(codec.Attr(name, "paResult"))
		if err != nil {
			r.FailDetail("name", codec.ErrInvalid, "paResult attribute")
		}
		d.PaResult = v
	}
	tr := r.Sub("paTRID").In(codec.EPP)
	d.PaClTRID = tr.OptString("clTRID")
	d.PaSvTRID = tr.String("svTRID")
	d.PaDate = r.Time("paDate")
	return r.Err()
}
