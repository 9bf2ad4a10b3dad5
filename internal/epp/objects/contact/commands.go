package contact

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Check asks whether contact identifiers are available.
type Check struct {
	IDs []string
}

func (c *Check) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("check")
	w.Strings("id", c.IDs, 1)
	return w.Element(), w.Err()
}

func (c *Check) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "check")
	c.IDs = r.Strings("id")
	if len(c.IDs) == 0 {
		r.Fail("id", codec.ErrMissing)
	}
	return r.Err()
}

// CheckData answers a Check.
type CheckData struct {
	Results []shared.CheckResult
}

func (d *CheckData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("chkData")
	shared.WriteCheckResults(w, "id", d.Results)
	return w.Element(), w.Err()
}

func (d *CheckData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "chkData")
	d.Results = shared.ReadCheckResults(r, "id")
	return r.Err()
}

// Info requests the data of a contact.
type Info struct {
	ID       string
	AuthInfo *shared.AuthInfo
}

func (i *Info) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("info")
	w.String("id", i.ID)
	shared.WriteAuthInfo(w, i.AuthInfo, false)
	return w.Element(), w.Err()
}

func (i *Info) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "info")
	i.ID = r.String("id")
	i.AuthInfo = shared.ReadAuthInfo(r)
	return r.Err()
}

// InfoData answers an Info.
type InfoData struct {
	ID          string
	ROID        string
	Statuses    []shared.Status
	PostalInfos []PostalInfo
	Voice       *Phone
	Fax         *Phone
	Email       string
	ClID        string
	CrID        string
	CrDate      time.Time
	UpID        string
	UpDate      time.Time
	TrDate      time.Time
	AuthInfo    *shared.AuthInfo
	Disclose    *Disclose
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	w.String("id", d.ID)
	w.String("roid", d.ROID)
	if len(d.Statuses) == 0 {
		w.Fail("status", codec.ErrMissing)
	}
	shared.WriteStatuses(w, d.Statuses)
	writePostalInfos(w, d.PostalInfos, false)
	writePhone(w, "voice", d.Voice)
	writePhone(w, "fax", d.Fax)
	w.String("email", d.Email)
	w.String("clID", d.ClID)
	w.String("crID", d.CrID)
	w.Time("crDate", d.CrDate)
	w.OptString("upID", d.UpID)
	w.OptTime("upDate", d.UpDate)
	w.OptTime("trDate", d.TrDate)
	shared.WriteAuthInfo(w, d.AuthInfo, false)
	w.OptComp(d.Disclose)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.ID = r.String("id")
	d.ROID = r.String("roid")
	d.Statuses = shared.ReadStatuses(r)
	d.PostalInfos = readPostalInfos(r, false)
	d.Voice = readPhone(r, "voice")
	d.Fax = readPhone(r, "fax")
	d.Email = r.String("email")
	d.ClID = r.String("clID")
	d.CrID = r.String("crID")
	d.CrDate = r.Time("crDate")
	d.UpID = r.OptString("upID")
	d.UpDate = r.OptTime("upDate")
	d.TrDate = r.OptTime("trDate")
	d.AuthInfo = shared.ReadAuthInfo(r)
	d.Disclose = codec.DecodeOpt[Disclose](r, "disclose")
	return r.Err()
}

// Create provisions a contact.
type Create struct {
	ID          string
	PostalInfos []PostalInfo
	Voice       *Phone
	Fax         *Phone
	Email       string
	AuthInfo    *shared.AuthInfo
	Disclose    *Disclose
}

func (c *Create) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("create")
	if n := len(c.ID); n > 0 && (n < 3 || n > 16) {
		w.FailDetail("id", codec.ErrInvalid, "id must be 3 to 16 characters")
	}
	w.String("id", c.ID)
	writePostalInfos(w, c.PostalInfos, false)
	writePhone(w, "voice", c.Voice)
	writePhone(w, "fax", c.Fax)
	w.String("email", c.Email)
	shared.WriteAuthInfo(w, c.AuthInfo, true)
	w.OptComp(c.Disclose)
	return w.Element(), w.Err()
}

func (c *Create) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "create")
	c.ID = r.String("id")
	c.PostalInfos = readPostalInfos(r, false)
	c.Voice = readPhone(r, "voice")
	c.Fax = readPhone(r, "fax")
	c.Email = r.String("email")
	c.AuthInfo = shared.ReadAuthInfo(r)
	if c.AuthInfo == nil {
		r.Fail("authInfo", codec.ErrMissing)
	}
	c.Disclose = codec.DecodeOpt[Disclose](r, "disclose")
	return r.Err()
}

// CreateData answers a Create.
type CreateData struct {
	ID     string
	CrDate time.Time
}

func (d *CreateData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("creData")
	w.String("id", d.ID)
	w.Time("crDate", d.CrDate)
	return w.Element(), w.Err()
}

func (d *CreateData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "creData")
	d.ID = r.String("id")
	d.CrDate = r.Time("crDate")
	return r.Err()
}

// Delete removes a contact.
type Delete struct {
	ID string
}

func (d *Delete) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("delete")
	w.String("id", d.ID)
	return w.Element(), w.Err()
}

func (d *Delete) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "delete")
	d.ID = r.String("id")
	return r.Err()
}

// Transfer manages the sponsorship of a contact.
type Transfer struct {
	ID       string
	AuthInfo *shared.AuthInfo
}

func (t *Transfer) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("transfer")
	w.String("id", t.ID)
	shared.WriteAuthInfo(w, t.AuthInfo, false)
	return w.Element(), w.Err()
}

func (t *Transfer) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "transfer")
	t.ID = r.String("id")
	t.AuthInfo = shared.ReadAuthInfo(r)
	return r.Err()
}

// TransferData reports the state of a contact transfer.
type TransferData struct {
	ID       string
	TrStatus string
	ReID     string
	ReDate   time.Time
	AcID     string
	AcDate   time.Time
}

func (d *TransferData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("trnData")
	w.String("id", d.ID)
	w.String("trStatus", d.TrStatus)
	w.String("reID", d.ReID)
	w.Time("reDate", d.ReDate)
	w.String("acID", d.AcID)
	w.Time("acDate", d.AcDate)
	return w.Element(), w.Err()
}

func (d *TransferData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "trnData")
	d.ID = r.String("id")
	d.TrStatus = r.String("trStatus")
	d.ReID = r.String("reID")
	d.ReDate = r.Time("reDate")
	d.AcID = r.String("acID")
	d.AcDate = r.Time("acDate")
	return r.Err()
}

// UpdateChange replaces contact attributes. Nil fields are left unchanged.
type UpdateChange struct {
	PostalInfos []PostalInfo
	Voice       *Phone
	Fax         *Phone
	Email       string
	AuthInfo    *shared.AuthInfo
	Disclose    *Disclose
}

func (c *UpdateChange) empty() bool {
	return len(c.PostalInfos) == 0 && c.Voice == nil && c.Fax == nil && c.Email == "" && c.AuthInfo == nil && c.Disclose == nil
}

// Update modifies a contact. Statuses are added or removed; other attributes
// are replaced through Chg.
type Update struct {
	ID          string
	AddStatuses []shared.Status
	RemStatuses []shared.Status
	Chg         *UpdateChange
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	w.String("id", u.ID)
	if len(u.AddStatuses) == 0 && len(u.RemStatuses) == 0 && (u.Chg == nil || u.Chg.empty()) {
		w.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	if len(u.AddStatuses) > 0 {
		shared.WriteStatuses(w.Child("add"), u.AddStatuses)
	}
	if len(u.RemStatuses) > 0 {
		shared.WriteStatuses(w.Child("rem"), u.RemStatuses)
	}
	if c := u.Chg; c != nil && !c.empty() {
		cw := w.Child("chg")
		writePostalInfos(cw, c.PostalInfos, true)
		writePhone(cw, "voice", c.Voice)
		writePhone(cw, "fax", c.Fax)
		cw.OptString("email", c.Email)
		shared.WriteAuthInfo(cw, c.AuthInfo, false)
		cw.OptComp(c.Disclose)
	}
	return w.Element(), w.Err()
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	u.ID = r.String("id")
	if ar := r.OptSub("add"); ar != nil {
		u.AddStatuses = shared.ReadStatuses(ar)
	}
	if rr := r.OptSub("rem"); rr != nil {
		u.RemStatuses = shared.ReadStatuses(rr)
	}
	if cr := r.OptSub("chg"); cr != nil {
		u.Chg = &UpdateChange{
			PostalInfos: readPostalInfos(cr, true),
			Voice:       readPhone(cr, "voice"),
			Fax:         readPhone(cr, "fax"),
			Email:       cr.OptString("email"),
			AuthInfo:    shared.ReadAuthInfo(cr),
			Disclose:    codec.DecodeOpt[Disclose](cr, "disclose"),
		}
	}
	if len(u.AddStatuses) == 0 && len(u.RemStatuses) == 0 && u.Chg == nil && r.Err() == nil {
		r.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	return r.Err()
}

// PendingActionData is queued when a pending contact action completes.
type PendingActionData struct {
	ID       string
	PaResult bool
	PaClTRID string
	PaSvTRID string
	PaDate   time.Time
}

func (d *PendingActionData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("panData")
	if el := w.String("id", d.ID); el != nil {
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
	d.ID = r.String("id")
	if id := r.Child("id"); id != nil {
		v, err := codec.ParseBool(codec.Attr(id, "paResult"))
		if err != nil {
			r.FailDetail("id", codec.ErrInvalid, "paResult attribute")
		}
		d.PaResult = v
	}
	tr := r.Sub("paTRID").In(codec.EPP)
	d.PaClTRID = tr.OptString("clTRID")
	d.PaSvTRID = tr.String("svTRID")
	d.PaDate = r.Time("paDate")
	return r.Err()
}
