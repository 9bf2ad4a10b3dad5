// Package host implements the RFC 5732 host mapping.
package host

import (
	"net/netip"
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// NS is the host mapping namespace.
var NS = codec.Namespace{Prefix: "host", URI: "urn:ietf:params:xml:ns:host-1.0"}

// Address versions.
const (
	V4 = "v4"
	V6 = "v6"
)

// Factory instantiates every host mapping element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindObject, codec.Constructors{
		"check":   func() codec.Component { return &Check{} },
		"chkData": func() codec.Component { return &CheckData{} },
		"info":    func() codec.Component { return &Info{} },
		"infData": func() codec.Component { return &InfoData{} },
		"create":  func() codec.Component { return &Create{} },
		"creData": func() codec.Component { return &CreateData{} },
		"delete":  func() codec.Component { return &Delete{} },
		"update":  func() codec.Component { return &Update{} },
	})
}

// Addr is an IP address of a host. Version is derived from IP when empty.
type Addr struct {
	IP      string `json:"ip"`
	Version string `json:"version,omitempty"`
}

func writeAddrs(w *codec.Writer, addrs []Addr) {
	for _, a := range addrs {
		ip, err := netip.ParseAddr(a.IP)
		if err != nil {
			w.FailDetail("addr", codec.ErrInvalid, a.IP)
			return
		}
		version := V4
		if ip.Is6() && !ip.Is4In6() {
			version = V6
		}
		if a.Version != "" && a.Version != version {
			w.FailDetail("addr", codec.ErrInvalid, a.IP+" is not "+a.Version)
			return
		}
		if el := w.String("addr", a.IP); el != nil {
			el.CreateAttr("ip", version)
		}
	}
}

func readAddrs(r *codec.Reader) []Addr {
	var out []Addr
	for _, el := range r.Children("addr") {
		a := Addr{IP: codec.Text(el), Version: codec.Attr(el, "ip")}
		if a.Version == "" {
			a.Version = V4
		}
		if a.Version != V4 && a.Version != V6 {
			r.FailDetail("addr", codec.ErrInvalid, "ip attribute "+a.Version)
			return out
		}
		out = append(out, a)
	}
	return out
}

// Check asks whether host names are available.
type Check struct {
	Names []string
}

func (c *Check) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("check")
	w.Strings("name", c.Names, 1)
	return w.Element(), w.Err()
}

func (c *Check) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "check")
	c.Names = r.Strings("name")
	if len(c.Names) == 0 {
		r.Fail("name", codec.ErrMissing)
	}
	return r.Err()
}

// CheckData answers a Check.
type CheckData struct {
	Results []shared.CheckResult
}

func (d *CheckData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("chkData")
	shared.WriteCheckResults(w, "name", d.Results)
	return w.Element(), w.Err()
}

func (d *CheckData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "chkData")
	d.Results = shared.ReadCheckResults(r, "name")
	return r.Err()
}

// Info requests the data of a host.
type Info struct {
	Name string
}

func (i *Info) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("info")
	w.String("name", i.Name)
	return w.Element(), w.Err()
}

func (i *Info) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "info")
	i.Name = r.String("name")
	return r.Err()
}

// InfoData answers an Info.
type InfoData struct {
	Name     string
	ROID     string
	Statuses []shared.Status
	Addrs    []Addr
	ClID     string
	CrID     string
	CrDate   time.Time
	UpID     string
	UpDate   time.Time
	TrDate   time.Time
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	w.String("name", d.Name)
	w.String("roid", d.ROID)
	if len(d.Statuses) == 0 {
		w.Fail("status", codec.ErrMissing)
	}
	shared.WriteStatuses(w, d.Statuses)
	writeAddrs(w, d.Addrs)
	w.String("clID", d.ClID)
	w.String("crID", d.CrID)
	w.Time("crDate", d.CrDate)
	w.OptString("upID", d.UpID)
	w.OptTime("upDate", d.UpDate)
	w.OptTime("trDate", d.TrDate)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.Name = r.String("name")
	d.ROID = r.String("roid")
	d.Statuses = shared.ReadStatuses(r)
	d.Addrs = readAddrs(r)
	d.ClID = r.String("clID")
	d.CrID = r.String("crID")
	d.CrDate = r.Time("crDate")
	d.UpID = r.OptString("upID")
	d.UpDate = r.OptTime("upDate")
	d.TrDate = r.OptTime("trDate")
	return r.Err()
}

// Create provisions a host. Addresses are required by registries only for
// hosts subordinate to a domain they manage.
type Create struct {
	Name  string
	Addrs []Addr
}

func (c *Create) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("create")
	w.String("name", c.Name)
	writeAddrs(w, c.Addrs)
	return w.Element(), w.Err()
}

func (c *Create) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "create")
	c.Name = r.String("name")
	c.Addrs = readAddrs(r)
	return r.Err()
}

// CreateData answers a Create.
type CreateData struct {
	Name   string
	CrDate time.Time
}

func (d *CreateData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("creData")
	w.String("name", d.Name)
	w.Time("crDate", d.CrDate)
	return w.Element(), w.Err()
}

func (d *CreateData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "creData")
	d.Name = r.String("name")
	d.CrDate = r.Time("crDate")
	return r.Err()
}

// Delete removes a host.
type Delete struct {
	Name string
}

func (d *Delete) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("delete")
	w.String("name", d.Name)
	return w.Element(), w.Err()
}

func (d *Delete) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "delete")
	d.Name = r.String("name")
	return r.Err()
}

// UpdateSet lists addresses and statuses added or removed.
type UpdateSet struct {
	Addrs    []Addr
	Statuses []shared.Status
}

// Update modifies a host. NewName renames it.
type Update struct {
	Name    string
	Add     *UpdateSet
	Rem     *UpdateSet
	NewName string
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	w.String("name", u.Name)
	if u.Add == nil && u.Rem == nil && u.NewName == "" {
		w.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	for _, s := range []struct {
		local string
		set   *UpdateSet
	}{{"add", u.Add}, {"rem", u.Rem}} {
		if s.set == nil {
			continue
		}
		if len(s.set.Addrs) == 0 && len(s.set.Statuses) == 0 {
			w.Fail(s.local, codec.ErrMissing)
			break
		}
		sw := w.Child(s.local)
		writeAddrs(sw, s.set.Addrs)
		shared.WriteStatuses(sw, s.set.Statuses)
	}
	if u.NewName != "" {
		w.Child("chg").String("name", u.NewName)
	}
	return w.Element(), w.Err()
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	u.Name = r.String("name")
	if ar := r.OptSub("add"); ar != nil {
		u.Add = &UpdateSet{Addrs: readAddrs(ar), Statuses: shared.ReadStatuses(ar)}
	}
	if rr := r.OptSub("rem"); rr != nil {
		u.Rem = &UpdateSet{Addrs: readAddrs(rr), Statuses: shared.ReadStatuses(rr)}
	}
	if cr := r.OptSub("chg"); cr != nil {
		u.NewName = cr.String("name")
	}
	if u.Add == nil && u.Rem == nil && u.NewName == "" && r.Err() == nil {
		r.FailDetail("add", codec.ErrMissing, "one of add, rem or chg is required")
	}
	return r.Err()
}
