// Package contact implements the RFC 5733 contact mapping.
package contact

import (
	"strings"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// NS is the contact mapping namespace.
var NS = codec.Namespace{Prefix: "contact", URI: "urn:ietf:params:xml:ns:contact-1.0"}

// Postal info types.
const (
	PostalInt = "int"
	PostalLoc = "loc"
)

const maxStreets = 3

// Factory instantiates every contact mapping element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindObject, codec.Constructors{
		"check":    func() codec.Component { return &Check{} },
		"chkData":  func() codec.Component { return &CheckData{} },
		"info":     func() codec.Component { return &Info{} },
		"infData":  func() codec.Component { return &InfoData{} },
		"create":   func() codec.Component { return &Create{} },
		"creData":  func() codec.Component { return &CreateData{} },
		"delete":   func() codec.Component { return &Delete{} },
		"transfer": func() codec.Component { return &Transfer{} },
		"trnData":  func() codec.Component { return &TransferData{} },
		"update":   func() codec.Component { return &Update{} },
		"panData":  func() codec.Component { return &PendingActionData{} },
	})
}

// Address is a postal address.
type Address struct {
	Street      []string `json:"street,omitempty"`
	City        string   `json:"city"`
	SP          string   `json:"sp,omitempty"`
	PC          string   `json:"pc,omitempty"`
	CountryCode string   `json:"cc"`
}

func (a *Address) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("addr")
	if len(a.Street) > maxStreets {
		w.FailDetail("street", codec.ErrInvalid, "at most 3 street lines")
	}
	w.Strings("street", a.Street, 0)
	w.String("city", a.City)
	w.OptString("sp", a.SP)
	w.OptString("pc", a.PC)
	if a.CountryCode != "" && !validCountryCode(a.CountryCode) {
		w.FailDetail("cc", codec.ErrInvalid, a.CountryCode)
	}
	w.String("cc", a.CountryCode)
	return w.Element(), w.Err()
}

func (a *Address) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "addr")
	a.Street = r.Strings("street")
	if len(a.Street) > maxStreets {
		r.FailDetail("street", codec.ErrInvalid, "at most 3 street lines")
	}
	a.City = r.String("city")
	a.SP = r.OptString("sp")
	a.PC = r.OptString("pc")
	a.CountryCode = r.String("cc")
	if a.CountryCode != "" && !validCountryCode(a.CountryCode) {
		r.FailDetail("cc", codec.ErrInvalid, a.CountryCode)
	}
	return r.Err()
}

func validCountryCode(cc string) bool {
	if len(cc) != 2 {
		return false
	}
	return strings.IndexFunc(cc, func(r rune) bool { return r < 'A' || r > 'Z' }) < 0
}

// PostalInfo is a name and address in one of the two representations: int
// restricted to 7-bit ASCII, or loc allowing any characters.
type PostalInfo struct {
	Type string   `json:"type"`
	Name string   `json:"name"`
	Org  string   `json:"org,omitempty"`
	Addr *Address `json:"addr,omitempty"`
}

func (p *PostalInfo) Encode(parent *etree.Element) (*etree.Element, error) {
	return p.encode(parent, false)
}

// encode writes the element. partial allows the omissions an update's chg
// permits.
func (p *PostalInfo) encode(parent *etree.Element, partial bool) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("postalInfo")
	switch p.Type {
	case PostalInt:
		if !isASCII(p.Name) || !isASCII(p.Org) {
			w.FailDetail("postalInfo", codec.ErrInvalid, "int postal info must be 7-bit ASCII")
		}
	case PostalLoc:
	default:
		w.FailDetail("postalInfo", codec.ErrInvalid, "type "+p.Type)
	}
	w.Attr("type", p.Type)
	if partial {
		w.OptString("name", p.Name)
	} else {
		w.String("name", p.Name)
	}
	w.OptString("org", p.Org)
	if partial {
		w.OptComp(p.Addr)
	} else {
		w.Comp("addr", p.Addr)
	}
	return w.Element(), w.Err()
}

func (p *PostalInfo) Decode(el *etree.Element) error {
	return p.decode(el, false)
}

func (p *PostalInfo) decode(el *etree.Element, partial bool) error {
	r := codec.Expect(el, NS, "postalInfo")
	p.Type = r.RequiredAttr("type")
	if p.Type != "" && p.Type != PostalInt && p.Type != PostalLoc {
		r.FailDetail("postalInfo", codec.ErrInvalid, "type "+p.Type)
	}
	if partial {
		p.Name = r.OptString("name")
	} else {
		p.Name = r.String("name")
	}
	p.Org = r.OptString("org")
	p.Addr = codec.DecodeOpt[Address](r, "addr")
	if !partial && p.Addr == nil {
		r.Fail("addr", codec.ErrMissing)
	}
	return r.Err()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// chgPostalInfo is the postal info of an update, where every child is optional.
type chgPostalInfo PostalInfo

func (c *chgPostalInfo) Encode(parent *etree.Element) (*etree.Element, error) {
	return (*PostalInfo)(c).encode(parent, true)
}

func (c *chgPostalInfo) Decode(el *etree.Element) error {
	return (*PostalInfo)(c).decode(el, true)
}

func checkPostalTypes(infos []PostalInfo) bool {
	return len(infos) <= 2 && (len(infos) < 2 || infos[0].Type != infos[1].Type)
}

func writePostalInfos(w *codec.Writer, infos []PostalInfo, partial bool) {
	if !checkPostalTypes(infos) {
		w.FailDetail("postalInfo", codec.ErrInvalid, "at most one int and one loc postal info")
		return
	}
	if !partial {
		codec.Comps(w, "postalInfo", infos, 1)
		return
	}
	chg := make([]chgPostalInfo, len(infos))
	for i := range infos {
		chg[i] = chgPostalInfo(infos[i])
	}
	codec.Comps(w, "postalInfo", chg, 0)
}

func readPostalInfos(r *codec.Reader, partial bool) []PostalInfo {
	var out []PostalInfo
	if partial {
		for _, c := range codec.DecodeAll[chgPostalInfo](r, "postalInfo") {
			out = append(out, PostalInfo(c))
		}
	} else {
		out = codec.DecodeAll[PostalInfo](r, "postalInfo")
		if len(out) == 0 {
			r.Fail("postalInfo", codec.ErrMissing)
		}
	}
	if !checkPostalTypes(out) {
		r.FailDetail("postalInfo", codec.ErrInvalid, "at most one int and one loc postal info")
	}
	return out
}

// Phone is an E.164 number with an optional extension.
type Phone struct {
	Number string `json:"number"`
	Ext    string `json:"ext,omitempty"`
}

func writePhone(w *codec.Writer, local string, p *Phone) {
	if p == nil {
		return
	}
	if !validE164(p.Number) {
		w.FailDetail(local, codec.ErrInvalid, p.Number)
		return
	}
	if p.Number == "" {
		w.Empty(local)
		return
	}
	if el := w.String(local, p.Number); el != nil && p.Ext != "" {
		el.CreateAttr("x", p.Ext)
	}
}

func readPhone(r *codec.Reader, local string) *Phone {
	el := r.Child(local)
	if el == nil {
		return nil
	}
	p := &Phone{Number: codec.Text(el), Ext: codec.Attr(el, "x")}
	if p.Number != "" && !validE164(p.Number) {
		r.FailDetail(local, codec.ErrInvalid, p.Number)
	}
	return p
}

// validE164 accepts +CC.NNNN with a country code of 1 to 3 digits and a
// number of up to 14 digits. An empty number clears the value in updates.
func validE164(s string) bool {
	if s == "" {
		return true
	}
	cc, num, ok := strings.Cut(strings.TrimPrefix(s, "+"), ".")
	if !ok || !strings.HasPrefix(s, "+") {
		return false
	}
	return len(cc) >= 1 && len(cc) <= 3 && digits(cc) && len(num) >= 1 && len(num) <= 14 && digits(num)
}

func digits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// Disclose marks which elements the server may or may not reveal. Name, Org
// and Addr list the postal info types they apply to.
type Disclose struct {
	Flag  bool     `json:"flag"`
	Name  []string `json:"name,omitempty"`
	Org   []string `json:"org,omitempty"`
	Addr  []string `json:"addr,omitempty"`
	Voice bool     `json:"voice,omitempty"`
	Fax   bool     `json:"fax,omitempty"`
	Email bool     `json:"email,omitempty"`
}

func (d *Disclose) empty() bool {
	return len(d.Name) == 0 && len(d.Org) == 0 && len(d.Addr) == 0 && !d.Voice && !d.Fax && !d.Email
}

func (d *Disclose) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("disclose")
	w.Attr("flag", codec.FormatFlag(d.Flag))
	if d.empty() {
		w.FailDetail("disclose", codec.ErrMissing, "disclose lists no elements")
	}
	for _, f := range []struct {
		local string
		types []string
	}{{"name", d.Name}, {"org", d.Org}, {"addr", d.Addr}} {
		for _, typ := range f.types {
			if typ != PostalInt && typ != PostalLoc {
				w.FailDetail(f.local, codec.ErrInvalid, "type "+typ)
				break
			}
			if el := w.Empty(f.local); el != nil {
				el.CreateAttr("type", typ)
			}
		}
	}
	w.Flag("voice", d.Voice)
	w.Flag("fax", d.Fax)
	w.Flag("email", d.Email)
	return w.Element(), w.Err()
}

func (d *Disclose) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "disclose")
	flag := r.RequiredAttr("flag")
	if flag != "" {
		v, err := codec.ParseBool(flag)
		if err != nil {
			r.FailDetail("disclose", codec.ErrInvalid, "flag "+flag)
		}
		d.Flag = v
	}
	for _, c := range r.Children("name") {
		d.Name = append(d.Name, codec.Attr(c, "type"))
	}
	for _, c := range r.Children("org") {
		d.Org = append(d.Org, codec.Attr(c, "type"))
	}
	for _, c := range r.Children("addr") {
		d.Addr = append(d.Addr, codec.Attr(c, "type"))
	}
	d.Voice = r.Has("voice")
	d.Fax = r.Has("fax")
	d.Email = r.Has("email")
	return r.Err()
}
