package domain

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Create provisions a domain.
type Create struct {
	Name        string
	Period      *shared.Period
	NameServers *NameServers
	Registrant  string
	Contacts    []Contact
	AuthInfo    *shared.AuthInfo
}

func (c *Create) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("create")
	w.String("name", c.Name)
	shared.WritePeriod(w, c.Period)
	writeNameServers(w, c.NameServers)
	w.OptString("registrant", c.Registrant)
	writeContacts(w, c.Contacts)
	shared.WriteAuthInfo(w, c.AuthInfo, true)
	return w.Element(), w.Err()
}

func (c *Create) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "create")
	c.Name = r.String("name")
	c.Period = shared.ReadPeriod(r)
	c.NameServers = readNameServers(r)
	c.Registrant = r.OptString("registrant")
	c.Contacts = readContacts(r)
	c.AuthInfo = shared.ReadAuthInfo(r)
	if c.AuthInfo == nil {
		r.Fail("authInfo", codec.ErrMissing)
	}
	return r.Err()
}

// CreateData answers a Create.
type CreateData struct {
	Name   string
	CrDate time.Time
	ExDate time.Time
}

func (d *CreateData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("creData")
	w.String("name", d.Name)
	w.Time("crDate", d.CrDate)
	w.OptTime("exDate", d.ExDate)
	return w.Element(), w.Err()
}

func (d *CreateData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "creData")
	d.Name = r.String("name")
	d.CrDate = r.Time("crDate")
	d.ExDate = r.OptTime("exDate")
	return r.Err()
}

// Delete removes a domain.
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
