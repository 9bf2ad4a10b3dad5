package domain

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Info requests the data of a domain.
type Info struct {
	Name     string
	Hosts    string
	AuthInfo *shared.AuthInfo
}

func (i *Info) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("info")
	switch i.Hosts {
	case "", HostsAll, HostsDel, HostsSub, HostsNone:
	default:
		w.FailDetail("name", codec.ErrInvalid, "hosts "+i.Hosts)
	}
	if name := w.String("name", i.Name); name != nil && i.Hosts != "" {
		name.CreateAttr("hosts", i.Hosts)
	}
	shared.WriteAuthInfo(w, i.AuthInfo, false)
	return w.Element(), w.Err()
}

func (i *Info) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "info")
	i.Name = r.String("name")
	i.Hosts = codec.Attr(r.Child("name"), "hosts")
	i.AuthInfo = shared.ReadAuthInfo(r)
	return r.Err()
}

// InfoData answers an Info.
type InfoData struct {
	Name        string
	ROID        string
	Statuses    []shared.Status
	Registrant  string
	Contacts    []Contact
	NameServers *NameServers
	Hosts       []string
	ClID        string
	CrID        string
	CrDate      time.Time
	UpID        string
	UpDate      time.Time
	ExDate      time.Time
	TrDate      time.Time
	AuthInfo    *shared.AuthInfo
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	w.String("name", d.Name)
	w.String("roid", d.ROID)
	shared.WriteStatuses(w, d.Statuses)
	w.OptString("registrant", d.Registrant)
	writeContacts(w, d.Contacts)
	writeNameServers(w, d.NameServers)
	w.Strings("host", d.Hosts, 0)
	w.String("clID", d.ClID)
	w.OptString("crID", d.CrID)
	w.OptTime("crDate", d.CrDate)
	w.OptString("upID", d.UpID)
	w.OptTime("upDate", d.UpDate)
	w.OptTime("exDate", d.ExDate)
	w.OptTime("trDate", d.TrDate)
	shared.WriteAuthInfo(w, d.AuthInfo, false)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.Name = r.String("name")
	d.ROID = r.String("roid")
	d.Statuses = shared.ReadStatuses(r)
	d.Registrant = r.OptString("registrant")
	d.Contacts = readContacts(r)
	d.NameServers = readNameServers(r)
	d.Hosts = r.Strings("host")
	d.ClID = r.String("clID")
	d.CrID = r.OptString("crID")
	d.CrDate = r.OptTime("crDate")
	d.UpID = r.OptString("upID")
	d.UpDate = r.OptTime("upDate")
	d.ExDate = r.OptTime("exDate")
	d.TrDate = r.OptTime("trDate")
	d.AuthInfo = shared.ReadAuthInfo(r)
	return r.Err()
}
