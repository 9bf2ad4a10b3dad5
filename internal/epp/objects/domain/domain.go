// Package domain implements the RFC 5731 domain name mapping.
package domain

import (
	"net/netip"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// NS is the domain mapping namespace.
var NS = codec.Namespace{Prefix: "domain", URI: "urn:ietf:params:xml:ns:domain-1.0"}

// Contact roles.
const (
	ContactAdmin   = "admin"
	ContactBilling = "billing"
	ContactTech    = "tech"
)

// Host filters for info requests.
const (
	HostsAll  = "all"
	HostsDel  = "del"
	HostsSub  = "sub"
	HostsNone = "none"
)

// Factory instantiates every domain mapping element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindObject, codec.Constructors{
		"check":    func() codec.Component { return &Check{} },
		"chkData":  func() codec.Component { return &CheckData{} },
		"info":     func() codec.Component { return &Info{} },
		"infData":  func() codec.Component { return &InfoData{} },
		"create":   func() codec.Component { return &Create{} },
		"creData":  func() codec.Component { return &CreateData{} },
		"delete":   func() codec.Component { return &Delete{} },
		"renew":    func() codec.Component { return &Renew{} },
		"renData":  func() codec.Component { return &RenewData{} },
		"transfer": func() codec.Component { return &Transfer{} },
		"trnData":  func() codec.Component { return &TransferData{} },
		"update":   func() codec.Component { return &Update{} },
		"panData":  func() codec.Component { return &PendingActionData{} },
	})
}

// Contact associates a contact object with the domain in a role.
type Contact struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func writeContacts(w *codec.Writer, contacts []Contact) {
	for _, c := range contacts {
		switch c.Type {
		case ContactAdmin, ContactBilling, ContactTech:
		default:
			w.FailDetail("contact", codec.ErrInvalid, "contact type "+c.Type)
			return
		}
		if el := w.String("contact", c.ID); el != nil {
			el.CreateAttr("type", c.Type)
		}
	}
}

func readContacts(r *codec.Reader) []Contact {
	var out []Contact
	for _, el := range r.Children("contact") {
		out = append(out, Contact{Type: codec.Attr(el, "type"), ID: codec.Text(el)})
	}
	return out
}

// HostAddr is an IP address of a host attribute.
type HostAddr struct {
	IP string `json:"ip"`
}

// Version returns "v6" for IPv6 addresses and "v4" otherwise.
func (a HostAddr) Version() string {
	if ip, err := netip.ParseAddr(a.IP); err == nil && ip.Is6() && !ip.Is4In6() {
		return "v6"
	}
	return "v4"
}

// HostAttr is a name server described inline with its glue addresses.
type HostAttr struct {
	Name  string     `json:"name"`
	Addrs []HostAddr `json:"addrs,omitempty"`
}

// NameServers delegates the domain. A set uses either host objects or host
// attributes, never both.
type NameServers struct {
	HostObjs  []string   `json:"host_objs,omitempty"`
	HostAttrs []HostAttr `json:"host_attrs,omitempty"`
}

func writeNameServers(w *codec.Writer, ns *NameServers) {
	if ns == nil {
		return
	}
	if len(ns.HostObjs) > 0 && len(ns.HostAttrs) > 0 {
		w.FailDetail("ns", codec.ErrInvalid, "hostObj and hostAttr are mutually exclusive")
		return
	}
	nw := w.Child("ns")
	nw.Strings("hostObj", ns.HostObjs, 0)
	for _, ha := range ns.HostAttrs {
		aw := nw.Child("hostAttr")
		aw.String("hostName", ha.Name)
		for _, a := range ha.Addrs {
			if _, err := netip.ParseAddr(a.IP); err != nil {
				aw.FailDetail("hostAddr", codec.ErrInvalid, a.IP)
				return
			}
			if el := aw.String("hostAddr", a.IP); el != nil {
				el.CreateAttr("ip", a.Version())
			}
		}
	}
}

func readNameServers(r *codec.Reader) *NameServers {
	nr := r.OptSub("ns")
	if nr == nil {
		return nil
	}
	ns := &NameServers{HostObjs: nr.Strings("hostObj")}
	for _, ar := range nr.Subs("hostAttr") {
		ha := HostAttr{Name: ar.String("hostName")}
		for _, ip := range ar.Strings("hostAddr") {
			ha.Addrs = append(ha.Addrs, HostAddr{IP: ip})
		}
		ns.HostAttrs = append(ns.HostAttrs, ha)
	}
	return ns
}

// encodeNames encodes a <domain:name> list under a declared element.
func encodeNames(parent *etree.Element, local string, names []string) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare(local)
	w.Strings("name", names, 1)
	return w.Element(), w.Err()
}
