// Package secdns implements the RFC 5910 DNSSEC extension, version 1.1.
package secdns

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// NS is the secDNS extension namespace.
var NS = codec.Namespace{Prefix: "secDNS", URI: "urn:ietf:params:xml:ns:secDNS-1.1"}

// ProtocolDNSSEC is the only protocol value RFC 4034 allows in a DNSKEY.
const ProtocolDNSSEC = 3

// Factory instantiates every secDNS element.
func Factory() codec.Factory {
	return codec.NewFactory(NS, codec.KindExtension, codec.Constructors{
		"create":  func() codec.Component { return &Create{} },
		"update":  func() codec.Component { return &Update{} },
		"infData": func() codec.Component { return &InfoData{} },
	})
}

// KeyData is a DNSKEY record.
type KeyData struct {
	Flags     int    `json:"flags"`
	Protocol  int    `json:"protocol"`
	Algorithm int    `json:"alg"`
	PublicKey string `json:"pub_key"`
}

func (k *KeyData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("keyData")
	if k.Flags < 0 || k.Flags > 0xffff {
		w.FailDetail("flags", codec.ErrInvalid, strconv.Itoa(k.Flags))
	}
	if k.Protocol != ProtocolDNSSEC {
		w.FailDetail("protocol", codec.ErrInvalid, strconv.Itoa(k.Protocol))
	}
	if k.Algorithm < 0 || k.Algorithm > 0xff {
		w.FailDetail("alg", codec.ErrInvalid, strconv.Itoa(k.Algorithm))
	}
	if _, err := base64.StdEncoding.DecodeString(k.PublicKey); err != nil {
		w.FailDetail("pubKey", codec.ErrInvalid, "not base64")
	}
	w.Int("flags", k.Flags)
	w.Int("protocol", k.Protocol)
	w.Int("alg", k.Algorithm)
	w.String("pubKey", k.PublicKey)
	return w.Element(), w.Err()
}

func (k *KeyData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "keyData")
	k.Flags = r.Int("flags")
	k.Protocol = r.Int("protocol")
	k.Algorithm = r.Int("alg")
	k.PublicKey = r.String("pubKey")
	return r.Err()
}

// DSData is a delegation signer record, optionally with the key it digests.
type DSData struct {
	KeyTag     int      `json:"key_tag"`
	Algorithm  int      `json:"alg"`
	DigestType int      `json:"digest_type"`
	Digest     string   `json:"digest"`
	KeyData    *KeyData `json:"key_data,omitempty"`
}

func (d *DSData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("dsData")
	if d.KeyTag < 0 || d.KeyTag > 0xffff {
		w.FailDetail("keyTag", codec.ErrInvalid, strconv.Itoa(d.KeyTag))
	}
	if d.Algorithm < 0 || d.Algorithm > 0xff {
		w.FailDetail("alg", codec.ErrInvalid, strconv.Itoa(d.Algorithm))
	}
	if d.DigestType < 0 || d.DigestType > 0xff {
		w.FailDetail("digestType", codec.ErrInvalid, strconv.Itoa(d.DigestType))
	}
	if _, err := hex.DecodeString(d.Digest); err != nil {
		w.FailDetail("digest", codec.ErrInvalid, "not hex")
	}
	w.Int("keyTag", d.KeyTag)
	w.Int("alg", d.Algorithm)
	w.Int("digestType", d.DigestType)
	w.String("digest", d.Digest)
	w.OptComp(d.KeyData)
	return w.Element(), w.Err()
}

func (d *DSData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "dsData")
	d.KeyTag = r.Int("keyTag")
	d.Algorithm = r.Int("alg")
	d.DigestType = r.Int("digestType")
	d.Digest = r.String("digest")
	d.KeyData = codec.DecodeOpt[KeyData](r, "keyData")
	return r.Err()
}

// Set is a list of DS records or a list of key records. The server's policy
// decides which interface it accepts; a set never mixes the two.
type Set struct {
	DSData  []DSData  `json:"ds_data,omitempty"`
	KeyData []KeyData `json:"key_data,omitempty"`
}

func (s *Set) empty() bool { return len(s.DSData) == 0 && len(s.KeyData) == 0 }

func writeSet(w *codec.Writer, s Set, required bool) {
	switch {
	case len(s.DSData) > 0 && len(s.KeyData) > 0:
		w.FailDetail("dsData", codec.ErrInvalid, "dsData and keyData are mutually exclusive")
	case s.empty() && required:
		w.Fail("dsData", codec.ErrMissing)
	}
	codec.Comps(w, "dsData", s.DSData, 0)
	codec.Comps(w, "keyData", s.KeyData, 0)
}

func readSet(r *codec.Reader) Set {
	s := Set{
		DSData:  codec.DecodeAll[DSData](r, "dsData"),
		KeyData: codec.DecodeAll[KeyData](r, "keyData"),
	}
	if len(s.DSData) > 0 && len(s.KeyData) > 0 {
		r.FailDetail("dsData", codec.ErrInvalid, "dsData and keyData are mutually exclusive")
	}
	return s
}

// Create attaches DNSSEC data to a domain create.
type Create struct {
	MaxSigLife int
	Set
}

func (c *Create) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("create")
	writeMaxSigLife(w, c.MaxSigLife)
	writeSet(w, c.Set, true)
	return w.Element(), w.Err()
}

func (c *Create) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "create")
	c.MaxSigLife = readMaxSigLife(r)
	c.Set = readSet(r)
	if c.Set.empty() {
		r.Fail("dsData", codec.ErrMissing)
	}
	return r.Err()
}

func writeMaxSigLife(w *codec.Writer, v int) {
	if v == 0 {
		return
	}
	if v < 1 {
		w.FailDetail("maxSigLife", codec.ErrInvalid, strconv.Itoa(v))
		return
	}
	w.Int("maxSigLife", v)
}

func readMaxSigLife(r *codec.Reader) int {
	if v := r.OptInt("maxSigLife"); v != nil {
		return *v
	}
	return 0
}

// Update changes the DNSSEC data of a domain. RemoveAll drops every record
// and excludes Rem. Urgent asks the server to act before routine changes.
type Update struct {
	Urgent     bool
	RemoveAll  bool
	Rem        *Set
	Add        *Set
	MaxSigLife int
}

func (u *Update) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("update")
	if u.Urgent {
		w.Attr("urgent", "true")
	}
	if !u.RemoveAll && u.Rem == nil && u.Add == nil && u.MaxSigLife == 0 {
		w.FailDetail("update", codec.ErrMissing, "one of rem, add or chg is required")
	}
	if u.RemoveAll && u.Rem != nil {
		w.FailDetail("rem", codec.ErrInvalid, "all excludes a record list")
	}
	switch {
	case u.RemoveAll:
		w.Child("rem").Bool("all", true)
	case u.Rem != nil:
		writeSet(w.Child("rem"), *u.Rem, true)
	}
	if u.Add != nil {
		writeSet(w.Child("add"), *u.Add, true)
	}
	if u.MaxSigLife != 0 {
		writeMaxSigLife(w.Child("chg"), u.MaxSigLife)
	}
	return w.Element(), w.Err()
}

func (u *Update) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "update")
	u.Urgent = r.BoolAttr("urgent", false)
	if rr := r.OptSub("rem"); rr != nil {
		if all := rr.OptBool("all"); all != nil {
			u.RemoveAll = *all
		} else {
			s := readSet(rr)
			u.Rem = &s
		}
	}
	if ar := r.OptSub("add"); ar != nil {
		s := readSet(ar)
		u.Add = &s
	}
	if cr := r.OptSub("chg"); cr != nil {
		u.MaxSigLife = readMaxSigLife(cr)
	}
	return r.Err()
}

// InfoData reports the DNSSEC data of a domain.
type InfoData struct {
	MaxSigLife int
	Set
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	writeMaxSigLife(w, d.MaxSigLife)
	writeSet(w, d.Set, true)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.MaxSigLife = readMaxSigLife(r)
	d.Set = readSet(r)
	return r.Err()
}
