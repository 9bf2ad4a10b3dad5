package domain

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Renew extends a registration. CurExpDate must match the current expiry
// date so that retried renewals are not applied twice.
type Renew struct {
	Name       string
	CurExpDate time.Time
	Period     *shared.Period
}

func (rn *Renew) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("renew")
	w.String("name", rn.Name)
	w.Date("curExpDate", rn.CurExpDate)
	shared.WritePeriod(w, rn.Period)
	return w.Element(), w.Err()
}

func (rn *Renew) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "renew")
	rn.Name = r.String("name")
	rn.CurExpDate = r.Date("curExpDate")
	rn.Period = shared.ReadPeriod(r)
	return r.Err()
}

// RenewData answers a Renew.
type RenewData struct {
	Name   string
	ExDate time.Time
}

func (d *RenewData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("renData")
	w.String("name", d.Name)
	w.OptTime("exDate", d.ExDate)
	return w.Element(), w.Err()
}

func (d *RenewData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "renData")
	d.Name = r.String("name")
	d.ExDate = r.OptTime("exDate")
	return r.Err()
}
