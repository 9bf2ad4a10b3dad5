package domain

import (
	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Check asks whether names are available for provisioning.
type Check struct {
	Names []string
}

func (c *Check) Encode(parent *etree.Element) (*etree.Element, error) {
	return encodeNames(parent, "check", c.Names)
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
