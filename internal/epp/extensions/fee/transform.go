package fee

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Agreement is the fee a client accepts on a transform command. A server
// rejects the command with 2004 when the agreed amount is too low.
type Agreement struct {
	Currency string   `json:"currency,omitempty"`
	Fees     []Fee    `json:"fees"`
	Credits  []Credit `json:"credits,omitempty"`
}

func (a *Agreement) encode(parent *etree.Element, local string) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare(local)
	w.OptString("currency", a.Currency)
	codec.Comps(w, "fee", a.Fees, 1)
	codec.Comps(w, "credit", a.Credits, 0)
	return w.Element(), w.Err()
}

func (a *Agreement) decode(el *etree.Element, local string) error {
	r := codec.Expect(el, NS, local)
	a.Currency = r.OptString("currency")
	a.Fees = codec.DecodeAll[Fee](r, "fee")
	if len(a.Fees) == 0 {
		r.Fail("fee", codec.ErrMissing)
	}
	a.Credits = codec.DecodeAll[Credit](r, "credit")
	return r.Err()
}

// Create carries the fee agreed for a domain create.
type Create struct{ Agreement }

func (c *Create) Encode(p *etree.Element) (*etree.Element, error) { return c.encode(p, "create") }
func (c *Create) Decode(el *etree.Element) error                  { return c.decode(el, "create") }

// Renew carries the fee agreed for a renewal.
type Renew struct{ Agreement }

func (c *Renew) Encode(p *etree.Element) (*etree.Element, error) { return c.encode(p, "renew") }
func (c *Renew) Decode(el *etree.Element) error                  { return c.decode(el, "renew") }

// Transfer carries the fee agreed for a transfer request.
type Transfer struct{ Agreement }

func (c *Transfer) Encode(p *etree.Element) (*etree.Element, error) { return c.encode(p, "transfer") }
func (c *Transfer) Decode(el *etree.Element) error                  { return c.decode(el, "transfer") }

// Update carries the fee agreed for an update, such as a restore.
type Update struct{ Agreement }

func (c *Update) Encode(p *etree.Element) (*etree.Element, error) { return c.encode(p, "update") }
func (c *Update) Decode(el *etree.Element) error                  { return c.decode(el, "update") }

// Charge is what the server charged or refunded for a transform command.
type Charge struct {
	Currency    string           `json:"currency,omitempty"`
	Period      *shared.Period   `json:"period,omitempty"`
	Fees        []Fee            `json:"fees,omitempty"`
	Credits     []Credit         `json:"credits,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}

func (c *Charge) encode(parent *etree.Element, local string) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare(local)
	w.OptString("currency", c.Currency)
	shared.WritePeriod(w, c.Period)
	codec.Comps(w, "fee", c.Fees, 0)
	codec.Comps(w, "credit", c.Credits, 0)
	w.OptDecimal("balance", c.Balance)
	w.OptDecimal("creditLimit", c.CreditLimit)
	return w.Element(), w.Err()
}

func (c *Charge) decode(el *etree.Element, local string) error {
	r := codec.Expect(el, NS, local)
	c.Currency = r.OptString("currency")
	c.Period = shared.ReadPeriod(r)
	c.Fees = codec.DecodeAll[Fee](r, "fee")
	c.Credits = codec.DecodeAll[Credit](r, "credit")
	c.Balance = r.OptDecimal("balance")
	c.CreditLimit = r.OptDecimal("creditLimit")
	return r.Err()
}

// Total is the net amount charged.
func (c *Charge) Total() decimal.Decimal {
	return Total(c.Fees, c.Credits)
}

// CreateData reports the charge of a create.
type CreateData struct{ Charge }

func (d *CreateData) Encode(p *etree.Element) (*etree.Element, error) { return d.encode(p, "creData") }
func (d *CreateData) Decode(el *etree.Element) error                  { return d.decode(el, "creData") }

// RenewData reports the charge of a renewal.
type RenewData struct{ Charge }

func (d *RenewData) Encode(p *etree.Element) (*etree.Element, error) { return d.encode(p, "renData") }
func (d *RenewData) Decode(el *etree.Element) error                  { return d.decode(el, "renData") }

// TransferData reports the charge of a transfer.
type TransferData struct{ Charge }

func (d *TransferData) Encode(p *etree.Element) (*etree.Element, error) {
	return d.encode(p, "trnData")
}
func (d *TransferData) Decode(el *etree.Element) error { return d.decode(el, "trnData") }

// UpdateData reports the charge of an update.
type UpdateData struct{ Charge }

func (d *UpdateData) Encode(p *etree.Element) (*etree.Element, error) { return d.encode(p, "updData") }
func (d *UpdateData) Decode(el *etree.Element) error                  { return d.decode(el, "updData") }

// DeleteData reports credits refunded by a delete.
type DeleteData struct{ Charge }

func (d *DeleteData) Encode(p *etree.Element) (*etree.Element, error) { return d.encode(p, "delData") }
func (d *DeleteData) Decode(el *etree.Element) error                  { return d.decode(el, "delData") }
