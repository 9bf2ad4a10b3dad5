package domain

import (
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Transfer statuses reported in TransferData.
const (
	TransferPending         = "pending"
	TransferClientApproved  = "clientApproved"
	TransferClientCancelled = "clientCancelled"
	TransferClientRejected  = "clientRejected"
	TransferServerApproved  = "serverApproved"
	TransferServerCancelled = "serverCancelled"
)

// Transfer manages a change of sponsoring client. The operation travels as
// the op attribute of the enclosing <transfer> command.
type Transfer struct {
	Name     string
	Period   *shared.Period
	AuthInfo *shared.AuthInfo
}

func (t *Transfer) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("transfer")
	w.String("name", t.Name)
	shared.WritePeriod(w, t.Period)
	shared.WriteAuthInfo(w, t.AuthInfo, false)
	return w.Element(), w.Err()
}

func (t *Transfer) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "transfer")
	t.Name = r.String("name")
	t.Period = shared.ReadPeriod(r)
	t.AuthInfo = shared.ReadAuthInfo(r)
	return r.Err()
}

// TransferData reports the state of a transfer.
type TransferData struct {
	Name     string
	TrStatus string
	ReID     string
	ReDate   time.Time
	AcID     string
	AcDate   time.Time
	ExDate   time.Time
}

func (d *TransferData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("trnData")
	w.String("name", d.Name)
	w.String("trStatus", d.TrStatus)
	w.String("reID", d.ReID)
	w.Time("reDate", d.ReDate)
	w.String("acID", d.AcID)
	w.Time("acDate", d.AcDate)
	w.OptTime("exDate", d.ExDate)
	return w.Element(), w.Err()
}

func (d *TransferData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "trnData")
	d.Name = r.String("name")
	d.TrStatus = r.String("trStatus")
	d.ReID = r.String("reID")
	d.ReDate = r.Time("reDate")
	d.AcID = r.String("acID")
	d.AcDate = r.Time("acDate")
	d.ExDate = r.OptTime("exDate")
	return r.Err()
}
