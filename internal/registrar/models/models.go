// Package models holds the registrar operations' inputs and results. Field
// types reuse the EPP object mappings where those already carry JSON names.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"epp-gateway/internal/epp/extensions/coa"
	"epp-gateway/internal/epp/extensions/fee"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/extensions/secdns"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/objects/host"
	"epp-gateway/internal/epp/shared"
)

// Transaction identifies the EPP exchange that produced a result.
type Transaction struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ClTRID  string `json:"cltrid"`
	SvTRID  string `json:"svtrid"`
	Pending bool   `json:"pending,omitempty"`
}

// Availability is one answer of a check.
type Availability struct {
	Name      string            `json:"name"`
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
	Class     string            `json:"class,omitempty"`
	Fees      []fee.CommandData `json:"fees,omitempty"`
	Cached    bool              `json:"cached,omitempty"`
}

// FeeQuery asks for prices alongside a domain check.
type FeeQuery struct {
	Currency string         `json:"currency,omitempty"`
	Commands []string       `json:"commands"`
	Period   *shared.Period `json:"period,omitempty"`
	Phase    string         `json:"phase,omitempty"`
}

// DomainCheck checks availability of names, optionally with prices.
type DomainCheck struct {
	Names []string
	Fee   *FeeQuery
}

// FeeAgreement acknowledges the price of a billable command.
type FeeAgreement struct {
	Currency string          `json:"currency,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// Charge is what the registry billed for a command.
type Charge struct {
	Currency string           `json:"currency,omitempty"`
	Total    decimal.Decimal  `json:"total"`
	Fees     []fee.Fee        `json:"fees,omitempty"`
	Credits  []fee.Credit     `json:"credits,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

// ChargeOf summarises a fee extension response.
func ChargeOf(c *fee.Charge) *Charge {
	if c == nil {
		return nil
	}
	return &Charge{
		Currency: c.Currency,
		Total:    c.Total(),
		Fees:     c.Fees,
		Credits:  c.Credits,
		Balance:  c.Balance,
	}
}

// DNSSEC is the secDNS data of a domain.
type DNSSEC struct {
	MaxSigLife int              `json:"max_sig_life,omitempty"`
	DSData     []secdns.DSData  `json:"ds_data,omitempty"`
	KeyData    []secdns.KeyData `json:"key_data,omitempty"`
}

// Domain is the registry's view of a domain.
type Domain struct {
	Name        string              `json:"name"`
	ROID        string              `json:"roid"`
	Statuses    []shared.Status     `json:"statuses,omitempty"`
	Registrant  string              `json:"registrant,omitempty"`
	Contacts    []domain.Contact    `json:"contacts,omitempty"`
	NameServers *domain.NameServers `json:"nameservers,omitempty"`
	Hosts       []string            `json:"hosts,omitempty"`
	ClID        string              `json:"clid"`
	CrID        string              `json:"crid,omitempty"`
	CrDate      time.Time           `json:"created,omitzero"`
	UpID        string              `json:"upid,omitempty"`
	UpDate      time.Time           `json:"updated,omitzero"`
	ExDate      time.Time           `json:"expires,omitzero"`
	TrDate      time.Time           `json:"transferred,omitzero"`
	AuthInfo    string              `json:"auth_info,omitempty"`
	RGPStatuses []rgp.Status        `json:"rgp_statuses,omitempty"`
	DNSSEC      *DNSSEC             `json:"dnssec,omitempty"`
	Attributes  map[string]string   `json:"attributes,omitempty"`
	Transaction Transaction         `json:"transaction"`
}

// DomainInfo requests domain details.
type DomainInfo struct {
	Name     string
	Hosts    string
	AuthInfo string
}

// DomainCreate registers a domain.
type DomainCreate struct {
	Name        string
	Period      *shared.Period
	NameServers *domain.NameServers
	Registrant  string
	Contacts    []domain.Contact
	AuthInfo    string
	DNSSEC      *DNSSEC
	Attributes  []coa.Attr
	Fee         *FeeAgreement
}

// DomainCreated is the result of a create.
type DomainCreated struct {
	Name        string      `json:"name"`
	CrDate      time.Time   `json:"created,omitzero"`
	ExDate      time.Time   `json:"expires,omitzero"`
	Charge      *Charge     `json:"charge,omitempty"`
	Transaction Transaction `json:"transaction"`
}

// DomainRenew extends a registration. A zero CurExpDate is looked up first.
type DomainRenew struct {
	Name       string
	CurExpDate time.Time
	Period     *shared.Period
	Fee        *FeeAgreement
}

// DomainRenewed is the result of a renew.
type DomainRenewed struct {
	Name        string      `json:"name"`
	ExDate      time.Time   `json:"expires,omitzero"`
	Charge      *Charge     `json:"charge,omitempty"`
	Transaction Transaction `json:"transaction"`
}

// DomainTransfer runs one transfer operation.
type DomainTransfer struct {
	Name     string
	Op       string
	Period   *shared.Period
	AuthInfo string
	Fee      *FeeAgreement
}

// TransferStatus is the state of a transfer.
type TransferStatus struct {
	Name        string      `json:"name"`
	Status      string      `json:"status"`
	ReID        string      `json:"requested_by"`
	ReDate      time.Time   `json:"requested_at,omitzero"`
	AcID        string      `json:"action_by"`
	AcDate      time.Time   `json:"action_at,omitzero"`
	ExDate      time.Time   `json:"expires,omitzero"`
	Charge      *Charge     `json:"charge,omitempty"`
	Transaction Transaction `json:"transaction"`
}

// DomainChanges are the additions or removals of an update.
type DomainChanges struct {
	NameServers *domain.NameServers
	Contacts    []domain.Contact
	Statuses    []shared.Status
}

// DNSSECUpdate changes DNSSEC data.
type DNSSECUpdate struct {
	RemoveAll  bool
	Add        *DNSSEC
	Rem        *DNSSEC
	MaxSigLife int
	Urgent     bool
}

// DomainUpdate changes a domain.
type DomainUpdate struct {
	Name          string
	Add           *DomainChanges
	Rem           *DomainChanges
	Registrant    *string
	AuthInfo      *string
	DNSSEC        *DNSSECUpdate
	PutAttributes []coa.Attr
	RemAttributes []string
}

// DomainRestore requests or reports a redemption grace period restore.
type DomainRestore struct {
	Name   string
	Report *rgp.Report
}

// Result is the outcome of a command that returns no object data.
type Result struct {
	Name        string      `json:"name,omitempty"`
	Statuses    []string    `json:"statuses,omitempty"`
	Transaction Transaction `json:"transaction"`
}

// Contact is the registry's view of a contact.
type Contact struct {
	ID          string               `json:"id"`
	ROID        string               `json:"roid"`
	Statuses    []shared.Status      `json:"statuses,omitempty"`
	PostalInfos []contact.PostalInfo `json:"postal_info"`
	Voice       *contact.Phone       `json:"voice,omitempty"`
	Fax         *contact.Phone       `json:"fax,omitempty"`
	Email       string               `json:"email"`
	ClID        string               `json:"clid"`
	CrID        string               `json:"crid,omitempty"`
	CrDate      time.Time            `json:"created,omitzero"`
	UpID        string               `json:"upid,omitempty"`
	UpDate      time.Time            `json:"updated,omitzero"`
	TrDate      time.Time            `json:"transferred,omitzero"`
	AuthInfo    string               `json:"auth_info,omitempty"`
	Disclose    *contact.Disclose    `json:"disclose,omitempty"`
	Transaction Transaction          `json:"transaction"`
}

// ContactCreate registers a contact.
type ContactCreate struct {
	ID          string
	PostalInfos []contact.PostalInfo
	Voice       *contact.Phone
	Fax         *contact.Phone
	Email       string
	AuthInfo    string
	Disclose    *contact.Disclose
}

// ContactCreated is the result of a contact create.
type ContactCreated struct {
	ID          string      `json:"id"`
	CrDate      time.Time   `json:"created,omitzero"`
	Transaction Transaction `json:"transaction"`
}

// ContactUpdate changes a contact.
type ContactUpdate struct {
	ID          string
	AddStatuses []shared.Status
	RemStatuses []shared.Status
	PostalInfos []contact.PostalInfo
	Voice       *contact.Phone
	Fax         *contact.Phone
	Email       string
	AuthInfo    *string
	Disclose    *contact.Disclose
}

// Host is the registry's view of a host.
type Host struct {
	Name        string          `json:"name"`
	ROID        string          `json:"roid"`
	Statuses    []shared.Status `json:"statuses,omitempty"`
	Addrs       []host.Addr     `json:"addrs,omitempty"`
	ClID        string          `json:"clid"`
	CrID        string          `json:"crid,omitempty"`
	CrDate      time.Time       `json:"created,omitzero"`
	UpID        string          `json:"upid,omitempty"`
	UpDate      time.Time       `json:"updated,omitzero"`
	TrDate      time.Time       `json:"transferred,omitzero"`
	Transaction Transaction     `json:"transaction"`
}

// HostCreate registers a host.
type HostCreate struct {
	Name  string
	Addrs []host.Addr
}

// HostCreated is the result of a host create.
type HostCreated struct {
	Name        string      `json:"name"`
	CrDate      time.Time   `json:"created,omitzero"`
	Transaction Transaction `json:"transaction"`
}

// HostUpdate changes a host.
type HostUpdate struct {
	Name        string
	AddAddrs    []host.Addr
	RemAddrs    []host.Addr
	AddStatuses []shared.Status
	RemStatuses []shared.Status
	NewName     string
}

// PollMessage is the head of the service message queue.
type PollMessage struct {
	ID          string      `json:"id,omitempty"`
	Count       int         `json:"count"`
	QueuedAt    time.Time   `json:"queued_at,omitzero"`
	Message     string      `json:"message,omitempty"`
	Kind        string      `json:"kind,omitempty"`
	Data        any         `json:"data,omitempty"`
	Transaction Transaction `json:"transaction"`
}
