package handler

import (
	"net/mail"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/extensions/coa"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/objects/host"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	"epp-gateway/internal/registrar/service"
	dErrors "epp-gateway/pkg/domain-errors"
	pstrings "epp-gateway/pkg/platform/strings"
)

func invalid(msg string) error {
	return dErrors.New(dErrors.CodeValidation, msg)
}

func validatePeriod(p *shared.Period) error {
	if p == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "period must be 1 to 99 years (y) or months (m)")
	}
	return nil
}

func validateFee(f *models.FeeAgreement) error {
	if f != nil && f.Amount.IsNegative() {
		return invalid("fee amount must not be negative")
	}
	return nil
}

// CheckRequest checks several names at once.
type CheckRequest struct {
	Names []string         `json:"names"`
	Fee   *models.FeeQuery `json:"fee,omitempty"`
}

func (r *CheckRequest) Validate() error {
	r.Names = pstrings.DedupeAndTrim(r.Names)
	if len(r.Names) == 0 {
		return invalid("names must not be empty")
	}
	if len(r.Names) > service.MaxCheckNames {
		return invalid("too many names in one check")
	}
	if r.Fee != nil {
		if len(r.Fee.Commands) == 0 {
			return invalid("fee.commands must not be empty")
		}
		if err := validatePeriod(r.Fee.Period); err != nil {
			return err
		}
	}
	return nil
}

type CreateDomainRequest struct {
	Name        string               `json:"name"`
	Period      *shared.Period       `json:"period,omitempty"`
	NameServers *domain.NameServers  `json:"nameservers,omitempty"`
	Registrant  string               `json:"registrant,omitempty"`
	Contacts    []domain.Contact     `json:"contacts,omitempty"`
	AuthInfo    string               `json:"auth_info"`
	DNSSEC      *models.DNSSEC       `json:"dnssec,omitempty"`
	Attributes  []coa.Attr           `json:"attributes,omitempty"`
	Fee         *models.FeeAgreement `json:"fee,omitempty"`
}

func (r *CreateDomainRequest) Validate() error {
	r.Name = pstrings.NormalizeHostName(r.Name)
	if r.Name == "" {
		return invalid("name is required")
	}
	if r.AuthInfo == "" {
		return invalid("auth_info is required")
	}
	if r.NameServers != nil && len(r.NameServers.HostObjs) > 0 && len(r.NameServers.HostAttrs) > 0 {
		return invalid("nameservers take host_objs or host_attrs, not both")
	}
	if err := validatePeriod(r.Period); err != nil {
		return err
	}
	return validateFee(r.Fee)
}

func (r *CreateDomainRequest) toModel() models.DomainCreate {
	return models.DomainCreate{
		Name:        r.Name,
		Period:      r.Period,
		NameServers: r.NameServers,
		Registrant:  r.Registrant,
		Contacts:    r.Contacts,
		AuthInfo:    r.AuthInfo,
		DNSSEC:      r.DNSSEC,
		Attributes:  r.Attributes,
		Fee:         r.Fee,
	}
}

// RenewDomainRequest renews a domain. CurExpDate is a YYYY-MM-DD date and
// is looked up when omitted.
type RenewDomainRequest struct {
	CurExpDate string               `json:"cur_exp_date,omitempty"`
	Period     *shared.Period       `json:"period,omitempty"`
	Fee        *models.FeeAgreement `json:"fee,omitempty"`

	curExpDate time.Time
}

func (r *RenewDomainRequest) Validate() error {
	if r.CurExpDate != "" {
		t, err := codec.ParseDate(r.CurExpDate)
		if err != nil {
			return invalid("cur_exp_date must be YYYY-MM-DD")
		}
		r.curExpDate = t
	}
	if err := validatePeriod(r.Period); err != nil {
		return err
	}
	return validateFee(r.Fee)
}

type TransferDomainRequest struct {
	Op       string               `json:"op"`
	Period   *shared.Period       `json:"period,omitempty"`
	AuthInfo string               `json:"auth_info,omitempty"`
	Fee      *models.FeeAgreement `json:"fee,omitempty"`
}

func (r *TransferDomainRequest) Validate() error {
	if r.Op == "" {
		r.Op = protocol.TransferRequest
	}
	if !protocol.ValidTransferOp(r.Op) {
		return invalid("op must be one of request, query, approve, reject, cancel")
	}
	if r.Op == protocol.TransferRequest && r.AuthInfo == "" {
		return invalid("auth_info is required to request a transfer")
	}
	if err := validatePeriod(r.Period); err != nil {
		return err
	}
	return validateFee(r.Fee)
}

type DomainChangesRequest struct {
	NameServers *domain.NameServers `json:"nameservers,omitempty"`
	Contacts    []domain.Contact    `json:"contacts,omitempty"`
	Statuses    []shared.Status     `json:"statuses,omitempty"`
}

func (c *DomainChangesRequest) toModel() *models.DomainChanges {
	if c == nil {
		return nil
	}
	return &models.DomainChanges{NameServers: c.NameServers, Contacts: c.Contacts, Statuses: c.Statuses}
}

type DNSSECUpdateRequest struct {
	RemoveAll  bool           `json:"remove_all,omitempty"`
	Add        *models.DNSSEC `json:"add,omitempty"`
	Rem        *models.DNSSEC `json:"rem,omitempty"`
	MaxSigLife int            `json:"max_sig_life,omitempty"`
	Urgent     bool           `json:"urgent,omitempty"`
}

type UpdateDomainRequest struct {
	Add           *DomainChangesRequest `json:"add,omitempty"`
	Rem           *DomainChangesRequest `json:"rem,omitempty"`
	Registrant    *string               `json:"registrant,omitempty"`
	AuthInfo      *string               `json:"auth_info,omitempty"`
	DNSSEC        *DNSSECUpdateRequest  `json:"dnssec,omitempty"`
	PutAttributes []coa.Attr            `json:"put_attributes,omitempty"`
	RemAttributes []string              `json:"rem_attributes,omitempty"`
}

func (r *UpdateDomainRequest) Validate() error {
	if r.Add == nil && r.Rem == nil && r.Registrant == nil && r.AuthInfo == nil &&
		r.DNSSEC == nil && len(r.PutAttributes) == 0 && len(r.RemAttributes) == 0 {
		return invalid("update changes nothing")
	}
	if d := r.DNSSEC; d != nil && d.RemoveAll && d.Rem != nil {
		return invalid("dnssec.remove_all excludes dnssec.rem")
	}
	return nil
}

func (r *UpdateDomainRequest) toModel(name string) models.DomainUpdate {
	u := models.DomainUpdate{
		Name:          name,
		Add:           r.Add.toModel(),
		Rem:           r.Rem.toModel(),
		Registrant:    r.Registrant,
		AuthInfo:      r.AuthInfo,
		PutAttributes: r.PutAttributes,
		RemAttributes: r.RemAttributes,
	}
	if d := r.DNSSEC; d != nil {
		u.DNSSEC = &models.DNSSECUpdate{RemoveAll: d.RemoveAll, Add: d.Add, Rem: d.Rem, MaxSigLife: d.MaxSigLife, Urgent: d.Urgent}
	}
	return u
}

// RestoreDomainRequest requests a restore, or reports on one when Report is set.
type RestoreDomainRequest struct {
	Report *rgp.Report `json:"report,omitempty"`
}

func (r *RestoreDomainRequest) Validate() error {
	rp := r.Report
	if rp == nil {
		return nil
	}
	if rp.PreData == "" || rp.PostData == "" || rp.ResReason == "" {
		return invalid("report needs pre_data, post_data and res_reason")
	}
	if rp.DelTime.IsZero() || rp.ResTime.IsZero() {
		return invalid("report needs del_time and res_time")
	}
	if len(rp.Statements) == 0 {
		return invalid("report needs at least one statement")
	}
	return nil
}

type CreateContactRequest struct {
	PostalInfos []contact.PostalInfo `json:"postal_info"`
	Voice       *contact.Phone       `json:"voice,omitempty"`
	Fax         *contact.Phone       `json:"fax,omitempty"`
	Email       string               `json:"email"`
	AuthInfo    string               `json:"auth_info"`
	Disclose    *contact.Disclose    `json:"disclose,omitempty"`
}

func (r *CreateContactRequest) Validate() error {
	if len(r.PostalInfos) == 0 || len(r.PostalInfos) > 2 {
		return invalid("postal_info takes one or two entries")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("email is not a valid address")
	}
	if r.AuthInfo == "" {
		return invalid("auth_info is required")
	}
	return nil
}

func (r *CreateContactRequest) toModel(id string) models.ContactCreate {
	return models.ContactCreate{
		ID:          id,
		PostalInfos: r.PostalInfos,
		Voice:       r.Voice,
		Fax:         r.Fax,
		Email:       r.Email,
		AuthInfo:    r.AuthInfo,
		Disclose:    r.Disclose,
	}
}

type UpdateContactRequest struct {
	AddStatuses []shared.Status      `json:"add_statuses,omitempty"`
	RemStatuses []shared.Status      `json:"rem_statuses,omitempty"`
	PostalInfos []contact.PostalInfo `json:"postal_info,omitempty"`
	Voice       *contact.Phone       `json:"voice,omitempty"`
	Fax         *contact.Phone       `json:"fax,omitempty"`
	Email       string               `json:"email,omitempty"`
	AuthInfo    *string              `json:"auth_info,omitempty"`
	Disclose    *contact.Disclose    `json:"disclose,omitempty"`
}

func (r *UpdateContactRequest) Validate() error {
	if len(r.AddStatuses) == 0 && len(r.RemStatuses) == 0 && len(r.PostalInfos) == 0 &&
		r.Voice == nil && r.Fax == nil && r.Email == "" && r.AuthInfo == nil && r.Disclose == nil {
		return invalid("update changes nothing")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return invalid("email is not a valid address")
		}
	}
	return nil
}

func (r *UpdateContactRequest) toModel(id string) models.ContactUpdate {
	return models.ContactUpdate{
		ID:          id,
		AddStatuses: r.AddStatuses,
		RemStatuses: r.RemStatuses,
		PostalInfos: r.PostalInfos,
		Voice:       r.Voice,
		Fax:         r.Fax,
		Email:       r.Email,
		AuthInfo:    r.AuthInfo,
		Disclose:    r.Disclose,
	}
}

type CreateHostRequest struct {
	Addrs []host.Addr `json:"addrs,omitempty"`
}

func (r *CreateHostRequest) Validate() error { return nil }

type UpdateHostRequest struct {
	AddAddrs    []host.Addr     `json:"add_addrs,omitempty"`
	RemAddrs    []host.Addr     `json:"rem_addrs,omitempty"`
	AddStatuses []shared.Status `json:"add_statuses,omitempty"`
	RemStatuses []shared.Status `json:"rem_statuses,omitempty"`
	NewName     string          `json:"new_name,omitempty"`
}

func (r *UpdateHostRequest) Validate() error {
	r.NewName = pstrings.NormalizeHostName(r.NewName)
	if len(r.AddAddrs) == 0 && len(r.RemAddrs) == 0 && len(r.AddStatuses) == 0 && len(r.RemStatuses) == 0 && r.NewName == "" {
		return invalid("update changes nothing")
	}
	return nil
}

func (r *UpdateHostRequest) toModel(name string) models.HostUpdate {
	return models.HostUpdate{
		Name:        name,
		AddAddrs:    r.AddAddrs,
		RemAddrs:    r.RemAddrs,
		AddStatuses: r.AddStatuses,
		RemStatuses: r.RemStatuses,
		NewName:     r.NewName,
	}
}
