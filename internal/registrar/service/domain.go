package service

import (
	"context"
	"strings"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/extensions/coa"
	"epp-gateway/internal/epp/extensions/fee"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/extensions/secdns"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	pstrings "epp-gateway/pkg/platform/strings"
)

const actionRestore = "restore"

// DomainService manages domain registrations.
type DomainService struct {
	exec  *Executor
	check *checker
}

// NewDomainService returns a DomainService. cache may be nil.
func NewDomainService(exec *Executor, cache CheckCache, cacheTTL time.Duration) *DomainService {
	return &DomainService{
		exec: exec,
		check: &checker{
			exec:    exec,
			cache:   cache,
			ttl:     cacheTTL,
			objType: ObjectDomain,
			command: func(names []string) codec.Component { return &domain.Check{Names: names} },
			results: func(resp *protocol.Response) []shared.CheckResult {
				if d, ok := protocol.Find[*domain.CheckData](resp.ResData); ok {
					return d.Results
				}
				return nil
			},
		},
	}
}

func (s *DomainService) do(ctx context.Context, action, name string, cmd *protocol.Command) (*protocol.Response, error) {
	return s.exec.exec(ctx, call{objType: ObjectDomain, action: action, objectID: name, cmd: cmd})
}

// Check reports availability. Price queries always go to the registry;
// plain checks may be answered from the cache.
func (s *DomainService) Check(ctx context.Context, in models.DomainCheck) ([]models.Availability, error) {
	names := pstrings.NormalizeHostNames(in.Names)
	if in.Fee == nil {
		return s.check.check(ctx, names)
	}
	if len(names) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one name is required")
	}
	if len(names) > MaxCheckNames {
		return nil, dErrors.New(dErrors.CodeValidation, "too many names in one check")
	}
	if len(in.Fee.Commands) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "fee query needs at least one command")
	}

	fc := &fee.Check{Currency: in.Fee.Currency}
	for _, c := range in.Fee.Commands {
		fc.Commands = append(fc.Commands, fee.Command{Name: c, Phase: in.Fee.Phase, Period: in.Fee.Period})
	}
	cmd := &protocol.Command{
		Verb:       protocol.VerbCheck,
		Object:     &domain.Check{Names: names},
		Extensions: []codec.Component{fc},
	}
	resp, err := s.do(ctx, string(protocol.VerbCheck), strings.Join(names, ","), cmd)
	if err != nil {
		return nil, err
	}
	data, ok := protocol.Find[*domain.CheckData](resp.ResData)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "check response carries no data")
	}
	prices, _ := protocol.Find[*fee.CheckData](resp.Extensions)

	answered := make(map[string]shared.CheckResult, len(data.Results))
	for _, r := range data.Results {
		answered[pstrings.NormalizeHostName(r.Key)] = r
	}
	out := make([]models.Availability, 0, len(names))
	for _, n := range names {
		r, ok := answered[n]
		if !ok {
			return nil, dErrors.New(dErrors.CodeInternal, "registry did not answer for "+n)
		}
		a := models.Availability{Name: n, Available: r.Avail, Reason: r.Reason}
		if prices != nil {
			if fr, ok := prices.Result(r.Key); ok {
				a.Class = fr.Class
				a.Fees = fr.Commands
				if !fr.Avail && fr.Reason != "" && a.Reason == "" {
					a.Reason = fr.Reason
				}
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// Info returns a domain with any DNSSEC, grace period and attribute data the
// registry attaches.
func (s *DomainService) Info(ctx context.Context, in models.DomainInfo) (*models.Domain, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	obj := &domain.Info{Name: name, Hosts: in.Hosts}
	if in.AuthInfo != "" {
		obj.AuthInfo = &shared.AuthInfo{Password: in.AuthInfo}
	}
	resp, err := s.do(ctx, string(protocol.VerbInfo), name, &protocol.Command{Verb: protocol.VerbInfo, Object: obj})
	if err != nil {
		return nil, err
	}
	data, ok := protocol.Find[*domain.InfoData](resp.ResData)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "info response carries no data")
	}
	d := &models.Domain{
		Name:        data.Name,
		ROID:        data.ROID,
		Statuses:    data.Statuses,
		Registrant:  data.Registrant,
		Contacts:    data.Contacts,
		NameServers: data.NameServers,
		Hosts:       data.Hosts,
		ClID:        data.ClID,
		CrID:        data.CrID,
		CrDate:      data.CrDate,
		UpID:        data.UpID,
		UpDate:      data.UpDate,
		ExDate:      data.ExDate,
		TrDate:      data.TrDate,
		Transaction: transaction(resp),
	}
	if data.AuthInfo != nil {
		d.AuthInfo = data.AuthInfo.Password
	}
	if g, ok := protocol.Find[*rgp.InfoData](resp.Extensions); ok {
		d.RGPStatuses = g.Statuses
	}
	if sd, ok := protocol.Find[*secdns.InfoData](resp.Extensions); ok {
		d.DNSSEC = &models.DNSSEC{MaxSigLife: sd.MaxSigLife, DSData: sd.DSData, KeyData: sd.KeyData}
	}
	if a, ok := protocol.Find[*coa.InfoData](resp.Extensions); ok {
		d.Attributes = a.Map()
	}
	return d, nil
}

// Create registers a domain.
func (s *DomainService) Create(ctx context.Context, in models.DomainCreate) (*models.DomainCreated, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	if err := required("auth_info", in.AuthInfo); err != nil {
		return nil, err
	}
	obj := &domain.Create{
		Name:        name,
		Period:      in.Period,
		NameServers: in.NameServers,
		Registrant:  in.Registrant,
		Contacts:    in.Contacts,
		AuthInfo:    &shared.AuthInfo{Password: in.AuthInfo},
	}
	var exts []codec.Component
	if in.Fee != nil {
		exts = append(exts, &fee.Create{Agreement: agreement(in.Fee)})
	}
	if in.DNSSEC != nil {
		exts = append(exts, &secdns.Create{MaxSigLife: in.DNSSEC.MaxSigLife, Set: dnssecSet(in.DNSSEC)})
	}
	if len(in.Attributes) > 0 {
		exts = append(exts, &coa.Create{Attrs: in.Attributes})
	}

	resp, err := s.do(ctx, string(protocol.VerbCreate), name, &protocol.Command{Verb: protocol.VerbCreate, Object: obj, Extensions: exts})
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, name)

	out := &models.DomainCreated{Name: name, Transaction: transaction(resp)}
	if data, ok := protocol.Find[*domain.CreateData](resp.ResData); ok {
		out.Name, out.CrDate, out.ExDate = data.Name, data.CrDate, data.ExDate
	}
	if c, ok := protocol.Find[*fee.CreateData](resp.Extensions); ok {
		out.Charge = models.ChargeOf(&c.Charge)
	}
	return out, nil
}

// Renew extends a registration. When the current expiry date is not given
// it is read from the registry first.
func (s *DomainService) Renew(ctx context.Context, in models.DomainRenew) (*models.DomainRenewed, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	cur := in.CurExpDate
	if cur.IsZero() {
		d, err := s.Info(ctx, models.DomainInfo{Name: name, Hosts: domain.HostsNone})
		if err != nil {
			return nil, err
		}
		cur = d.ExDate
	}
	obj := &domain.Renew{Name: name, CurExpDate: cur, Period: in.Period}
	var exts []codec.Component
	if in.Fee != nil {
		exts = append(exts, &fee.Renew{Agreement: agreement(in.Fee)})
	}
	resp, err := s.do(ctx, string(protocol.VerbRenew), name, &protocol.Command{Verb: protocol.VerbRenew, Object: obj, Extensions: exts})
	if err != nil {
		return nil, err
	}
	out := &models.DomainRenewed{Name: name, Transaction: transaction(resp)}
	if data, ok := protocol.Find[*domain.RenewData](resp.ResData); ok {
		out.Name, out.ExDate = data.Name, data.ExDate
	}
	if c, ok := protocol.Find[*fee.RenewData](resp.Extensions); ok {
		out.Charge = models.ChargeOf(&c.Charge)
	}
	return out, nil
}

// Transfer runs a transfer operation: request, query, approve, reject or cancel.
func (s *DomainService) Transfer(ctx context.Context, in models.DomainTransfer) (*models.TransferStatus, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	if !protocol.ValidTransferOp(in.Op) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown transfer operation: "+in.Op)
	}
	obj := &domain.Transfer{Name: name}
	if in.Op == protocol.TransferRequest {
		obj.Period = in.Period
	}
	if in.AuthInfo != "" {
		obj.AuthInfo = &shared.AuthInfo{Password: in.AuthInfo}
	}
	var exts []codec.Component
	if in.Fee != nil && in.Op == protocol.TransferRequest {
		exts = append(exts, &fee.Transfer{Agreement: agreement(in.Fee)})
	}
	cmd := &protocol.Command{Verb: protocol.VerbTransfer, Op: in.Op, Object: obj, Extensions: exts}
	resp, err := s.do(ctx, string(protocol.VerbTransfer), name, cmd)
	if err != nil {
		return nil, err
	}
	if in.Op == protocol.TransferApprove {
		s.check.invalidate(ctx, name)
	}

	out := &models.TransferStatus{Name: name, Transaction: transaction(resp)}
	if data, ok := protocol.Find[*domain.TransferData](resp.ResData); ok {
		out.Status = data.TrStatus
		out.ReID, out.ReDate = data.ReID, data.ReDate
		out.AcID, out.AcDate = data.AcID, data.AcDate
		out.ExDate = data.ExDate
	}
	if c, ok := protocol.Find[*fee.TransferData](resp.Extensions); ok {
		out.Charge = models.ChargeOf(&c.Charge)
	}
	return out, nil
}

// Update changes nameservers, contacts, statuses, registrant, auth info,
// DNSSEC data or attributes in one command.
func (s *DomainService) Update(ctx context.Context, in models.DomainUpdate) (*models.Result, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	obj := &domain.Update{Name: name, Add: updateSet(in.Add), Rem: updateSet(in.Rem)}
	if in.Registrant != nil || in.AuthInfo != nil {
		obj.Chg = &domain.UpdateChange{Registrant: in.Registrant}
		if in.AuthInfo != nil {
			if *in.AuthInfo == "" {
				obj.Chg.NullAuthInfo = true
			} else {
				obj.Chg.AuthInfo = &shared.AuthInfo{Password: *in.AuthInfo}
			}
		}
	}

	var exts []codec.Component
	if u := in.DNSSEC; u != nil {
		su := &secdns.Update{Urgent: u.Urgent, RemoveAll: u.RemoveAll, MaxSigLife: u.MaxSigLife}
		if u.Rem != nil {
			set := dnssecSet(u.Rem)
			su.Rem = &set
		}
		if u.Add != nil {
			set := dnssecSet(u.Add)
			su.Add = &set
		}
		exts = append(exts, su)
	}
	if len(in.PutAttributes) > 0 || len(in.RemAttributes) > 0 {
		exts = append(exts, &coa.Update{Put: in.PutAttributes, Rem: in.RemAttributes})
	}

	if obj.Add == nil && obj.Rem == nil && obj.Chg == nil {
		if len(exts) == 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "update changes nothing")
		}
		// Extension-only updates carry an empty chg element.
		obj.Chg = &domain.UpdateChange{}
	}

	resp, err := s.do(ctx, string(protocol.VerbUpdate), name, &protocol.Command{Verb: protocol.VerbUpdate, Object: obj, Extensions: exts})
	if err != nil {
		return nil, err
	}
	return &models.Result{Name: name, Transaction: transaction(resp)}, nil
}

// Delete removes a domain. Most registries answer 1001 and move the domain
// into its redemption grace period.
func (s *DomainService) Delete(ctx context.Context, name string) (*models.Result, error) {
	name = pstrings.NormalizeHostName(name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, string(protocol.VerbDelete), name, &protocol.Command{Verb: protocol.VerbDelete, Object: &domain.Delete{Name: name}})
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, name)
	return &models.Result{Name: name, Transaction: transaction(resp)}, nil
}

// Restore asks for a deleted domain back. With a report it completes a
// restore the registry left pending.
func (s *DomainService) Restore(ctx context.Context, in models.DomainRestore) (*models.Result, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	ext := &rgp.Update{Op: rgp.OpRequest}
	if in.Report != nil {
		ext = &rgp.Update{Op: rgp.OpReport, Report: in.Report}
	}
	cmd := &protocol.Command{
		Verb:       protocol.VerbUpdate,
		Object:     &domain.Update{Name: name, Chg: &domain.UpdateChange{}},
		Extensions: []codec.Component{ext},
	}
	resp, err := s.do(ctx, actionRestore, name, cmd)
	if err != nil {
		return nil, err
	}
	out := &models.Result{Name: name, Transaction: transaction(resp)}
	if d, ok := protocol.Find[*rgp.UpdateData](resp.Extensions); ok {
		for _, st := range d.Statuses {
			out.Statuses = append(out.Statuses, st.Value)
		}
	}
	return out, nil
}

func agreement(f *models.FeeAgreement) fee.Agreement {
	return fee.Agreement{Currency: f.Currency, Fees: []fee.Fee{{Amount: f.Amount}}}
}

func dnssecSet(d *models.DNSSEC) secdns.Set {
	return secdns.Set{DSData: d.DSData, KeyData: d.KeyData}
}

func updateSet(c *models.DomainChanges) *domain.UpdateSet {
	if c == nil || (c.NameServers == nil && len(c.Contacts) == 0 && len(c.Statuses) == 0) {
		return nil
	}
	return &domain.UpdateSet{NameServers: c.NameServers, Contacts: c.Contacts, Statuses: c.Statuses}
}
