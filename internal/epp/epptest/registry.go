package epptest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/extensions/fee"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/objects/host"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
)

// Registry is an in-memory object store behind a Server. It answers
// domain, contact, host and poll commands with the result codes a registry
// would, and quotes a flat yearly price through the fee extension.
type Registry struct {
	mu       sync.Mutex
	now      func() time.Time
	clientID string
	price    decimal.Decimal
	currency string
	seq      int
	domains  map[string]*domain.InfoData
	contacts map[string]*contact.InfoData
	hosts    map[string]*host.InfoData
	queue    []queued
}

type queued struct {
	id   string
	at   time.Time
	text string
	data codec.Component
}

// NewRegistry returns an empty registry sponsoring objects for ClientID.
func NewRegistry() *Registry {
	return &Registry{
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		clientID: ClientID,
		price:    decimal.RequireFromString("10.00"),
		currency: "USD",
		domains:  make(map[string]*domain.InfoData),
		contacts: make(map[string]*contact.InfoData),
		hosts:    make(map[string]*host.InfoData),
	}
}

// SetPrice changes the yearly price quoted and charged.
func (r *Registry) SetPrice(currency string, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currency = currency
	r.price = amount
}

// Enqueue adds a service message to the poll queue.
func (r *Registry) Enqueue(text string, data codec.Component) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enqueue(text, data)
}

func (r *Registry) enqueue(text string, data codec.Component) string {
	r.seq++
	id := strconv.Itoa(r.seq)
	r.queue = append(r.queue, queued{id: id, at: r.now(), text: text, data: data})
	return id
}

func (r *Registry) roid(suffix string) string {
	r.seq++
	return fmt.Sprintf("%d-%s", r.seq, suffix)
}

// Handle answers cmd. It is a Handler.
func (r *Registry) Handle(_ context.Context, cmd *protocol.Command) *protocol.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd.Verb == protocol.VerbPoll {
		return r.poll(cmd)
	}
	switch obj := cmd.Object.(type) {
	case *domain.Check:
		return r.domainCheck(obj, cmd.Extensions)
	case *domain.Info:
		return r.domainInfo(obj)
	case *domain.Create:
		return r.domainCreate(obj, cmd.Extensions)
	case *domain.Renew:
		return r.domainRenew(obj, cmd.Extensions)
	case *domain.Delete:
		return r.domainDelete(obj)
	case *domain.Update:
		return r.domainUpdate(obj, cmd.Extensions)
	case *domain.Transfer:
		return r.domainTransfer(obj, cmd.Op)
	case *contact.Check:
		return r.contactCheck(obj)
	case *contact.Info:
		return r.contactInfo(obj)
	case *contact.Create:
		return r.contactCreate(obj)
	case *contact.Update:
		return r.contactUpdate(obj)
	case *contact.Delete:
		return r.contactDelete(obj)
	case *host.Check:
		return r.hostCheck(obj)
	case *host.Info:
		return r.hostInfo(obj)
	case *host.Create:
		return r.hostCreate(obj)
	case *host.Update:
		return r.hostUpdate(obj)
	case *host.Delete:
		return r.hostDelete(obj)
	}
	return Result(protocol.CodeUnimplementedCommand, "")
}

func (r *Registry) years(p *shared.Period) int {
	if p == nil {
		return 1
	}
	if p.Unit == shared.UnitMonth {
		return max(1, p.Value/12)
	}
	return p.Value
}

func (r *Registry) quote(command string, years int) fee.CommandData {
	return fee.CommandData{
		Name:   command,
		Period: &shared.Period{Value: years, Unit: shared.UnitYear},
		Fees:   []fee.Fee{{Amount: r.price.Mul(decimal.NewFromInt(int64(years))), Description: command + " fee"}},
	}
}

// agreed reports whether the fee agreement in exts, if any, covers cost.
func (r *Registry) agreed(exts []codec.Component, cost decimal.Decimal) bool {
	for _, e := range exts {
		var a *fee.Agreement
		switch v := e.(type) {
		case *fee.Create:
			a = &v.Agreement
		case *fee.Renew:
			a = &v.Agreement
		case *fee.Transfer:
			a = &v.Agreement
		case *fee.Update:
			a = &v.Agreement
		default:
			continue
		}
		return fee.Total(a.Fees, a.Credits).GreaterThanOrEqual(cost)
	}
	return true
}

func hasStatus(statuses []shared.Status, value string) bool {
	return slices.ContainsFunc(statuses, func(s shared.Status) bool { return s.Value == value })
}

func (r *Registry) domainCheck(c *domain.Check, exts []codec.Component) *protocol.Response {
	data := &domain.CheckData{}
	for _, name := range c.Names {
		res := shared.CheckResult{Key: name, Avail: true}
		if _, ok := r.domains[name]; ok {
			res.Avail = false
			res.Reason = "In use"
		}
		data.Results = append(data.Results, res)
	}
	resp := OK(data)
	if fc, ok := protocol.Find[*fee.Check](exts); ok {
		fd := &fee.CheckData{Currency: r.currency}
		for _, res := range data.Results {
			cd := fee.CheckResult{ObjID: res.Key, Avail: true}
			for _, c := range fc.Commands {
				cd.Commands = append(cd.Commands, r.quote(c.Name, r.years(c.Period)))
			}
			fd.Results = append(fd.Results, cd)
		}
		resp.Extensions = append(resp.Extensions, fd)
	}
	return resp
}

func (r *Registry) domainInfo(i *domain.Info) *protocol.Response {
	d, ok := r.domains[i.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	out := *d
	resp := OK(&out)
	if hasStatus(d.Statuses, rgp.StatusPendingDelete) {
		resp.Extensions = append(resp.Extensions, &rgp.InfoData{Statuses: []rgp.Status{{Value: rgp.StatusRedemptionPeriod}}})
	}
	return resp
}

func (r *Registry) domainCreate(c *domain.Create, exts []codec.Component) *protocol.Response {
	if _, ok := r.domains[c.Name]; ok {
		return Result(protocol.CodeObjectExists, "")
	}
	if c.Registrant != "" {
		if _, ok := r.contacts[c.Registrant]; !ok {
			return Result(protocol.CodeAssociationProhibits, "registrant does not exist")
		}
	}
	years := r.years(c.Period)
	cost := r.price.Mul(decimal.NewFromInt(int64(years)))
	if !r.agreed(exts, cost) {
		return Result(protocol.CodeParamRange, "fee agreement below price")
	}
	now := r.now()
	d := &domain.InfoData{
		Name:        c.Name,
		ROID:        r.roid("EXAMPLE"),
		Statuses:    []shared.Status{{Value: "ok"}},
		Registrant:  c.Registrant,
		Contacts:    c.Contacts,
		NameServers: c.NameServers,
		ClID:        r.clientID,
		CrID:        r.clientID,
		CrDate:      now,
		ExDate:      now.AddDate(years, 0, 0),
		AuthInfo:    c.AuthInfo,
	}
	r.domains[c.Name] = d
	resp := OK(&domain.CreateData{Name: d.Name, CrDate: d.CrDate, ExDate: d.ExDate})
	resp.Extensions = append(resp.Extensions, &fee.CreateData{Charge: fee.Charge{
		Currency: r.currency,
		Fees:     []fee.Fee{{Amount: cost}},
	}})
	return resp
}

func (r *Registry) domainRenew(rn *domain.Renew, exts []codec.Component) *protocol.Response {
	d, ok := r.domains[rn.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	if codec.FormatDate(d.ExDate) != codec.FormatDate(rn.CurExpDate) {
		return Result(protocol.CodeParamRange, "curExpDate does not match")
	}
	years := r.years(rn.Period)
	cost := r.price.Mul(decimal.NewFromInt(int64(years)))
	if !r.agreed(exts, cost) {
		return Result(protocol.CodeParamRange, "fee agreement below price")
	}
	d.ExDate = d.ExDate.AddDate(years, 0, 0)
	d.UpDate = r.now()
	resp := OK(&domain.RenewData{Name: d.Name, ExDate: d.ExDate})
	resp.Extensions = append(resp.Extensions, &fee.RenewData{Charge: fee.Charge{
		Currency: r.currency,
		Fees:     []fee.Fee{{Amount: cost}},
	}})
	return resp
}

func (r *Registry) domainDelete(del *domain.Delete) *protocol.Response {
	d, ok := r.domains[del.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	if hasStatus(d.Statuses, "clientDeleteProhibited") || hasStatus(d.Statuses, rgp.StatusPendingDelete) {
		return Result(protocol.CodeStatusProhibits, "")
	}
	d.Statuses = []shared.Status{{Value: rgp.StatusPendingDelete}}
	return Result(protocol.CodeActionPending, "")
}

func (r *Registry) domainUpdate(u *domain.Update, exts []codec.Component) *protocol.Response {
	d, ok := r.domains[u.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	if restore, ok := protocol.Find[*rgp.Update](exts); ok {
		if !hasStatus(d.Statuses, rgp.StatusPendingDelete) {
			return Result(protocol.CodeStatusProhibits, "domain is not pending delete")
		}
		if restore.Op == rgp.OpRequest {
			d.Statuses = []shared.Status{{Value: "ok"}}
			d.UpDate = r.now()
			resp := OK()
			resp.Extensions = append(resp.Extensions, &rgp.UpdateData{Statuses: []rgp.Status{{Value: rgp.StatusPendingRestore}}})
			return resp
		}
		return OK()
	}
	if hasStatus(d.Statuses, "clientUpdateProhibited") && (u.Rem == nil || !hasStatus(u.Rem.Statuses, "clientUpdateProhibited")) {
		return Result(protocol.CodeStatusProhibits, "")
	}
	if u.Add != nil {
		for _, s := range u.Add.Statuses {
			if !hasStatus(d.Statuses, s.Value) {
				d.Statuses = append(d.Statuses, s)
			}
		}
		d.Contacts = append(d.Contacts, u.Add.Contacts...)
		if u.Add.NameServers != nil {
			if d.NameServers == nil {
				d.NameServers = &domain.NameServers{}
			}
			d.NameServers.HostObjs = append(d.NameServers.HostObjs, u.Add.NameServers.HostObjs...)
		}
	}
	if u.Rem != nil {
		d.Statuses = slices.DeleteFunc(d.Statuses, func(s shared.Status) bool { return hasStatus(u.Rem.Statuses, s.Value) })
		d.Contacts = slices.DeleteFunc(d.Contacts, func(c domain.Contact) bool { return slices.Contains(u.Rem.Contacts, c) })
		if u.Rem.NameServers != nil && d.NameServers != nil {
			d.NameServers.HostObjs = slices.DeleteFunc(d.NameServers.HostObjs, func(h string) bool {
				return slices.Contains(u.Rem.NameServers.HostObjs, h)
			})
		}
	}
	if len(d.Statuses) == 0 {
		d.Statuses = []shared.Status{{Value: "ok"}}
	} else if len(d.Statuses) > 1 {
		d.Statuses = slices.DeleteFunc(d.Statuses, func(s shared.Status) bool { return s.Value == "ok" })
	}
	if c := u.Chg; c != nil {
		if c.Registrant != nil {
			d.Registrant = *c.Registrant
		}
		if c.AuthInfo != nil {
			d.AuthInfo = c.AuthInfo
		}
		if c.NullAuthInfo {
			d.AuthInfo = nil
		}
	}
	d.UpID = r.clientID
	d.UpDate = r.now()
	return OK()
}

func (r *Registry) domainTransfer(t *domain.Transfer, op string) *protocol.Response {
	d, ok := r.domains[t.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	pending := hasStatus(d.Statuses, "pendingTransfer")
	data := &domain.TransferData{
		Name:   d.Name,
		ReID:   "registrar2",
		ReDate: r.now(),
		AcID:   d.ClID,
		AcDate: r.now().AddDate(0, 0, 5),
		ExDate: d.ExDate,
	}
	switch op {
	case protocol.TransferQuery:
		if !pending {
			return Result(protocol.CodeNotPendingTransfer, "")
		}
		data.TrStatus = domain.TransferPending
		return OK(data)
	case protocol.TransferRequest:
		if pending {
			return Result(protocol.CodePendingTransfer, "")
		}
		if t.AuthInfo == nil || d.AuthInfo == nil || t.AuthInfo.Password != d.AuthInfo.Password {
			return Result(protocol.CodeInvalidAuthInfo, "")
		}
		d.Statuses = []shared.Status{{Value: "pendingTransfer"}}
		data.TrStatus = domain.TransferPending
		r.enqueue("Transfer requested.", data)
		resp := OK(data)
		resp.Results[0].Code = protocol.CodeActionPending
		return resp
	case protocol.TransferApprove, protocol.TransferReject, protocol.TransferCancel:
		if !pending {
			return Result(protocol.CodeNotPendingTransfer, "")
		}
		d.Statuses = []shared.Status{{Value: "ok"}}
		data.TrStatus = map[string]string{
			protocol.TransferApprove: domain.TransferClientApproved,
			protocol.TransferReject:  domain.TransferClientRejected,
			protocol.TransferCancel:  domain.TransferClientCancelled,
		}[op]
		return OK(data)
	}
	return Result(protocol.CodeSyntaxError, "")
}

func (r *Registry) contactCheck(c *contact.Check) *protocol.Response {
	data := &contact.CheckData{}
	for _, id := range c.IDs {
		_, used := r.contacts[id]
		data.Results = append(data.Results, shared.CheckResult{Key: id, Avail: !used})
	}
	return OK(data)
}

func (r *Registry) contactInfo(i *contact.Info) *protocol.Response {
	c, ok := r.contacts[i.ID]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	out := *c
	return OK(&out)
}

func (r *Registry) contactCreate(c *contact.Create) *protocol.Response {
	if _, ok := r.contacts[c.ID]; ok {
		return Result(protocol.CodeObjectExists, "")
	}
	now := r.now()
	r.contacts[c.ID] = &contact.InfoData{
		ID:          c.ID,
		ROID:        r.roid("CONT"),
		Statuses:    []shared.Status{{Value: "ok"}},
		PostalInfos: c.PostalInfos,
		Voice:       c.Voice,
		Fax:         c.Fax,
		Email:       c.Email,
		ClID:        r.clientID,
		CrID:        r.clientID,
		CrDate:      now,
		AuthInfo:    c.AuthInfo,
		Disclose:    c.Disclose,
	}
	return OK(&contact.CreateData{ID: c.ID, CrDate: now})
}

func (r *Registry) contactUpdate(u *contact.Update) *protocol.Response {
	c, ok := r.contacts[u.ID]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	c.Statuses = append(c.Statuses, u.AddStatuses...)
	c.Statuses = slices.DeleteFunc(c.Statuses, func(s shared.Status) bool { return hasStatus(u.RemStatuses, s.Value) })
	if ch := u.Chg; ch != nil {
		if len(ch.PostalInfos) > 0 {
			c.PostalInfos = ch.PostalInfos
		}
		if ch.Voice != nil {
			c.Voice = ch.Voice
		}
		if ch.Fax != nil {
			c.Fax = ch.Fax
		}
		if ch.Email != "" {
			c.Email = ch.Email
		}
		if ch.AuthInfo != nil {
			c.AuthInfo = ch.AuthInfo
		}
		if ch.Disclose != nil {
			c.Disclose = ch.Disclose
		}
	}
	if len(c.Statuses) == 0 {
		c.Statuses = []shared.Status{{Value: "ok"}}
	}
	c.UpID = r.clientID
	c.UpDate = r.now()
	return OK()
}

func (r *Registry) contactDelete(del *contact.Delete) *protocol.Response {
	if _, ok := r.contacts[del.ID]; !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	for _, d := range r.domains {
		if d.Registrant == del.ID || slices.ContainsFunc(d.Contacts, func(c domain.Contact) bool { return c.ID == del.ID }) {
			return Result(protocol.CodeAssociationProhibits, "")
		}
	}
	delete(r.contacts, del.ID)
	return OK()
}

func (r *Registry) hostCheck(c *host.Check) *protocol.Response {
	data := &host.CheckData{}
	for _, name := range c.Names {
		_, used := r.hosts[name]
		data.Results = append(data.Results, shared.CheckResult{Key: name, Avail: !used})
	}
	return OK(data)
}

func (r *Registry) hostInfo(i *host.Info) *protocol.Response {
	h, ok := r.hosts[i.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	out := *h
	return OK(&out)
}

func (r *Registry) hostCreate(c *host.Create) *protocol.Response {
	if _, ok := r.hosts[c.Name]; ok {
		return Result(protocol.CodeObjectExists, "")
	}
	now := r.now()
	r.hosts[c.Name] = &host.InfoData{
		Name:     c.Name,
		ROID:     r.roid("HOST"),
		Statuses: []shared.Status{{Value: "ok"}},
		Addrs:    c.Addrs,
		ClID:     r.clientID,
		CrID:     r.clientID,
		CrDate:   now,
	}
	return OK(&host.CreateData{Name: c.Name, CrDate: now})
}

func (r *Registry) hostUpdate(u *host.Update) *protocol.Response {
	h, ok := r.hosts[u.Name]
	if !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	if u.Add != nil {
		h.Addrs = append(h.Addrs, u.Add.Addrs...)
		h.Statuses = append(h.Statuses, u.Add.Statuses...)
	}
	if u.Rem != nil {
		h.Addrs = slices.DeleteFunc(h.Addrs, func(a host.Addr) bool {
			return slices.ContainsFunc(u.Rem.Addrs, func(b host.Addr) bool { return a.IP == b.IP })
		})
		h.Statuses = slices.DeleteFunc(h.Statuses, func(s shared.Status) bool { return hasStatus(u.Rem.Statuses, s.Value) })
	}
	if len(h.Statuses) == 0 {
		h.Statuses = []shared.Status{{Value: "ok"}}
	}
	if u.NewName != "" {
		if _, taken := r.hosts[u.NewName]; taken {
			return Result(protocol.CodeObjectExists, "")
		}
		delete(r.hosts, u.Name)
		h.Name = u.NewName
		r.hosts[u.NewName] = h
	}
	h.UpID = r.clientID
	h.UpDate = r.now()
	return OK()
}

func (r *Registry) hostDelete(del *host.Delete) *protocol.Response {
	if _, ok := r.hosts[del.Name]; !ok {
		return Result(protocol.CodeObjectDoesNotExist, "")
	}
	for _, d := range r.domains {
		if d.NameServers != nil && slices.Contains(d.NameServers.HostObjs, del.Name) {
			return Result(protocol.CodeAssociationProhibits, "")
		}
	}
	delete(r.hosts, del.Name)
	return OK()
}

func (r *Registry) poll(cmd *protocol.Command) *protocol.Response {
	switch cmd.Op {
	case protocol.PollRequest:
		if len(r.queue) == 0 {
			return Result(protocol.CodeNoMessages, "")
		}
		m := r.queue[0]
		resp := Result(protocol.CodeAckToDequeue, "")
		resp.MsgQ = &protocol.MsgQ{Count: len(r.queue), ID: m.id, QDate: m.at, Msg: m.text}
		if m.data != nil {
			resp.ResData = []codec.Component{m.data}
		}
		return resp
	case protocol.PollAck:
		i := slices.IndexFunc(r.queue, func(q queued) bool { return q.id == cmd.MsgID })
		if i < 0 {
			return Result(protocol.CodeObjectDoesNotExist, "")
		}
		r.queue = slices.Delete(r.queue, i, i+1)
		resp := OK()
		if len(r.queue) > 0 {
			resp.MsgQ = &protocol.MsgQ{Count: len(r.queue), ID: r.queue[0].id}
		}
		return resp
	}
	return Result(protocol.CodeSyntaxError, "")
}
