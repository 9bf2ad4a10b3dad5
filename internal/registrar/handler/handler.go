package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"epp-gateway/internal/epp/objects/domain"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/registrar/models"
	"epp-gateway/internal/registrar/service"
	dErrors "epp-gateway/pkg/domain-errors"
	"epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/httputil"
	authmw "epp-gateway/pkg/platform/middleware/auth"
	request "epp-gateway/pkg/platform/middleware/request"
	pstrings "epp-gateway/pkg/platform/strings"
)

// HeaderAuthInfo carries an object's authorization password on info
// requests, keeping it out of URLs and access logs.
const HeaderAuthInfo = "X-Auth-Info"

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// DomainService runs domain commands against the registry.
type DomainService interface {
	Check(ctx context.Context, in models.DomainCheck) ([]models.Availability, error)
	Info(ctx context.Context, in models.DomainInfo) (*models.Domain, error)
	Create(ctx context.Context, in models.DomainCreate) (*models.DomainCreated, error)
	Renew(ctx context.Context, in models.DomainRenew) (*models.DomainRenewed, error)
	Transfer(ctx context.Context, in models.DomainTransfer) (*models.TransferStatus, error)
	Update(ctx context.Context, in models.DomainUpdate) (*models.Result, error)
	Delete(ctx context.Context, name string) (*models.Result, error)
	Restore(ctx context.Context, in models.DomainRestore) (*models.Result, error)
}

// ContactService runs contact commands against the registry.
type ContactService interface {
	Check(ctx context.Context, ids []string) ([]models.Availability, error)
	Info(ctx context.Context, id, authInfo string) (*models.Contact, error)
	Create(ctx context.Context, in models.ContactCreate) (*models.ContactCreated, error)
	Update(ctx context.Context, in models.ContactUpdate) (*models.Result, error)
	Delete(ctx context.Context, id string) (*models.Result, error)
}

// HostService runs host commands against the registry.
type HostService interface {
	Check(ctx context.Context, names []string) ([]models.Availability, error)
	Info(ctx context.Context, name string) (*models.Host, error)
	Create(ctx context.Context, in models.HostCreate) (*models.HostCreated, error)
	Update(ctx context.Context, in models.HostUpdate) (*models.Result, error)
	Delete(ctx context.Context, name string) (*models.Result, error)
}

// PollService drains the registrar's message queue.
type PollService interface {
	Request(ctx context.Context) (*models.PollMessage, error)
	Ack(ctx context.Context, id string) (*models.PollMessage, error)
}

// History lists recorded transactions for one object.
type History interface {
	ListByObject(ctx context.Context, objectType, objectID string, limit int) ([]audit.Event, error)
}

// Handler exposes registry operations over HTTP.
type Handler struct {
	domains  DomainService
	contacts ContactService
	hosts    HostService
	poll     PollService
	history  History
	logger   *slog.Logger
}

// New creates a registrar Handler. history may be nil, which disables the
// history routes.
func New(domains DomainService, contacts ContactService, hosts HostService, poll PollService, history History, logger *slog.Logger) *Handler {
	return &Handler{
		domains:  domains,
		contacts: contacts,
		hosts:    hosts,
		poll:     poll,
		history:  history,
		logger:   logger,
	}
}

// Register registers the registrar routes. Authentication runs upstream; each
// group here only checks the scope it needs.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireScope(jwttoken.ScopeRead, h.logger))
		r.Post("/domains/check", h.handleCheckDomains)
		r.Get("/domains/{name}/check", h.handleCheckDomain)
		r.Get("/domains/{name}", h.handleDomainInfo)
		r.Post("/contacts/check", h.handleCheckContacts)
		r.Get("/contacts/{id}", h.handleContactInfo)
		r.Post("/hosts/check", h.handleCheckHosts)
		r.Get("/hosts/{name}", h.handleHostInfo)
		if h.history != nil {
			r.Get("/domains/{name}/history", h.handleHistory(service.ObjectDomain, "name"))
			r.Get("/contacts/{id}/history", h.handleHistory(service.ObjectContact, "id"))
			r.Get("/hosts/{name}/history", h.handleHistory(service.ObjectHost, "name"))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireScope(jwttoken.ScopeWrite, h.logger))
		r.Post("/domains", h.handleCreateDomain)
		r.Post("/domains/{name}/renew", h.handleRenewDomain)
		r.Post("/domains/{name}/transfer", h.handleTransferDomain)
		r.Post("/domains/{name}/restore", h.handleRestoreDomain)
		r.Patch("/domains/{name}", h.handleUpdateDomain)
		r.Delete("/domains/{name}", h.handleDeleteDomain)
		r.Post("/contacts/{id}", h.handleCreateContact)
		r.Patch("/contacts/{id}", h.handleUpdateContact)
		r.Delete("/contacts/{id}", h.handleDeleteContact)
		r.Post("/hosts/{name}", h.handleCreateHost)
		r.Patch("/hosts/{name}", h.handleUpdateHost)
		r.Delete("/hosts/{name}", h.handleDeleteHost)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireScope(jwttoken.ScopePoll, h.logger))
		r.Get("/poll", h.handlePollRequest)
		r.Delete("/poll/{id}", h.handlePollAck)
	})
}

type checkResponse struct {
	Results []models.Availability `json:"results"`
}

type historyEntry struct {
	Command    string        `json:"command"`
	Outcome    audit.Outcome `json:"outcome"`
	ResultCode int           `json:"result_code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Operator   string        `json:"operator,omitempty"`
	ClTRID     string        `json:"cltrid,omitempty"`
	SvTRID     string        `json:"svtrid,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMS int64         `json:"duration_ms"`
}

// fail writes err, logging registry outages and internal faults at error level.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	args := []any{"request_id", request.GetRequestID(ctx), "error", err}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.WarnContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}

// written answers 202 when the registry queued the action for later.
func written(w http.ResponseWriter, tx models.Transaction, status int, v any) {
	if tx.Pending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, v)
}

func (h *Handler) handleCheckDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	results, err := h.domains.Check(ctx, models.DomainCheck{Names: req.Names, Fee: req.Fee})
	if err != nil {
		h.fail(ctx, w, "domain check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checkResponse{Results: results})
}

// handleCheckDomain checks a single name. ?fee=create,renew asks for pricing.
func (h *Handler) handleCheckDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in := models.DomainCheck{Names: []string{chi.URLParam(r, "name")}}
	q := r.URL.Query()
	if fees := q.Get("fee"); fees != "" {
		in.Fee = &models.FeeQuery{Commands: strings.Split(fees, ","), Currency: q.Get("currency")}
	}
	results, err := h.domains.Check(ctx, in)
	if err != nil {
		h.fail(ctx, w, "domain check failed", err)
		return
	}
	if len(results) == 0 {
		h.fail(ctx, w, "domain check failed", dErrors.New(dErrors.CodeInternal, "registry did not answer for "+in.Names[0]))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results[0])
}

func (h *Handler) handleDomainInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hosts := r.URL.Query().Get("hosts")
	switch hosts {
	case "", domain.HostsAll, domain.HostsDel, domain.HostsSub, domain.HostsNone:
	default:
		httputil.WriteError(w, invalid("hosts must be one of all, del, sub, none"))
		return
	}
	d, err := h.domains.Info(ctx, models.DomainInfo{
		Name:     chi.URLParam(r, "name"),
		Hosts:    hosts,
		AuthInfo: r.Header.Get(HeaderAuthInfo),
	})
	if err != nil {
		h.fail(ctx, w, "domain info failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateDomainRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.domains.Create(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "domain create failed", err)
		return
	}
	written(w, created.Transaction, http.StatusCreated, created)
}

func (h *Handler) handleRenewDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RenewDomainRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	renewed, err := h.domains.Renew(ctx, models.DomainRenew{
		Name:       chi.URLParam(r, "name"),
		CurExpDate: req.curExpDate,
		Period:     req.Period,
		Fee:        req.Fee,
	})
	if err != nil {
		h.fail(ctx, w, "domain renew failed", err)
		return
	}
	written(w, renewed.Transaction, http.StatusOK, renewed)
}

func (h *Handler) handleTransferDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TransferDomainRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	status, err := h.domains.Transfer(ctx, models.DomainTransfer{
		Name:     chi.URLParam(r, "name"),
		Op:       req.Op,
		Period:   req.Period,
		AuthInfo: req.AuthInfo,
		Fee:      req.Fee,
	})
	if err != nil {
		h.fail(ctx, w, "domain transfer failed", err)
		return
	}
	written(w, status.Transaction, http.StatusOK, status)
}

func (h *Handler) handleUpdateDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateDomainRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	res, err := h.domains.Update(ctx, req.toModel(chi.URLParam(r, "name")))
	if err != nil {
		h.fail(ctx, w, "domain update failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.domains.Delete(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.fail(ctx, w, "domain delete failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleRestoreDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RestoreDomainRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	res, err := h.domains.Restore(ctx, models.DomainRestore{Name: chi.URLParam(r, "name"), Report: req.Report})
	if err != nil {
		h.fail(ctx, w, "domain restore failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleCheckContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if req.Fee != nil {
		httputil.WriteError(w, invalid("fee queries apply to domains only"))
		return
	}
	results, err := h.contacts.Check(ctx, req.Names)
	if err != nil {
		h.fail(ctx, w, "contact check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checkResponse{Results: results})
}

func (h *Handler) handleContactInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.contacts.Info(ctx, chi.URLParam(r, "id"), r.Header.Get(HeaderAuthInfo))
	if err != nil {
		h.fail(ctx, w, "contact info failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateContactRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.contacts.Create(ctx, req.toModel(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(ctx, w, "contact create failed", err)
		return
	}
	written(w, created.Transaction, http.StatusCreated, created)
}

func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateContactRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	res, err := h.contacts.Update(ctx, req.toModel(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(ctx, w, "contact update failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.contacts.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "contact delete failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleCheckHosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if req.Fee != nil {
		httputil.WriteError(w, invalid("fee queries apply to domains only"))
		return
	}
	results, err := h.hosts.Check(ctx, req.Names)
	if err != nil {
		h.fail(ctx, w, "host check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checkResponse{Results: results})
}

func (h *Handler) handleHostInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	host, err := h.hosts.Info(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.fail(ctx, w, "host info failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, host)
}

func (h *Handler) handleCreateHost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateHostRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.hosts.Create(ctx, models.HostCreate{Name: chi.URLParam(r, "name"), Addrs: req.Addrs})
	if err != nil {
		h.fail(ctx, w, "host create failed", err)
		return
	}
	written(w, created.Transaction, http.StatusCreated, created)
}

func (h *Handler) handleUpdateHost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateHostRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	res, err := h.hosts.Update(ctx, req.toModel(chi.URLParam(r, "name")))
	if err != nil {
		h.fail(ctx, w, "host update failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

func (h *Handler) handleDeleteHost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.hosts.Delete(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.fail(ctx, w, "host delete failed", err)
		return
	}
	written(w, res.Transaction, http.StatusOK, res)
}

// handlePollRequest returns the oldest queued message, or 204 when the queue
// is empty.
func (h *Handler) handlePollRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msg, err := h.poll.Request(ctx)
	if err != nil {
		h.fail(ctx, w, "poll request failed", err)
		return
	}
	if msg.ID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msg)
}

func (h *Handler) handlePollAck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msg, err := h.poll.Ack(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "poll ack failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msg)
}

func (h *Handler) handleHistory(objectType, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxHistoryLimit {
				httputil.WriteError(w, invalid("limit must be between 1 and "+strconv.Itoa(maxHistoryLimit)))
				return
			}
			limit = n
		}
		id := chi.URLParam(r, param)
		if objectType == service.ObjectContact {
			id = strings.TrimSpace(id)
		} else {
			id = pstrings.NormalizeHostName(id)
		}
		events, err := h.history.ListByObject(ctx, objectType, id, limit)
		if err != nil {
			h.fail(ctx, w, "history lookup failed", dErrors.Wrap(err, dErrors.CodeInternal, "history unavailable"))
			return
		}
		out := make([]historyEntry, 0, len(events))
		for _, e := range events {
			out = append(out, historyEntry{
				Command:    e.Command,
				Outcome:    e.Outcome,
				ResultCode: e.ResultCode,
				Message:    e.Message,
				Operator:   e.Operator,
				ClTRID:     e.ClTRID,
				SvTRID:     e.SvTRID,
				RequestID:  e.RequestID,
				Timestamp:  e.Timestamp,
				DurationMS: e.Duration.Milliseconds(),
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
	}
}
