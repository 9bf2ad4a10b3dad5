package service

import (
	"context"
	"strings"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	pstrings "epp-gateway/pkg/platform/strings"
)

// ContactService manages registrant and role contacts.
type ContactService struct {
	exec  *Executor
	check *checker
}

// NewContactService returns a ContactService. cache may be nil.
func NewContactService(exec *Executor, cache CheckCache, cacheTTL time.Duration) *ContactService {
	return &ContactService{
		exec: exec,
		check: &checker{
			exec:    exec,
			cache:   cache,
			ttl:     cacheTTL,
			objType: ObjectContact,
			command: func(ids []string) codec.Component { return &contact.Check{IDs: ids} },
			results: func(resp *protocol.Response) []shared.CheckResult {
				if d, ok := protocol.Find[*contact.CheckData](resp.ResData); ok {
					return d.Results
				}
				return nil
			},
		},
	}
}

func (s *ContactService) do(ctx context.Context, verb protocol.Verb, id string, obj codec.Component) (*protocol.Response, error) {
	cmd := &protocol.Command{Verb: verb, Object: obj}
	return s.exec.exec(ctx, call{objType: ObjectContact, action: string(verb), objectID: id, cmd: cmd})
}

// Check reports which contact IDs are free.
func (s *ContactService) Check(ctx context.Context, ids []string) ([]models.Availability, error) {
	return s.check.check(ctx, pstrings.DedupeAndTrim(ids))
}

// Info returns a contact. authInfo is needed only for contacts sponsored by
// another registrar.
func (s *ContactService) Info(ctx context.Context, id, authInfo string) (*models.Contact, error) {
	id = strings.TrimSpace(id)
	if err := required("id", id); err != nil {
		return nil, err
	}
	obj := &contact.Info{ID: id}
	if authInfo != "" {
		obj.AuthInfo = &shared.AuthInfo{Password: authInfo}
	}
	resp, err := s.do(ctx, protocol.VerbInfo, id, obj)
	if err != nil {
		return nil, err
	}
	data, ok := protocol.Find[*contact.InfoData](resp.ResData)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "info response carries no data")
	}
	c := &models.Contact{
		ID:          data.ID,
		ROID:        data.ROID,
		Statuses:    data.Statuses,
		PostalInfos: data.PostalInfos,
		Voice:       data.Voice,
		Fax:         data.Fax,
		Email:       data.Email,
		ClID:        data.ClID,
		CrID:        data.CrID,
		CrDate:      data.CrDate,
		UpID:        data.UpID,
		UpDate:      data.UpDate,
		TrDate:      data.TrDate,
		Disclose:    data.Disclose,
		Transaction: transaction(resp),
	}
	if data.AuthInfo != nil {
		c.AuthInfo = data.AuthInfo.Password
	}
	return c, nil
}

// Create provisions a contact.
func (s *ContactService) Create(ctx context.Context, in models.ContactCreate) (*models.ContactCreated, error) {
	id := strings.TrimSpace(in.ID)
	if err := required("id", id); err != nil {
		return nil, err
	}
	if err := required("auth_info", in.AuthInfo); err != nil {
		return nil, err
	}
	obj := &contact.Create{
		ID:          id,
		PostalInfos: in.PostalInfos,
		Voice:       in.Voice,
		Fax:         in.Fax,
		Email:       in.Email,
		AuthInfo:    &shared.AuthInfo{Password: in.AuthInfo},
		Disclose:    in.Disclose,
	}
	resp, err := s.do(ctx, protocol.VerbCreate, id, obj)
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, id)
	out := &models.ContactCreated{ID: id, Transaction: transaction(resp)}
	if data, ok := protocol.Find[*contact.CreateData](resp.ResData); ok {
		out.ID, out.CrDate = data.ID, data.CrDate
	}
	return out, nil
}

// Update changes statuses and replaces the given attributes.
func (s *ContactService) Update(ctx context.Context, in models.ContactUpdate) (*models.Result, error) {
	id := strings.TrimSpace(in.ID)
	if err := required("id", id); err != nil {
		return nil, err
	}
	obj := &contact.Update{ID: id, AddStatuses: in.AddStatuses, RemStatuses: in.RemStatuses}
	chg := &contact.UpdateChange{
		PostalInfos: in.PostalInfos,
		Voice:       in.Voice,
		Fax:         in.Fax,
		Email:       in.Email,
		Disclose:    in.Disclose,
	}
	if in.AuthInfo != nil {
		if *in.AuthInfo == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "auth_info must not be empty")
		}
		chg.AuthInfo = &shared.AuthInfo{Password: *in.AuthInfo}
	}
	if len(chg.PostalInfos) > 0 || chg.Voice != nil || chg.Fax != nil || chg.Email != "" || chg.AuthInfo != nil || chg.Disclose != nil {
		obj.Chg = chg
	}
	if len(obj.AddStatuses) == 0 && len(obj.RemStatuses) == 0 && obj.Chg == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "update changes nothing")
	}
	resp, err := s.do(ctx, protocol.VerbUpdate, id, obj)
	if err != nil {
		return nil, err
	}
	return &models.Result{Name: id, Transaction: transaction(resp)}, nil
}

// Delete removes a contact no domain refers to.
func (s *ContactService) Delete(ctx context.Context, id string) (*models.Result, error) {
	id = strings.TrimSpace(id)
	if err := required("id", id); err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, protocol.VerbDelete, id, &contact.Delete{ID: id})
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, id)
	return &models.Result{Name: id, Transaction: transaction(resp)}, nil
}
