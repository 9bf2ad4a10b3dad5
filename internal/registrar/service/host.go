package service

import (
	"context"
	"time"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/objects/host"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	pstrings "epp-gateway/pkg/platform/strings"
)

// HostService manages nameserver host objects.
type HostService struct {
	exec  *Executor
	check *checker
}

// NewHostService returns a HostService. cache may be nil.
func NewHostService(exec *Executor, cache CheckCache, cacheTTL time.Duration) *HostService {
	return &HostService{
		exec: exec,
		check: &checker{
			exec:    exec,
			cache:   cache,
			ttl:     cacheTTL,
			objType: ObjectHost,
			command: func(names []string) codec.Component { return &host.Check{Names: names} },
			results: func(resp *protocol.Response) []shared.CheckResult {
				if d, ok := protocol.Find[*host.CheckData](resp.ResData); ok {
					return d.Results
				}
				return nil
			},
		},
	}
}

func (s *HostService) do(ctx context.Context, verb protocol.Verb, name string, obj codec.Component) (*protocol.Response, error) {
	cmd := &protocol.Command{Verb: verb, Object: obj}
	return s.exec.exec(ctx, call{objType: ObjectHost, action: string(verb), objectID: name, cmd: cmd})
}

func (s *HostService) Check(ctx context.Context, names []string) ([]models.Availability, error) {
	return s.check.check(ctx, pstrings.NormalizeHostNames(names))
}

func (s *HostService) Info(ctx context.Context, name string) (*models.Host, error) {
	name = pstrings.NormalizeHostName(name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, protocol.VerbInfo, name, &host.Info{Name: name})
	if err != nil {
		return nil, err
	}
	data, ok := protocol.Find[*host.InfoData](resp.ResData)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "info response carries no data")
	}
	return &models.Host{
		Name:        data.Name,
		ROID:        data.ROID,
		Statuses:    data.Statuses,
		Addrs:       data.Addrs,
		ClID:        data.ClID,
		CrID:        data.CrID,
		CrDate:      data.CrDate,
		UpID:        data.UpID,
		UpDate:      data.UpDate,
		TrDate:      data.TrDate,
		Transaction: transaction(resp),
	}, nil
}

// Create registers a host. Addresses are required only for hosts inside a
// domain the registry manages.
func (s *HostService) Create(ctx context.Context, in models.HostCreate) (*models.HostCreated, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, protocol.VerbCreate, name, &host.Create{Name: name, Addrs: in.Addrs})
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, name)
	out := &models.HostCreated{Name: name, Transaction: transaction(resp)}
	if data, ok := protocol.Find[*host.CreateData](resp.ResData); ok {
		out.Name, out.CrDate = data.Name, data.CrDate
	}
	return out, nil
}

// Update adds or removes addresses and statuses, and renames the host when
// NewName is set.
func (s *HostService) Update(ctx context.Context, in models.HostUpdate) (*models.Result, error) {
	name := pstrings.NormalizeHostName(in.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	obj := &host.Update{Name: name, NewName: pstrings.NormalizeHostName(in.NewName)}
	if len(in.AddAddrs) > 0 || len(in.AddStatuses) > 0 {
		obj.Add = &host.UpdateSet{Addrs: in.AddAddrs, Statuses: in.AddStatuses}
	}
	if len(in.RemAddrs) > 0 || len(in.RemStatuses) > 0 {
		obj.Rem = &host.UpdateSet{Addrs: in.RemAddrs, Statuses: in.RemStatuses}
	}
	if obj.Add == nil && obj.Rem == nil && obj.NewName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "update changes nothing")
	}
	resp, err := s.do(ctx, protocol.VerbUpdate, name, obj)
	if err != nil {
		return nil, err
	}
	if obj.NewName != "" {
		s.check.invalidate(ctx, name, obj.NewName)
		name = obj.NewName
	}
	return &models.Result{Name: name, Transaction: transaction(resp)}, nil
}

func (s *HostService) Delete(ctx context.Context, name string) (*models.Result, error) {
	name = pstrings.NormalizeHostName(name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, protocol.VerbDelete, name, &host.Delete{Name: name})
	if err != nil {
		return nil, err
	}
	s.check.invalidate(ctx, name)
	return &models.Result{Name: name, Transaction: transaction(resp)}, nil
}
