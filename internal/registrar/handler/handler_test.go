package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/objects/host"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/registrar/handler/mocks"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	"epp-gateway/pkg/platform/audit"
	authmw "epp-gateway/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks DomainService,ContactService,HostService,PollService,History
type RegistrarHandlerSuite struct {
	suite.Suite
}

func TestRegistrarHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrarHandlerSuite))
}

type testHandler struct {
	router   chi.Router
	domains  *mocks.MockDomainService
	contacts *mocks.MockContactService
	hosts    *mocks.MockHostService
	poll     *mocks.MockPollService
	history  *mocks.MockHistory
}

var allScopes = []string{jwttoken.ScopeRead, jwttoken.ScopeWrite, jwttoken.ScopePoll}

func newTestHandler(t *testing.T, scopes ...string) *testHandler {
	t.Helper()
	if len(scopes) == 0 {
		scopes = allScopes
	}
	ctrl := gomock.NewController(t)
	th := &testHandler{
		domains:  mocks.NewMockDomainService(ctrl),
		contacts: mocks.NewMockContactService(ctrl),
		hosts:    mocks.NewMockHostService(ctrl),
		poll:     mocks.NewMockPollService(ctrl),
		history:  mocks.NewMockHistory(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(th.domains, th.contacts, th.hosts, th.poll, th.history, logger)

	r := chi.NewRouter()
	r.Use(authmw.Anonymous("ops@registrar.example", scopes))
	h.Register(r)
	th.router = r
	return th
}

func (th *testHandler) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	th.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RegistrarHandlerSuite) TestCreateDomain() {
	s.Run("created", func() {
		th := newTestHandler(s.T())
		exDate := time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC)
		th.domains.EXPECT().Create(gomock.Any(), models.DomainCreate{
			Name:       "example.com",
			Period:     &shared.Period{Value: 2, Unit: shared.UnitYear},
			Registrant: "jd1234",
			AuthInfo:   "2fooBAR",
			Fee:        &models.FeeAgreement{Currency: "USD", Amount: decimal.RequireFromString("20.00")},
		}).Return(&models.DomainCreated{
			Name:        "example.com",
			ExDate:      exDate,
			Transaction: models.Transaction{Code: 1000, SvTRID: "sv-1"},
		}, nil)

		w := th.do(http.MethodPost, "/domains", `{
			"name": "Example.COM.",
			"period": {"value": 2, "unit": "y"},
			"registrant": "jd1234",
			"auth_info": "2fooBAR",
			"fee": {"currency": "USD", "amount": "20.00"}
		}`)

		s.Equal(http.StatusCreated, w.Code)
		body := decodeBody(s.T(), w)
		s.Equal("example.com", body["name"])
		s.Equal("sv-1", body["transaction"].(map[string]any)["svtrid"])
	})

	s.Run("pending answers accepted", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&models.DomainCreated{
			Name:        "example.com",
			Transaction: models.Transaction{Code: 1001, Pending: true},
		}, nil)

		w := th.do(http.MethodPost, "/domains", `{"name":"example.com","auth_info":"2fooBAR"}`)
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("missing auth info is rejected before the registry", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains", `{"name":"example.com"}`)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(string(dErrors.CodeValidation), decodeBody(s.T(), w)["error"])
	})

	s.Run("unknown fields are rejected", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains", `{"name":"example.com","auth_info":"x","color":"red"}`)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(string(dErrors.CodeBadRequest), decodeBody(s.T(), w)["error"])
	})

	s.Run("bad period", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains", `{"name":"example.com","auth_info":"x","period":{"value":100,"unit":"y"}}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("read scope cannot write", func() {
		th := newTestHandler(s.T(), jwttoken.ScopeRead)
		w := th.do(http.MethodPost, "/domains", `{"name":"example.com","auth_info":"2fooBAR"}`)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestServiceErrors() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDesc   bool
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "epp 2303 Object does not exist"), http.StatusNotFound, true},
		{"billing", dErrors.New(dErrors.CodeBillingFailure, "epp 2104 Billing failure"), http.StatusPaymentRequired, true},
		{"policy", dErrors.New(dErrors.CodeInvariantViolation, "epp 2305 Object association prohibits operation"), http.StatusUnprocessableEntity, true},
		{"registry down", dErrors.New(dErrors.CodeUnavailable, "registry unavailable"), http.StatusServiceUnavailable, true},
		{"internal", dErrors.Wrap(errors.New("decode info response: bad xml"), dErrors.CodeInternal, "unexpected registry response"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			th := newTestHandler(s.T())
			th.domains.EXPECT().Delete(gomock.Any(), "example.com").Return(nil, tt.err)

			w := th.do(http.MethodDelete, "/domains/example.com", "")

			s.Equal(tt.wantStatus, w.Code)
			body := decodeBody(s.T(), w)
			s.Equal(string(dErrors.CodeOf(tt.err)), body["error"])
			_, hasDesc := body["error_description"]
			s.Equal(tt.wantDesc, hasDesc)
		})
	}
}

func (s *RegistrarHandlerSuite) TestCheckDomain() {
	s.Run("single name with fees", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Check(gomock.Any(), models.DomainCheck{
			Names: []string{"example.com"},
			Fee:   &models.FeeQuery{Commands: []string{"create", "renew"}, Currency: "USD"},
		}).Return([]models.Availability{{Name: "example.com", Available: true, Class: "standard"}}, nil)

		w := th.do(http.MethodGet, "/domains/example.com/check?fee=create,renew&currency=USD", "")

		s.Equal(http.StatusOK, w.Code)
		body := decodeBody(s.T(), w)
		s.Equal(true, body["available"])
		s.Equal("standard", body["class"])
	})

	s.Run("single name without an answer", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Check(gomock.Any(), models.DomainCheck{Names: []string{"example.com"}}).
			Return([]models.Availability{}, nil)

		w := th.do(http.MethodGet, "/domains/example.com/check", "")

		s.Equal(http.StatusInternalServerError, w.Code)
	})

	s.Run("batch", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Check(gomock.Any(), models.DomainCheck{Names: []string{"a.com", "b.com"}}).
			Return([]models.Availability{{Name: "a.com", Available: true}, {Name: "b.com", Reason: "In use"}}, nil)

		w := th.do(http.MethodPost, "/domains/check", `{"names":["a.com"," b.com ","a.com"]}`)

		s.Equal(http.StatusOK, w.Code)
		results := decodeBody(s.T(), w)["results"].([]any)
		s.Len(results, 2)
	})

	s.Run("empty batch", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains/check", `{"names":[]}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("fees are domain only", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/hosts/check", `{"names":["ns1.example.com"],"fee":{"commands":["create"]}}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestDomainInfo() {
	th := newTestHandler(s.T())
	th.domains.EXPECT().Info(gomock.Any(), models.DomainInfo{Name: "example.com", Hosts: domain.HostsNone, AuthInfo: "2fooBAR"}).
		Return(&models.Domain{Name: "example.com", ROID: "EXAMPLE1-REP"}, nil)

	w := th.do(http.MethodGet, "/domains/example.com?hosts=none", "", HeaderAuthInfo, "2fooBAR")

	s.Equal(http.StatusOK, w.Code)
	s.Equal("EXAMPLE1-REP", decodeBody(s.T(), w)["roid"])

	w = th.do(http.MethodGet, "/domains/example.com?hosts=every", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RegistrarHandlerSuite) TestRenewAndTransfer() {
	s.Run("renew parses the current expiry", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Renew(gomock.Any(), models.DomainRenew{
			Name:       "example.com",
			CurExpDate: time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
			Period:     &shared.Period{Value: 1, Unit: shared.UnitYear},
		}).Return(&models.DomainRenewed{Name: "example.com"}, nil)

		w := th.do(http.MethodPost, "/domains/example.com/renew", `{"cur_exp_date":"2026-04-03","period":{"value":1,"unit":"y"}}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("renew rejects a bad date", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains/example.com/renew", `{"cur_exp_date":"03/04/2026"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("transfer defaults to request", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Transfer(gomock.Any(), models.DomainTransfer{
			Name:     "example.com",
			Op:       protocol.TransferRequest,
			AuthInfo: "2fooBAR",
		}).Return(&models.TransferStatus{
			Name:        "example.com",
			Status:      "pending",
			Transaction: models.Transaction{Code: 1001, Pending: true},
		}, nil)

		w := th.do(http.MethodPost, "/domains/example.com/transfer", `{"auth_info":"2fooBAR"}`)
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("transfer rejects unknown op", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains/example.com/transfer", `{"op":"steal"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestUpdateAndRestore() {
	s.Run("update", func() {
		th := newTestHandler(s.T())
		registrant := "sh8013"
		th.domains.EXPECT().Update(gomock.Any(), models.DomainUpdate{
			Name:       "example.com",
			Registrant: &registrant,
			Add:        &models.DomainChanges{Statuses: []shared.Status{{Value: "clientHold"}}},
		}).Return(&models.Result{Name: "example.com"}, nil)

		w := th.do(http.MethodPatch, "/domains/example.com", `{"registrant":"sh8013","add":{"statuses":[{"s":"clientHold"}]}}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("empty update", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPatch, "/domains/example.com", `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("restore request without body", func() {
		th := newTestHandler(s.T())
		th.domains.EXPECT().Restore(gomock.Any(), models.DomainRestore{Name: "example.com"}).
			Return(&models.Result{Name: "example.com", Statuses: []string{"pendingRestore"}}, nil)

		w := th.do(http.MethodPost, "/domains/example.com/restore", "")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("incomplete report", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/domains/example.com/restore", `{"report":{"pre_data":"x"}}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestContactsAndHosts() {
	s.Run("create contact", func() {
		th := newTestHandler(s.T())
		th.contacts.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, in models.ContactCreate) (*models.ContactCreated, error) {
				s.Equal("sh8013", in.ID)
				s.Equal("jdoe@example.com", in.Email)
				return &models.ContactCreated{ID: in.ID}, nil
			})

		w := th.do(http.MethodPost, "/contacts/sh8013", `{
			"postal_info": [{"type":"int","name":"John Doe","addr":{"street":["123 Example Dr."],"city":"Dulles","cc":"US"}}],
			"email": "jdoe@example.com",
			"auth_info": "2fooBAR"
		}`)
		s.Equal(http.StatusCreated, w.Code, w.Body.String())
	})

	s.Run("contact email must parse", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodPost, "/contacts/sh8013", `{"postal_info":[{"type":"int","name":"J"}],"email":"nope","auth_info":"x"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("contact info forwards auth header", func() {
		th := newTestHandler(s.T())
		th.contacts.EXPECT().Info(gomock.Any(), "sh8013", "2fooBAR").Return(&models.Contact{ID: "sh8013"}, nil)
		w := th.do(http.MethodGet, "/contacts/sh8013", "", HeaderAuthInfo, "2fooBAR")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("rename host", func() {
		th := newTestHandler(s.T())
		th.hosts.EXPECT().Update(gomock.Any(), models.HostUpdate{Name: "ns1.example.com", NewName: "ns2.example.com"}).
			Return(&models.Result{Name: "ns2.example.com"}, nil)

		w := th.do(http.MethodPatch, "/hosts/ns1.example.com", `{"new_name":"NS2.example.com."}`)
		s.Equal(http.StatusOK, w.Code)
		s.Equal("ns2.example.com", decodeBody(s.T(), w)["name"])
	})

	s.Run("create host", func() {
		th := newTestHandler(s.T())
		th.hosts.EXPECT().Create(gomock.Any(), models.HostCreate{Name: "ns1.example.com", Addrs: []host.Addr{{IP: "192.0.2.2", Version: "v4"}}}).
			Return(&models.HostCreated{Name: "ns1.example.com"}, nil)

		w := th.do(http.MethodPost, "/hosts/ns1.example.com", `{"addrs":[{"ip":"192.0.2.2","version":"v4"}]}`)
		s.Equal(http.StatusCreated, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestPoll() {
	s.Run("empty queue", func() {
		th := newTestHandler(s.T())
		th.poll.EXPECT().Request(gomock.Any()).Return(&models.PollMessage{Transaction: models.Transaction{Code: 1300}}, nil)
		w := th.do(http.MethodGet, "/poll", "")
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("message", func() {
		th := newTestHandler(s.T())
		th.poll.EXPECT().Request(gomock.Any()).Return(&models.PollMessage{ID: "12345", Count: 2, Kind: "domain:transfer"}, nil)
		w := th.do(http.MethodGet, "/poll", "")
		s.Equal(http.StatusOK, w.Code)
		s.Equal("12345", decodeBody(s.T(), w)["id"])
	})

	s.Run("ack", func() {
		th := newTestHandler(s.T())
		th.poll.EXPECT().Ack(gomock.Any(), "12345").Return(&models.PollMessage{Count: 1, ID: "12346"}, nil)
		w := th.do(http.MethodDelete, "/poll/12345", "")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("needs poll scope", func() {
		th := newTestHandler(s.T(), jwttoken.ScopeRead, jwttoken.ScopeWrite)
		w := th.do(http.MethodGet, "/poll", "")
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *RegistrarHandlerSuite) TestHistory() {
	s.Run("maps events", func() {
		th := newTestHandler(s.T())
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		th.history.EXPECT().ListByObject(gomock.Any(), "domain", "example.com", 10).Return([]audit.Event{{
			Command:    "domain:create",
			Outcome:    audit.OutcomeSuccess,
			ResultCode: 1000,
			Operator:   "ops@registrar.example",
			SvTRID:     "sv-1",
			Timestamp:  at,
			Duration:   1500 * time.Millisecond,
		}}, nil)

		w := th.do(http.MethodGet, "/domains/Example.com./history?limit=10", "")

		s.Require().Equal(http.StatusOK, w.Code)
		events := decodeBody(s.T(), w)["events"].([]any)
		s.Require().Len(events, 1)
		e := events[0].(map[string]any)
		s.Equal("domain:create", e["command"])
		s.Equal("success", e["outcome"])
		s.InDelta(1500, e["duration_ms"], 0)
	})

	s.Run("bad limit", func() {
		th := newTestHandler(s.T())
		w := th.do(http.MethodGet, "/contacts/sh8013/history?limit=0", "")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("store failure is internal", func() {
		th := newTestHandler(s.T())
		th.history.EXPECT().ListByObject(gomock.Any(), "host", "ns1.example.com", defaultHistoryLimit).Return(nil, errors.New("connection refused"))
		w := th.do(http.MethodGet, "/hosts/ns1.example.com/history", "")
		s.Equal(http.StatusInternalServerError, w.Code)
	})
}

func TestHistoryRoutesNeedStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(nil, nil, nil, nil, nil, logger)
	r := chi.NewRouter()
	r.Use(authmw.Anonymous("ops", allScopes))
	h.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/domains/example.com/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
