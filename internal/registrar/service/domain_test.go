package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/epptest"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/extensions/secdns"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
	"epp-gateway/pkg/platform/audit"
)

func createDomain(t *testing.T, h *harness, name, pw string) *models.DomainCreated {
	t.Helper()
	out, err := h.domains.Create(h.ctx, models.DomainCreate{
		Name:     name,
		Period:   &shared.Period{Value: 1, Unit: shared.UnitYear},
		AuthInfo: pw,
		Fee:      &models.FeeAgreement{Currency: "USD", Amount: decimal.RequireFromString("10.00")},
	})
	require.NoError(t, err)
	return out
}

func TestDomainService_Lifecycle(t *testing.T) {
	h := newHarness(t)

	avail, err := h.domains.Check(h.ctx, models.DomainCheck{Names: []string{"Example.COM."}})
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "example.com", avail[0].Name)
	assert.True(t, avail[0].Available)

	created := createDomain(t, h, "example.com", "pw-1")
	assert.Equal(t, protocol.CodeOK, protocol.Code(created.Transaction.Code))
	assert.NotEmpty(t, created.Transaction.SvTRID)
	require.NotNil(t, created.Charge)
	assert.True(t, created.Charge.Total.Equal(decimal.RequireFromString("10")))

	avail, err = h.domains.Check(h.ctx, models.DomainCheck{Names: []string{"example.com"}})
	require.NoError(t, err)
	assert.False(t, avail[0].Available, "create must invalidate the cached answer")
	assert.False(t, avail[0].Cached)

	info, err := h.domains.Info(h.ctx, models.DomainInfo{Name: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "pw-1", info.AuthInfo)
	assert.True(t, created.ExDate.Equal(info.ExDate))

	renewed, err := h.domains.Renew(h.ctx, models.DomainRenew{Name: "example.com"})
	require.NoError(t, err)
	assert.True(t, info.ExDate.AddDate(1, 0, 0).Equal(renewed.ExDate))
	require.NotNil(t, renewed.Charge)

	_, err = h.domains.Update(h.ctx, models.DomainUpdate{
		Name: "example.com",
		Add:  &models.DomainChanges{Statuses: []shared.Status{{Value: "clientHold"}}},
	})
	require.NoError(t, err)
	info, err = h.domains.Info(h.ctx, models.DomainInfo{Name: "example.com"})
	require.NoError(t, err)
	require.Len(t, info.Statuses, 1)
	assert.Equal(t, "clientHold", info.Statuses[0].Value)

	deleted, err := h.domains.Delete(h.ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, deleted.Transaction.Pending)

	info, err = h.domains.Info(h.ctx, models.DomainInfo{Name: "example.com"})
	require.NoError(t, err)
	assert.True(t, rgp.Has(info.RGPStatuses, rgp.StatusRedemptionPeriod))

	restored, err := h.domains.Restore(h.ctx, models.DomainRestore{Name: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{rgp.StatusPendingRestore}, restored.Statuses)
}

func TestDomainService_CheckCache(t *testing.T) {
	h := newHarness(t)
	check := models.DomainCheck{Names: []string{"a.example", "b.example"}}

	first, err := h.domains.Check(h.ctx, check)
	require.NoError(t, err)
	sent := h.srv.Commands()

	second, err := h.domains.Check(h.ctx, check)
	require.NoError(t, err)
	assert.Equal(t, sent, h.srv.Commands(), "second check should be answered from the cache")
	require.Len(t, second, 2)
	for i := range second {
		assert.True(t, second[i].Cached)
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Available, second[i].Available)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.CheckCache.WithLabelValues(ObjectDomain, "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.CheckCache.WithLabelValues(ObjectDomain, "miss")))
}

func TestDomainService_CheckWithFees(t *testing.T) {
	h := newHarness(t)
	createDomain(t, h, "taken.example", "pw-1")

	avail, err := h.domains.Check(h.ctx, models.DomainCheck{
		Names: []string{"free.example", "taken.example"},
		Fee:   &models.FeeQuery{Currency: "USD", Commands: []string{"create", "renew"}},
	})
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.True(t, avail[0].Available)
	assert.False(t, avail[1].Available)
	require.Len(t, avail[0].Fees, 2)
	assert.Equal(t, "create", avail[0].Fees[0].Name)
	require.Len(t, avail[0].Fees[0].Fees, 1)
	assert.True(t, avail[0].Fees[0].Fees[0].Amount.Equal(decimal.RequireFromString("10")))
}

// dropCheckEntries answers domain checks with only the first <cd> entry.
func dropCheckEntries(next epptest.Handler) epptest.Handler {
	return func(ctx context.Context, cmd *protocol.Command) *protocol.Response {
		resp := next(ctx, cmd)
		if d, ok := protocol.Find[*domain.CheckData](resp.ResData); ok && len(d.Results) > 1 {
			d.Results = d.Results[:1]
		}
		return resp
	}
}

func TestDomainService_CheckRequiresEveryNameAnswered(t *testing.T) {
	h := newHarness(t, dropCheckEntries)
	names := []string{"first.example", "second.example"}

	t.Run("with fees", func(t *testing.T) {
		_, err := h.domains.Check(h.ctx, models.DomainCheck{
			Names: names,
			Fee:   &models.FeeQuery{Currency: "USD", Commands: []string{"create"}},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
		assert.Contains(t, err.Error(), "second.example")
	})

	t.Run("plain", func(t *testing.T) {
		_, err := h.domains.Check(h.ctx, models.DomainCheck{Names: names})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
	})
}

func TestDomainService_CheckWithFeesKeepsRequestOrder(t *testing.T) {
	h := newHarness(t)
	avail, err := h.domains.Check(h.ctx, models.DomainCheck{
		Names: []string{"B.example.", "a.example"},
		Fee:   &models.FeeQuery{Currency: "USD", Commands: []string{"create"}},
	})
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, "b.example", avail[0].Name)
	assert.Equal(t, "a.example", avail[1].Name)
}

func TestDomainService_Errors(t *testing.T) {
	h := newHarness(t)
	createDomain(t, h, "exists.example", "pw-1")

	tests := []struct {
		name string
		run  func() error
		code dErrors.Code
	}{
		{"info of unknown domain", func() error {
			_, err := h.domains.Info(h.ctx, models.DomainInfo{Name: "missing.example"})
			return err
		}, dErrors.CodeNotFound},
		{"duplicate create", func() error {
			_, err := h.domains.Create(h.ctx, models.DomainCreate{Name: "exists.example", AuthInfo: "pw"})
			return err
		}, dErrors.CodeConflict},
		{"fee below price", func() error {
			_, err := h.domains.Create(h.ctx, models.DomainCreate{
				Name: "cheap.example", AuthInfo: "pw",
				Fee: &models.FeeAgreement{Currency: "USD", Amount: decimal.RequireFromString("5.00")},
			})
			return err
		}, dErrors.CodeValidation},
		{"transfer with wrong auth info", func() error {
			_, err := h.domains.Transfer(h.ctx, models.DomainTransfer{Name: "exists.example", Op: protocol.TransferRequest, AuthInfo: "nope"})
			return err
		}, dErrors.CodeForbidden},
		{"query without pending transfer", func() error {
			_, err := h.domains.Transfer(h.ctx, models.DomainTransfer{Name: "exists.example", Op: protocol.TransferQuery})
			return err
		}, dErrors.CodeInvariantViolation},
		{"unknown transfer op", func() error {
			_, err := h.domains.Transfer(h.ctx, models.DomainTransfer{Name: "exists.example", Op: "steal"})
			return err
		}, dErrors.CodeValidation},
		{"empty update", func() error {
			_, err := h.domains.Update(h.ctx, models.DomainUpdate{Name: "exists.example"})
			return err
		}, dErrors.CodeValidation},
		{"create without auth info", func() error {
			_, err := h.domains.Create(h.ctx, models.DomainCreate{Name: "new.example"})
			return err
		}, dErrors.CodeValidation},
		{"restore of active domain", func() error {
			_, err := h.domains.Restore(h.ctx, models.DomainRestore{Name: "exists.example"})
			return err
		}, dErrors.CodeInvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDomainService_RecordsTransactions(t *testing.T) {
	h := newHarness(t)
	createDomain(t, h, "audit.example", "pw-1")
	_, err := h.domains.Info(h.ctx, models.DomainInfo{Name: "audit.example"})
	require.NoError(t, err)

	events, err := h.store.ListByObject(h.ctx, ObjectDomain, "audit.example", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	info, create := events[0], events[1]
	assert.Equal(t, "domain:info", info.Command)
	assert.Equal(t, audit.CategoryOperations, info.Category)

	assert.Equal(t, "domain:create", create.Command)
	assert.Equal(t, audit.CategoryCompliance, create.Category)
	assert.Equal(t, audit.OutcomeSuccess, create.Outcome)
	assert.Equal(t, int(protocol.CodeOK), create.ResultCode)
	assert.Equal(t, testOperator, create.Operator)
	assert.NotEmpty(t, create.ClTRID)
	assert.NotEmpty(t, create.SvTRID)
	assert.WithinDuration(t, time.Now(), create.Timestamp, time.Minute)
}

func TestDomainService_RecordsRejections(t *testing.T) {
	h := newHarness(t)
	_, err := h.domains.Delete(h.ctx, "ghost.example")
	require.Error(t, err)

	events, err := h.store.ListByObject(h.ctx, ObjectDomain, "ghost.example", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeFailure, events[0].Outcome)
	assert.Equal(t, int(protocol.CodeObjectDoesNotExist), events[0].ResultCode)
}

func TestDomainService_ExtensionOnlyUpdate(t *testing.T) {
	h := newHarness(t)
	createDomain(t, h, "signed.example", "pw-1")

	res, err := h.domains.Update(h.ctx, models.DomainUpdate{
		Name: "signed.example",
		DNSSEC: &models.DNSSECUpdate{Add: &models.DNSSEC{DSData: []secdns.DSData{{
			KeyTag: 12345, Algorithm: 13, DigestType: 2,
			Digest: "49FD46E6C4B45C55D4AC69CBD3CD34AC1AFE51DE",
		}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int(protocol.CodeOK), res.Transaction.Code)
}
