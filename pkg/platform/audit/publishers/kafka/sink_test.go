package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "epp-gateway/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		out[i] = kgo.ProduceResult{Record: r, Err: f.err}
	}
	return out
}

func TestSink_Write(t *testing.T) {
	p := &fakeProducer{}
	sink := NewSink(p, "epp.transactions")
	e := audit.Event{
		ID:         uuid.New(),
		Category:   audit.CategoryCompliance,
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Command:    "domain:create",
		ObjectType: "domain",
		ObjectID:   "example.com",
		ResultCode: 1000,
		Outcome:    audit.OutcomeSuccess,
		Duration:   150 * time.Millisecond,
	}

	require.NoError(t, sink.Write(context.Background(), []audit.Event{e}))
	require.Len(t, p.records, 1)
	r := p.records[0]
	assert.Equal(t, "epp.transactions", r.Topic)
	assert.Equal(t, "example.com", string(r.Key))

	var got Payload
	require.NoError(t, json.Unmarshal(r.Value, &got))
	assert.Equal(t, "domain:create", got.Command)
	assert.Equal(t, "compliance", got.Category)
	assert.Equal(t, "2024-03-01T12:00:00Z", got.Timestamp)
	assert.Equal(t, int64(150), got.DurationMS)
}

func TestSink_KeyFallsBackToID(t *testing.T) {
	id := uuid.New()
	r, err := Record("t", audit.Event{ID: id, Command: "poll:req"})
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(r.Key))
}

func TestSink_ProduceError(t *testing.T) {
	p := &fakeProducer{err: errors.New("leader not available")}
	err := NewSink(p, "t").Write(context.Background(), []audit.Event{{ID: uuid.New(), Command: "domain:check"}})
	assert.ErrorContains(t, err, "leader not available")
}
