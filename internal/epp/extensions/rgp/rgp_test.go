package rgp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/codec"
)

func encode(t *testing.T, c codec.Encoder) (string, error) {
	t.Helper()
	doc := codec.NewDocument()
	_, err := c.Encode(doc.CreateElement("root"))
	s, werr := doc.WriteToString()
	require.NoError(t, werr)
	return s, err
}

func sampleReport() *Report {
	return &Report{
		PreData:    "Pre-delete registration data goes here.",
		PostData:   "Post-restore registration data goes here.",
		DelTime:    time.Date(2003, 7, 10, 22, 0, 0, 0, time.UTC),
		ResTime:    time.Date(2003, 7, 20, 22, 0, 0, 0, time.UTC),
		ResReason:  "Registrant error.",
		Statements: []string{"This registrar has not restored the Registered Name in order to assume the rights to use or sell the Registered Name for itself or for any third party.", "The information in this report is true to best of this registrar's knowledge."},
		Other:      "Supporting information goes here.",
	}
}

func TestRoundTrip(t *testing.T) {
	reg, err := codec.NewRegistry(Factory())
	require.NoError(t, err)

	tests := []struct {
		name string
		in   codec.Component
	}{
		{"restore request", &Update{Op: OpRequest}},
		{"restore report", &Update{Op: OpReport, Report: sampleReport()}},
		{"info data", &InfoData{Statuses: []Status{{Value: StatusRedemptionPeriod}}}},
		{"update data", &UpdateData{Statuses: []Status{{Value: StatusPendingRestore, Lang: "en", Text: "awaiting report"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := encode(t, tt.in)
			require.NoError(t, err)
			doc, err := codec.Parse([]byte(s))
			require.NoError(t, err)
			out, err := reg.Decode(doc.Root().ChildElements()[0])
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestUpdate_RequestEncoding(t *testing.T) {
	s, err := encode(t, &Update{Op: OpRequest})
	require.NoError(t, err)
	assert.Contains(t, s, `<rgp:update xmlns:rgp="urn:ietf:params:xml:ns:rgp-1.0"><rgp:restore op="request"/></rgp:update>`)
}

func TestValidation(t *testing.T) {
	_, err := encode(t, &Update{Op: "undo"})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Update{Op: OpReport})
	assert.ErrorIs(t, err, codec.ErrMissing)

	rp := sampleReport()
	rp.Statements = rp.Statements[:1]
	_, err = encode(t, &Update{Op: OpReport, Report: rp})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &InfoData{})
	assert.ErrorIs(t, err, codec.ErrMissing)
}

func TestHas(t *testing.T) {
	statuses := []Status{{Value: StatusAddPeriod}, {Value: StatusRedemptionPeriod}}
	assert.True(t, Has(statuses, StatusRedemptionPeriod))
	assert.False(t, Has(statuses, StatusPendingDelete))
}
