package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

func encode(t *testing.T, c codec.Encoder) (string, error) {
	t.Helper()
	doc := codec.NewDocument()
	_, err := c.Encode(doc.CreateElement("root"))
	s, werr := doc.WriteToString()
	require.NoError(t, werr)
	return s, err
}

func TestRoundTrip(t *testing.T) {
	crDate := time.Date(1999, 4, 3, 22, 0, 0, 0, time.UTC)
	reg, err := codec.NewRegistry(Factory())
	require.NoError(t, err)

	tests := []struct {
		name string
		in   codec.Component
	}{
		{"check", &Check{Names: []string{"ns1.example.com", "ns2.example.com"}}},
		{"check data", &CheckData{Results: []shared.CheckResult{{Key: "ns1.example.com", Avail: true}}}},
		{"info", &Info{Name: "ns1.example.com"}},
		{"info data", &InfoData{
			Name:     "ns1.example.com",
			ROID:     "NS1_EXAMPLE1-REP",
			Statuses: []shared.Status{{Value: "linked"}, {Value: "clientUpdateProhibited"}},
			Addrs:    []Addr{{IP: "192.0.2.2", Version: V4}, {IP: "1080::8:800:200c:417a", Version: V6}},
			ClID:     "ClientY",
			CrID:     "ClientX",
			CrDate:   crDate,
			TrDate:   crDate.AddDate(1, 0, 0),
		}},
		{"create", &Create{Name: "ns1.example.com", Addrs: []Addr{{IP: "192.0.2.2", Version: V4}}}},
		{"create data", &CreateData{Name: "ns1.example.com", CrDate: crDate}},
		{"delete", &Delete{Name: "ns1.example.com"}},
		{"update", &Update{
			Name:    "ns1.example.com",
			Add:     &UpdateSet{Addrs: []Addr{{IP: "192.0.2.22", Version: V4}}, Statuses: []shared.Status{{Value: "clientUpdateProhibited"}}},
			Rem:     &UpdateSet{Addrs: []Addr{{IP: "1080::8:800:200c:417a", Version: V6}}},
			NewName: "ns2.example.com",
		}},
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

func TestAddr_DerivesVersion(t *testing.T) {
	s, err := encode(t, &Create{Name: "ns1.example.com", Addrs: []Addr{{IP: "2001:db8::53"}, {IP: "198.51.100.53"}}})
	require.NoError(t, err)
	assert.Contains(t, s, `<host:addr ip="v6">2001:db8::53</host:addr>`)
	assert.Contains(t, s, `<host:addr ip="v4">198.51.100.53</host:addr>`)
}

func TestAddr_Invalid(t *testing.T) {
	_, err := encode(t, &Create{Name: "ns1.example.com", Addrs: []Addr{{IP: "300.1.1.1"}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Create{Name: "ns1.example.com", Addrs: []Addr{{IP: "192.0.2.1", Version: V6}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)
}

func TestUpdate_RequiresChange(t *testing.T) {
	_, err := encode(t, &Update{Name: "ns1.example.com"})
	assert.ErrorIs(t, err, codec.ErrMissing)

	_, err = encode(t, &Update{Name: "ns1.example.com", Add: &UpdateSet{}})
	assert.ErrorIs(t, err, codec.ErrMissing)
}
