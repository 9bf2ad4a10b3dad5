package coa

import (
	"testing"

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

func TestRoundTrip(t *testing.T) {
	reg, err := codec.NewRegistry(Factory())
	require.NoError(t, err)

	tests := []struct {
		name string
		in   codec.Component
	}{
		{"create", &Create{Attrs: []Attr{{Key: "KEY1", Value: "value1"}, {Key: "KEY2", Value: "value2"}}}},
		{"update", &Update{Put: []Attr{{Key: "KEY1", Value: "new"}}, Rem: []string{"KEY2"}}},
		{"update rem only", &Update{Rem: []string{"KEY2"}}},
		{"info data", &InfoData{Attrs: []Attr{{Key: "KEY1", Value: "value1"}}}},
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

func TestValidation(t *testing.T) {
	_, err := encode(t, &Create{})
	assert.ErrorIs(t, err, codec.ErrMissing)

	_, err = encode(t, &Create{Attrs: []Attr{{Key: "K", Value: "a"}, {Key: "K", Value: "b"}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Create{Attrs: []Attr{{Key: "K"}}})
	assert.ErrorIs(t, err, codec.ErrMissing)

	_, err = encode(t, &Update{})
	assert.ErrorIs(t, err, codec.ErrMissing)
}

func TestInfoData_Map(t *testing.T) {
	d := InfoData{Attrs: []Attr{{Key: "A", Value: "1"}, {Key: "B", Value: "2"}}}
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, d.Map())
}
