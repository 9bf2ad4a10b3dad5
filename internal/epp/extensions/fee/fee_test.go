package fee

import (
	"testing"

	"github.com/shopspring/decimal"
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

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func boolPtr(b bool) *bool { return &b }

func TestRoundTrip(t *testing.T) {
	reg, err := codec.NewRegistry(Factory())
	require.NoError(t, err)
	balance := dec("1000.00")

	tests := []struct {
		name string
		in   codec.Component
	}{
		{"check", &Check{Currency: "USD", Commands: []Command{
			{Name: CommandCreate, Period: &shared.Period{Value: 2, Unit: shared.UnitYear}},
			{Name: CommandRenew},
			{Name: CommandCustom, CustomName: "premium-unlock", Phase: "sunrise"},
		}}},
		{"check data", &CheckData{Currency: "USD", Results: []CheckResult{
			{ObjID: "example.com", Avail: true, Class: "Premium", Commands: []CommandData{
				{
					Name:     CommandCreate,
					Standard: boolPtr(false),
					Period:   &shared.Period{Value: 2, Unit: shared.UnitYear},
					Fees: []Fee{
						{Amount: dec("10.00"), Description: "Registration Fee", Refundable: boolPtr(true), GracePeriod: "P5D"},
					},
				},
				{Name: CommandRestore, Fees: []Fee{{Amount: dec("40.00"), Refundable: boolPtr(false)}}},
			}},
			{ObjID: "example.xyz", Avail: false, Reason: "Only 1 year registration periods are valid."},
		}}},
		{"info", &Info{Currency: "EUR", Command: Command{Name: CommandTransfer}}},
		{"info data", &InfoData{Currency: "EUR", Class: "standard", Command: CommandData{Name: CommandTransfer, Fees: []Fee{{Amount: dec("5.5")}}}}},
		{"create", &Create{Agreement{Currency: "USD", Fees: []Fee{{Amount: dec("5.00")}}}}},
		{"renew", &Renew{Agreement{Fees: []Fee{{Amount: dec("5.00"), Applied: AppliedImmediate}}}}},
		{"transfer", &Transfer{Agreement{Fees: []Fee{{Amount: dec("5.00")}}}}},
		{"update", &Update{Agreement{Fees: []Fee{{Amount: dec("40.00"), Description: "Restore Fee"}}}}},
		{"create data", &CreateData{Charge{
			Currency: "USD",
			Fees:     []Fee{{Amount: dec("5.00"), Refundable: boolPtr(true), GracePeriod: "P5D"}},
			Balance:  &balance,
		}}},
		{"renew data", &RenewData{Charge{Currency: "USD", Period: &shared.Period{Value: 1, Unit: shared.UnitYear}, Fees: []Fee{{Amount: dec("5.00")}}}}},
		{"transfer data", &TransferData{Charge{Currency: "USD", Fees: []Fee{{Amount: dec("5.00")}}}}},
		{"update data", &UpdateData{Charge{Currency: "USD", Fees: []Fee{{Amount: dec("40.00")}}}}},
		{"delete data", &DeleteData{Charge{Currency: "USD", Credits: []Credit{{Amount: dec("-5.00"), Description: "AGP Credit"}}, Balance: &balance}}},
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

func TestFee_KeepsScale(t *testing.T) {
	s, err := encode(t, &Create{Agreement{Fees: []Fee{{Amount: dec("10.50")}, {Amount: dec("3.00")}}}})
	require.NoError(t, err)
	assert.Contains(t, s, "<fee:fee>10.50</fee:fee>")
	assert.Contains(t, s, "<fee:fee>3.00</fee:fee>")
}

func TestFee_Validation(t *testing.T) {
	_, err := encode(t, &Create{Agreement{Fees: []Fee{{Amount: dec("-1")}}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &DeleteData{Charge{Credits: []Credit{{Amount: dec("5")}}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Create{})
	assert.ErrorIs(t, err, codec.ErrMissing)

	_, err = encode(t, &Check{Commands: []Command{{Name: "purchase"}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Check{Commands: []Command{{Name: CommandCustom}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)

	_, err = encode(t, &Check{Commands: []Command{{Name: CommandCreate, Subphase: "landrush"}}})
	assert.ErrorIs(t, err, codec.ErrInvalid)
}

func TestCheckData_DecodesServerSample(t *testing.T) {
	xml := `<fee:chkData xmlns:fee="urn:ietf:params:xml:ns:epp:fee-1.0">
  <fee:currency>USD</fee:currency>
  <fee:cd avail="1">
    <fee:objID>example.com</fee:objID>
    <fee:class>Premium</fee:class>
    <fee:command name="create">
      <fee:period unit="y">2</fee:period>
      <fee:fee description="Registration Fee" refundable="1" grace-period="P5D">10.00</fee:fee>
      <fee:fee description="Premium Surcharge" refundable="0">2.5</fee:fee>
    </fee:command>
  </fee:cd>
  <fee:cd avail="0">
    <fee:objID>example.net</fee:objID>
    <fee:reason>Only 1 year registration periods are valid.</fee:reason>
  </fee:cd>
</fee:chkData>`
	doc, err := codec.Parse([]byte(xml))
	require.NoError(t, err)

	var d CheckData
	require.NoError(t, d.Decode(doc.Root()))
	res, ok := d.Result("example.com")
	require.True(t, ok)
	assert.Equal(t, "Premium", res.Class)
	require.Len(t, res.Commands, 1)
	cmd := res.Commands[0]
	assert.Equal(t, &shared.Period{Value: 2, Unit: shared.UnitYear}, cmd.Period)
	assert.Equal(t, "12.5", Total(cmd.Fees, cmd.Credits).String())
	assert.False(t, *cmd.Fees[1].Refundable)

	other, ok := d.Result("example.net")
	require.True(t, ok)
	assert.False(t, other.Avail)
	assert.Equal(t, "Only 1 year registration periods are valid.", other.Reason)

	_, ok = d.Result("example.org")
	assert.False(t, ok)
}

func TestCharge_Total(t *testing.T) {
	c := Charge{Fees: []Fee{{Amount: dec("5.00")}, {Amount: dec("1.25")}}, Credits: []Credit{{Amount: dec("-2.00")}}}
	assert.True(t, dec("4.25").Equal(c.Total()))
}
