package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMajor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole amount", input: "500", want: 50000},
		{name: "two fraction digits", input: "1120.00", want: 112000},
		{name: "one fraction digit", input: "19.5", want: 1950},
		{name: "smallest unit", input: "0.01", want: 1},
		{name: "negative amount", input: "-25.50", want: -2550},
		{name: "trailing zeros beyond scale", input: "10.500", want: 1050},
		{name: "three significant fraction digits", input: "10.005", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMajor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.MinorUnits())
		})
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	// Every representable amount must survive format -> parse unchanged.
	for _, minor := range []int64{0, 1, 99, 100, 50000, 112000, -2550, 999999999} {
		m := FromMinorUnits(minor)
		parsed, err := ParseMajor(m.MajorString())
		require.NoError(t, err)
		assert.Equal(t, minor, parsed.MinorUnits(), "round trip for %s", m.MajorString())
	}
}

func TestMajorString(t *testing.T) {
	assert.Equal(t, "0.00", Zero().MajorString())
	assert.Equal(t, "1120.00", FromMinorUnits(112000).MajorString())
	assert.Equal(t, "0.05", FromMinorUnits(5).MajorString())
	assert.Equal(t, "-25.50", FromMinorUnits(-2550).MajorString())
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustParseMajor("100.25")
	b := MustParseMajor("0.75")

	assert.Equal(t, "101.00", a.Add(b).MajorString())
	assert.Equal(t, "99.50", a.Sub(b).MajorString())
	assert.Equal(t, "300.75", a.MulQty(3).MajorString())
	assert.Equal(t, "-100.25", a.Neg().MajorString())
	assert.True(t, b.LessThan(a))
	assert.True(t, a.GreaterThan(b))
	assert.Equal(t, 0, a.Cmp(MustParseMajor("100.25")))
}

func TestInclusiveTaxPortion(t *testing.T) {
	vatRate := decimal.RequireFromString("12")

	tests := []struct {
		amount string
		want   string
	}{
		{amount: "1120.00", want: "120.00"},
		{amount: "112.00", want: "12.00"},
		{amount: "500.00", want: "53.57"}, // 500 * 12/112 = 53.571...
		{amount: "0.00", want: "0.00"},
	}

	for _, tt := range tests {
		got := MustParseMajor(tt.amount).InclusiveTaxPortion(vatRate)
		assert.Equal(t, tt.want, got.MajorString(), "inclusive tax of %s", tt.amount)
	}
}

func TestPortionAtRate(t *testing.T) {
	rate := decimal.RequireFromString("1")
	assert.Equal(t, "10.00", MustParseMajor("1000.00").PortionAtRate(rate).MajorString())
	assert.Equal(t, "0.01", MustParseMajor("0.50").PortionAtRate(rate).MajorString())
}

func TestMoneyJSON(t *testing.T) {
	type payload struct {
		Total Money `json:"total"`
	}

	data, err := json.Marshal(payload{Total: MustParseMajor("1120.00")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"1120.00"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"total":"500.00"}`), &decoded))
	assert.Equal(t, int64(50000), decoded.Total.MinorUnits())

	assert.Error(t, json.Unmarshal([]byte(`{"total":"1.005"}`), &decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(112000)))
	assert.Equal(t, "1120.00", m.MajorString())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(3.14))
}
