package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWei(t *testing.T) {
	tests := []struct {
		name string
		wei  string
		want string
	}{
		{"zero", "0", "0"},
		{"one ether", "1000000000000000000", "1"},
		{"half ether", "500000000000000000", "0.5"},
		{"trailing zeros trimmed", "1200000000000000000", "1.2"},
		{"smallest unit", "1", "0.000000000000000001"},
		{"large amount", "123456000000000000000000", "123456"},
		{"mixed", "1234567890000000000", "1.23456789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.wei, 10)
			require.True(t, ok)
			assert.Equal(t, tt.want, FromWei(v))
		})
	}
}

func TestFromWei_Nil(t *testing.T) {
	assert.Equal(t, "0", FromWei(nil))
}

func TestToWei(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"integer", "1", "1000000000000000000"},
		{"decimal", "0.5", "500000000000000000"},
		{"full precision", "0.000000000000000001", "1"},
		{"large", "123456", "123456000000000000000000"},
		{"leading dot", ".25", "250000000000000000"},
		{"zero", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToWei(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToWei_Invalid(t *testing.T) {
	for _, amount := range []string{"", "abc", "1.2.3", "0.0000000000000000001"} {
		_, err := ToWei(amount)
		assert.Error(t, err, "amount %q should be rejected", amount)
	}
}

func TestToWei_RoundTrip(t *testing.T) {
	for _, amount := range []string{"1", "0.5", "1.23456789", "123456"} {
		wei, err := ToWei(amount)
		require.NoError(t, err)
		assert.Equal(t, amount, FromWei(wei))
	}
}
