package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodoventures/vaultsight/internal/domain"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain", "4.00", 4},
		{"integer", "12", 12},
		{"whitespace", "  1.5 ", 1.5},
		{"empty", "", 0},
		{"blank", "   ", 0},
		{"garbage", "abc", 0},
		{"nan", "NaN", 0},
		{"inf", "Inf", 0},
		{"negative inf", "-Inf", 0},
		{"negative", "-2.5", -2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecimal(tt.in))
		})
	}
}

func TestLegUSD(t *testing.T) {
	tests := []struct {
		name string
		leg  *domain.TokenLeg
		want float64
	}{
		{
			name: "usdc hundred",
			leg:  &domain.TokenLeg{TokenSymbol: "USDC", Amount: 100_000_000, Decimal: 6, Price: "1.00"},
			want: 100,
		},
		{
			name: "sui at four dollars",
			leg:  &domain.TokenLeg{TokenSymbol: "SUI", Amount: 25_000_000_000, Decimal: 9, Price: "4.00"},
			want: 100,
		},
		{
			name: "nil leg",
			leg:  nil,
			want: 0,
		},
		{
			name: "empty price",
			leg:  &domain.TokenLeg{Amount: 1_000_000, Decimal: 6, Price: ""},
			want: 0,
		},
		{
			name: "unparseable price",
			leg:  &domain.TokenLeg{Amount: 1_000_000, Decimal: 6, Price: "n/a"},
			want: 0,
		},
		{
			name: "negative decimal",
			leg:  &domain.TokenLeg{Amount: 1_000_000, Decimal: -1, Price: "1.00"},
			want: 0,
		},
		{
			name: "zero amount",
			leg:  &domain.TokenLeg{Amount: 0, Decimal: 6, Price: "3.00"},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LegUSD(tt.leg), 1e-9)
		})
	}
}
