package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayoutAmountCents(t *testing.T) {
	tests := []struct {
		name       string
		totalViews int64
		rate       int64
		want       int64
	}{
		{name: "exact thousands", totalViews: 10_000, rate: 500, want: 5000},
		{name: "fraction floors", totalViews: 2500, rate: 500, want: 1250},
		{name: "sub-cent remainder floors", totalViews: 1999, rate: 100, want: 199},
		{name: "below one thousand views", totalViews: 999, rate: 1, want: 0},
		{name: "zero views", totalViews: 0, rate: 500, want: 0},
		{name: "negative views", totalViews: -100, rate: 500, want: 0},
		{name: "zero rate", totalViews: 10_000, rate: 0, want: 0},
		{name: "large counts do not overflow", totalViews: 1_000_000_000, rate: 250, want: 250_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PayoutAmountCents(tt.totalViews, tt.rate))
		})
	}
}
