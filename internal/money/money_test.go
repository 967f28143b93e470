package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"12.34", 1234, nil},
		{"12,34", 1234, nil},
		{" 7 ", 700, nil},
		{"0.5", 50, nil},
		{"-3.10", -310, nil},
		{"100.00", 10000, nil},
		{"999999999999.99", 0, ErrOutOfRange},
		{"9999999999.99", 999999999999, nil},
		{"0.125", 0, ErrTooPrecise},
		{"", 0, ErrEmpty},
		{"abc", 0, ErrNotANumber},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCents(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBasisPoints(t *testing.T) {
	bp, err := ParseBasisPoints("33.33")
	require.NoError(t, err)
	assert.Equal(t, int64(3333), bp)

	bp, err = ParseBasisPoints("100")
	require.NoError(t, err)
	assert.Equal(t, FullPercent, bp)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "33.34", FormatCents(3334))
	assert.Equal(t, "-0.05", FormatCents(-5))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "12.50", FormatBasisPoints(1250))
}
