package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTypeCodes(t *testing.T) {
	tests := []struct {
		typ  OrderType
		char byte
		fix  string
		name string
	}{
		{Market, 'M', "1", "market"},
		{Limit, 'L', "2", "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.char, tt.typ.Char())
			assert.Equal(t, tt.fix, tt.typ.FixCode())
			assert.Equal(t, tt.name, tt.typ.String())

			got, ok := OrderTypeFromChar(tt.char)
			require.True(t, ok)
			assert.Equal(t, tt.typ, got)

			got, ok = OrderTypeFromFixCode(tt.fix)
			require.True(t, ok)
			assert.Equal(t, tt.typ, got)
		})
	}

	_, ok := OrderTypeFromChar('X')
	assert.False(t, ok)
	_, ok = OrderTypeFromFixCode("3")
	assert.False(t, ok)
	_, ok = OrderTypeFromFixCode("")
	assert.False(t, ok)
}

func TestExecuteSideCodes(t *testing.T) {
	assert.Equal(t, byte('T'), Taker.Char())
	assert.Equal(t, "Y", Taker.FixCode())
	assert.Equal(t, byte('M'), Maker.Char())
	assert.Equal(t, "N", Maker.FixCode())

	s, ok := ExecuteSideFromFixCode("N")
	require.True(t, ok)
	assert.Equal(t, Maker, s)

	s, ok = ExecuteSideFromChar('T')
	require.True(t, ok)
	assert.Equal(t, Taker, s)

	_, ok = ExecuteSideFromFixCode("y")
	assert.False(t, ok)
}

func TestReduceRejectReasonCodes(t *testing.T) {
	seen := make(map[byte]bool)
	for _, r := range reduceRejectReasons {
		assert.False(t, seen[r.Char()], "duplicate code %q", r.Char())
		seen[r.Char()] = true

		got, ok := ReduceRejectReasonFromChar(r.Char())
		require.True(t, ok)
		assert.Equal(t, r, got)
	}
	assert.Equal(t, "none", ReduceRejectReason(0).String())
	assert.Equal(t, "not_found", ReduceNotFound.String())

	_, ok := ReduceRejectReasonFromChar(0)
	assert.False(t, ok)
}

func TestOrderReduce(t *testing.T) {
	tests := []struct {
		name    string
		newSize int64
		want    ReduceRejectReason
		wantQty int64
	}{
		{"zero", 0, ReduceZero, 100},
		{"negative", -5, ReduceNegative, 100},
		{"increase", 150, ReduceIncrease, 100},
		{"superfluous", 100, ReduceSuperfluous, 100},
		{"accepted", 60, 0, 60},
		{"below filled", 10, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Quantity: 100, Filled: 30}
			assert.Equal(t, tt.want, o.Reduce(tt.newSize))
			assert.Equal(t, tt.wantQty, o.Quantity)
		})
	}
}

func TestResetClearsPayloads(t *testing.T) {
	o := NewOrder()
	o.ID = 7
	o.Symbol = "ACME"
	o.Type = Limit
	o.Price = 101
	o.Quantity = 10
	o.Filled = 4
	o.CreatedAt = time.Now()

	r := NewExecutionReport()
	r.Fill(o, 1, Taker, 101, 4, time.Now())
	assert.Equal(t, int64(6), r.LeavesQty)
	assert.Equal(t, "ACME", r.Symbol)
	assert.False(t, r.Rejected())

	o.Reset()
	r.Reset()
	assert.Equal(t, Order{}, *o)
	assert.Equal(t, ExecutionReport{}, *r)
}
