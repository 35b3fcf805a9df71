// Package orders defines the order-book payloads that the engine recycles
// through pkg/pool, together with their wire enumerations.
//
// Every enumeration has a one-byte internal code used in logs and compact
// encodings. OrderType and ExecuteSide also carry the FIX tag value used on
// the wire.
package orders

// OrderType is the kind of order.
type OrderType byte

const (
	// Market executes at the best available price.
	Market OrderType = 'M'
	// Limit rests at a price or better.
	Limit OrderType = 'L'
)

var orderTypes = [...]OrderType{Market, Limit}

// Char returns the one-byte internal code.
func (t OrderType) Char() byte { return byte(t) }

// FixCode returns the FIX OrdType (tag 40) value.
func (t OrderType) FixCode() string {
	switch t {
	case Market:
		return "1"
	case Limit:
		return "2"
	default:
		return ""
	}
}

func (t OrderType) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return "unknown"
	}
}

// OrderTypeFromChar looks up an OrderType by internal code.
func OrderTypeFromChar(c byte) (OrderType, bool) {
	for _, t := range orderTypes {
		if t.Char() == c {
			return t, true
		}
	}
	return 0, false
}

// OrderTypeFromFixCode looks up an OrderType by FIX value.
func OrderTypeFromFixCode(code string) (OrderType, bool) {
	for _, t := range orderTypes {
		if t.FixCode() == code {
			return t, true
		}
	}
	return 0, false
}

// ExecuteSide says whether an execution took or provided liquidity.
type ExecuteSide byte

const (
	// Taker removed liquidity.
	Taker ExecuteSide = 'T'
	// Maker provided liquidity.
	Maker ExecuteSide = 'M'
)

var executeSides = [...]ExecuteSide{Taker, Maker}

// Char returns the one-byte internal code.
func (s ExecuteSide) Char() byte { return byte(s) }

// FixCode returns the FIX AggressorIndicator (tag 1057) value.
func (s ExecuteSide) FixCode() string {
	switch s {
	case Taker:
		return "Y"
	case Maker:
		return "N"
	default:
		return ""
	}
}

func (s ExecuteSide) String() string {
	switch s {
	case Taker:
		return "taker"
	case Maker:
		return "maker"
	default:
		return "unknown"
	}
}

// ExecuteSideFromChar looks up an ExecuteSide by internal code.
func ExecuteSideFromChar(c byte) (ExecuteSide, bool) {
	for _, s := range executeSides {
		if s.Char() == c {
			return s, true
		}
	}
	return 0, false
}

// ExecuteSideFromFixCode looks up an ExecuteSide by FIX value.
func ExecuteSideFromFixCode(code string) (ExecuteSide, bool) {
	for _, s := range executeSides {
		if s.FixCode() == code {
			return s, true
		}
	}
	return 0, false
}

// ReduceRejectReason explains why a size reduction was rejected. The zero
// value means no rejection.
type ReduceRejectReason byte

const (
	// ReduceZero: the requested new size was zero.
	ReduceZero ReduceRejectReason = 'Z'
	// ReduceNegative: the requested new size was negative.
	ReduceNegative ReduceRejectReason = 'N'
	// ReduceIncrease: the request would grow the order.
	ReduceIncrease ReduceRejectReason = 'I'
	// ReduceSuperfluous: the order already has the requested size.
	ReduceSuperfluous ReduceRejectReason = 'S'
	// ReduceNotFound: no live order with that id.
	ReduceNotFound ReduceRejectReason = 'F'
)

var reduceRejectReasons = [...]ReduceRejectReason{
	ReduceZero, ReduceNegative, ReduceIncrease, ReduceSuperfluous, ReduceNotFound,
}

// Char returns the one-byte internal code.
func (r ReduceRejectReason) Char() byte { return byte(r) }

func (r ReduceRejectReason) String() string {
	switch r {
	case 0:
		return "none"
	case ReduceZero:
		return "zero"
	case ReduceNegative:
		return "negative"
	case ReduceIncrease:
		return "increase"
	case ReduceSuperfluous:
		return "superfluous"
	case ReduceNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ReduceRejectReasonFromChar looks up a ReduceRejectReason by internal code.
func ReduceRejectReasonFromChar(c byte) (ReduceRejectReason, bool) {
	for _, r := range reduceRejectReasons {
		if r.Char() == c {
			return r, true
		}
	}
	return 0, false
}
