package ord

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
)

// FeeRate is a nonnegative fee rate denominated in satoshis per
// virtual byte.
type FeeRate struct {
	satPerVByte float64
}

// NewFeeRate validates and constructs a FeeRate. It fails for
// negative, NaN, or infinite rates.
func NewFeeRate(satPerVByte float64) (FeeRate, error) {
	if math.IsNaN(satPerVByte) || math.IsInf(satPerVByte, 0) || satPerVByte < 0 {
		return FeeRate{}, fmt.Errorf("%w: %v", ErrInvalidFeeRate, satPerVByte)
	}
	return FeeRate{satPerVByte: satPerVByte}, nil
}

// SatPerVByte returns the underlying rate.
func (r FeeRate) SatPerVByte() float64 {
	return r.satPerVByte
}

// Fee returns the fee, in satoshis, for a transaction of the given
// virtual size, rounding up to the nearest whole satoshi.
func (r FeeRate) Fee(vbytes float64) btcutil.Amount {
	return btcutil.Amount(int64(math.Ceil(r.satPerVByte * vbytes)))
}

// FeeForWeight converts weight units to virtual bytes (weight / 4.0,
// as a float, per BIP141) and then applies Fee. This matches the
// teacher's own GetTxVirtualSize convention but keeps the division in
// floating point until the final ceiling step, which the concrete fee
// scenarios in the spec require.
func (r FeeRate) FeeForWeight(weight int64) btcutil.Amount {
	return r.Fee(float64(weight) / 4.0)
}
