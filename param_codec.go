package fx_pool_simulator

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	bigOne   = big.NewInt(1)
	tenPow18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	tenPow36 = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)
)

// ParseFixedCurveParam parses a curve parameter string and replicates the
// lossy round trip the contract performs when widening it into its internal
// 64.64 fixed-point representation. Quoting with the plain decimal instead
// diverges from the executed amounts by the contract's own encoding error.
func ParseFixedCurveParam(param string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(param)
	if err != nil {
		return decimal.Zero, err
	}
	return ReplicateFixedPoint64x64(d), nil
}

// ReplicateFixedPoint64x64 re-encodes a decimal curve parameter through the
// contract's 64.64 format and rounds the survivor up to 3 fractional digits.
//
// The one-unit bias at 1e18 scale is applied before the widening shift even
// for zero input, matching the on-chain convention; the back conversion drops
// to 18 fractional digits before the ceiling, which makes the function
// idempotent on its own output.
func ReplicateFixedPoint64x64(param decimal.Decimal) decimal.Decimal {
	p := param.Shift(18).Truncate(0).BigInt()
	p.Add(p, bigOne)
	p.Lsh(p, 64)
	p.Quo(p, tenPow18)
	p.Mul(p, tenPow36)
	p.Rsh(p, 64)
	p.Quo(p, tenPow18)
	return decimal.NewFromBigInt(p, -18).RoundCeil(CURVE_PARAM_PRECISION)
}
