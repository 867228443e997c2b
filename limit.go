package fx_pool_simulator

import "github.com/shopspring/decimal"

// maxSwapAmount computes the halting-region headroom: the aggregate numeraire
// liquidity split evenly and expanded by the alpha cushion, minus the current
// reserve of the side the trade adds to, converted back to that side's raw
// token units.
func maxSwapAmount(pair *FxPoolPairData, swapType SwapTypes) (decimal.Decimal, error) {
	oGLiq := pair.BalanceInNum.Add(pair.BalanceOutNum)
	maxLimit := ONE.Add(pair.Alpha).Mul(oGLiq).Mul(HALF)

	if swapType == SwapExactIn {
		headroom := maxLimit.Sub(pair.BalanceInNum)
		return viewRawAmount(headroom, pair.DecimalsIn, pair.FXPriceIn, pair.OracleDecimalsIn)
	}
	headroom := maxLimit.Sub(pair.BalanceOutNum)
	return viewRawAmount(headroom, pair.DecimalsOut, pair.FXPriceOut, pair.OracleDecimalsOut)
}

// GetLimitAmountSwap returns the largest trade size before the pool enters its
// halting region. Any internal failure, and any reserve already past the
// bound, yields exactly zero so a malformed pool cannot abort a route search.
func (p *FxPool) GetLimitAmountSwap(pair *FxPoolPairData, swapType SwapTypes) decimal.Decimal {
	if pair == nil {
		return decimal.Zero
	}
	limit, err := maxSwapAmount(pair, swapType)
	if err != nil || limit.Sign() < 0 {
		return decimal.Zero
	}
	return limit.Floor()
}
