package fx_pool_simulator

import "github.com/shopspring/decimal"

// The fee surface is piecewise, so the marginal rate has no single closed
// form across regions. Spot price and its derivative are taken as difference
// quotients over the trade solver with a probe fixed by pool state, which
// keeps them deterministic and exact to the solver's own tolerance.

// probeRawIn returns the finite-difference step in raw tokenIn units.
func probeRawIn(pair *FxPoolPairData) (decimal.Decimal, error) {
	oGLiq := pair.BalanceInNum.Add(pair.BalanceOutNum)
	step, err := viewRawAmount(oGLiq.Mul(SPOT_PRICE_PROBE), pair.DecimalsIn, pair.FXPriceIn, pair.OracleDecimalsIn)
	if err != nil {
		return decimal.Zero, err
	}
	if step.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	return step, nil
}

func probeRawOut(pair *FxPoolPairData) (decimal.Decimal, error) {
	oGLiq := pair.BalanceInNum.Add(pair.BalanceOutNum)
	step, err := viewRawAmount(oGLiq.Mul(SPOT_PRICE_PROBE), pair.DecimalsOut, pair.FXPriceOut, pair.OracleDecimalsOut)
	if err != nil {
		return decimal.Zero, err
	}
	if step.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	return step, nil
}

// spotPriceAfterSwapExactTokenInForTokenOut is the marginal tokenIn cost of
// one raw unit of tokenOut at the reserve point reached after trading
// amountIn. amountIn zero yields the pre-trade spot price.
//
// The rate is a ratio of raw base units, not human units: a pair whose tokens
// differ in decimals carries a 10^(decimalsIn-decimalsOut) factor on top of
// the FX rate.
func spotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) (decimal.Decimal, error) {
	h, err := probeRawIn(pair)
	if err != nil {
		return decimal.Zero, err
	}
	out0, err := exactTokenInForTokenOut(pair, amountIn)
	if err != nil {
		return decimal.Zero, err
	}
	out1, err := exactTokenInForTokenOut(pair, amountIn.Add(h))
	if err != nil {
		return decimal.Zero, err
	}
	dOut := out1.Sub(out0)
	if dOut.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	return div(h, dOut), nil
}

// spotPriceAfterSwapTokenInForExactTokenOut is the same marginal rate, in the
// same raw-unit scale, at the point reached after withdrawing amountOut.
func spotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) (decimal.Decimal, error) {
	h, err := probeRawOut(pair)
	if err != nil {
		return decimal.Zero, err
	}
	in0, err := tokenInForExactTokenOut(pair, amountOut)
	if err != nil {
		return decimal.Zero, err
	}
	in1, err := tokenInForExactTokenOut(pair, amountOut.Add(h))
	if err != nil {
		return decimal.Zero, err
	}
	dIn := in1.Sub(in0)
	if dIn.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	return div(dIn, h), nil
}

// derivativeSpotPriceAfterSwapExactTokenInForTokenOut measures how fast the
// spot price moves in trade size; the zero-amount value is the steepness of
// price impact that normalized liquidity is derived from.
func derivativeSpotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) (decimal.Decimal, error) {
	h, err := probeRawIn(pair)
	if err != nil {
		return decimal.Zero, err
	}
	s0, err := spotPriceAfterSwapExactTokenInForTokenOut(pair, amountIn)
	if err != nil {
		return decimal.Zero, err
	}
	s1, err := spotPriceAfterSwapExactTokenInForTokenOut(pair, amountIn.Add(h))
	if err != nil {
		return decimal.Zero, err
	}
	return div(s1.Sub(s0), h), nil
}

func derivativeSpotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) (decimal.Decimal, error) {
	h, err := probeRawOut(pair)
	if err != nil {
		return decimal.Zero, err
	}
	s0, err := spotPriceAfterSwapTokenInForExactTokenOut(pair, amountOut)
	if err != nil {
		return decimal.Zero, err
	}
	s1, err := spotPriceAfterSwapTokenInForExactTokenOut(pair, amountOut.Add(h))
	if err != nil {
		return decimal.Zero, err
	}
	return div(s1.Sub(s0), h), nil
}

// normalizedLiquidity is inversely proportional to the zero-amount price
// impact derivative: the flatter the curve, the deeper the pool ranks. A
// vanishing derivative (both reserves inside the beta band) is capped rather
// than divided through.
func normalizedLiquidity(pair *FxPoolPairData) (decimal.Decimal, error) {
	d, err := derivativeSpotPriceAfterSwapExactTokenInForTokenOut(pair, decimal.Zero)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Sign() <= 0 {
		return MAX_NORMALIZED_LIQUIDITY, nil
	}
	liq := div(ONE, d)
	if liq.GreaterThan(MAX_NORMALIZED_LIQUIDITY) {
		return MAX_NORMALIZED_LIQUIDITY, nil
	}
	return liq, nil
}
