package fx_pool_simulator

import "github.com/shopspring/decimal"

// calculateMicroFee prices one reserve's distance from its ideal share of the
// pool. Inside the beta band the fee is zero; outside it the fee grows
// quadratically in the margin with slope delta, capped at CURVEMATH_MAX.
func calculateMicroFee(bal, ideal, beta, delta decimal.Decimal) (decimal.Decimal, error) {
	if ideal.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	if bal.LessThan(ideal) {
		threshold := ideal.Mul(ONE.Sub(beta))
		if bal.LessThan(threshold) {
			margin := threshold.Sub(bal)
			fee := div(margin, ideal).Mul(delta)
			if fee.GreaterThan(CURVEMATH_MAX) {
				fee = CURVEMATH_MAX
			}
			return fee.Mul(margin), nil
		}
		return decimal.Zero, nil
	}
	threshold := ideal.Mul(ONE.Add(beta))
	if bal.GreaterThan(threshold) {
		margin := bal.Sub(threshold)
		fee := div(margin, ideal).Mul(delta)
		if fee.GreaterThan(CURVEMATH_MAX) {
			fee = CURVEMATH_MAX
		}
		return fee.Mul(margin), nil
	}
	return decimal.Zero, nil
}

func calculateFee(gLiq decimal.Decimal, bals []decimal.Decimal, beta, delta decimal.Decimal) (decimal.Decimal, error) {
	psi := decimal.Zero
	for i := range bals {
		fee, err := calculateMicroFee(bals[i], gLiq.Mul(WEIGHTS[i]), beta, delta)
		if err != nil {
			return decimal.Zero, err
		}
		psi = psi.Add(fee)
	}
	return psi, nil
}

// enforceHalts rejects a settled state past the alpha bound, unless the
// origin state already violated the bound and the trade does not worsen it.
func enforceHalts(oGLiq, nGLiq decimal.Decimal, oBals, nBals []decimal.Decimal, alpha decimal.Decimal) error {
	for i := range nBals {
		nIdeal := nGLiq.Mul(WEIGHTS[i])
		if nBals[i].GreaterThan(nIdeal) {
			upper := ONE.Add(alpha)
			nHalt := nIdeal.Mul(upper)
			if nBals[i].GreaterThan(nHalt) {
				oHalt := oGLiq.Mul(WEIGHTS[i]).Mul(upper)
				if oBals[i].LessThan(oHalt) {
					return UPPER_HALT
				}
				if nBals[i].Sub(nHalt).GreaterThan(oBals[i].Sub(oHalt)) {
					return UPPER_HALT
				}
			}
		} else {
			lower := ONE.Sub(alpha)
			nHalt := nIdeal.Mul(lower)
			if nBals[i].LessThan(nHalt) {
				oHalt := oGLiq.Mul(WEIGHTS[i]).Mul(lower)
				if oBals[i].GreaterThan(oHalt) {
					return LOWER_HALT
				}
				if nHalt.Sub(nBals[i]).GreaterThan(oHalt.Sub(oBals[i])) {
					return LOWER_HALT
				}
			}
		}
	}
	return nil
}

// enforceSwapInvariant requires the pool's utility (liquidity net of the fee
// surface) not to decrease across the trade beyond the contract's tolerance.
func enforceSwapInvariant(oGLiq, omega, nGLiq, psi decimal.Decimal) error {
	diff := nGLiq.Sub(psi).Sub(oGLiq.Sub(omega))
	if diff.GreaterThan(ZERO) || diff.GreaterThanOrEqual(CURVEMATH_MAX_DIFF) {
		return nil
	}
	return SWAP_INVARIANT_VIOLATION
}

// calculateTrade solves the invariant for the amount leaving outputIndex when
// inputAmt (numeraire, signed from the pool's perspective) has been applied to
// the other side. nBals must already carry the applied input. The iteration is
// bounded: it either converges within tolerance or fails, never returns an
// unconverged result.
func calculateTrade(pair *FxPoolPairData, oGLiq, nGLiq decimal.Decimal, oBals, nBals []decimal.Decimal, inputAmt decimal.Decimal, outputIndex int) (decimal.Decimal, decimal.Decimal, []decimal.Decimal, error) {
	omega, err := calculateFee(oGLiq, oBals, pair.Beta, pair.Delta)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}
	outputAmt := inputAmt.Neg()
	for i := 0; i < MAX_TRADE_ITERATIONS; i++ {
		psi, err := calculateFee(nGLiq, nBals, pair.Beta, pair.Delta)
		if err != nil {
			return decimal.Zero, decimal.Zero, nil, err
		}
		prev := outputAmt
		if omega.LessThan(psi) {
			outputAmt = inputAmt.Add(omega.Sub(psi)).Neg()
		} else {
			outputAmt = inputAmt.Add(pair.Lambda.Mul(omega.Sub(psi))).Neg()
		}
		nGLiq = oGLiq.Add(inputAmt).Add(outputAmt)
		nBals[outputIndex] = oBals[outputIndex].Add(outputAmt)

		if outputAmt.Sub(prev).Abs().LessThanOrEqual(CONVERGENCE_TOLERANCE) {
			if nGLiq.Sign() < 0 {
				return decimal.Zero, decimal.Zero, nil, NEGATIVE_RESERVE
			}
			for _, b := range nBals {
				if b.Sign() < 0 {
					return decimal.Zero, decimal.Zero, nil, NEGATIVE_RESERVE
				}
			}
			if err := enforceHalts(oGLiq, nGLiq, oBals, nBals, pair.Alpha); err != nil {
				return decimal.Zero, decimal.Zero, nil, err
			}
			if err := enforceSwapInvariant(oGLiq, omega, nGLiq, psi); err != nil {
				return decimal.Zero, decimal.Zero, nil, err
			}
			return outputAmt, nGLiq, nBals, nil
		}
	}
	return decimal.Zero, decimal.Zero, nil, SWAP_CONVERGENCE_FAILED
}

// exactTokenInForTokenOut returns the raw tokenOut amount produced by amountIn
// raw tokenIn, proportional fee included. Not truncated to integer units;
// the facade rounds at its boundary.
func exactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) (decimal.Decimal, error) {
	inputNum := viewNumeraireAmount(amountIn, pair.DecimalsIn, pair.FXPriceIn, pair.OracleDecimalsIn)

	oBals := []decimal.Decimal{pair.BalanceInNum, pair.BalanceOutNum}
	nBals := []decimal.Decimal{pair.BalanceInNum.Add(inputNum), pair.BalanceOutNum}
	oGLiq := pair.BalanceInNum.Add(pair.BalanceOutNum)
	nGLiq := nBals[0].Add(nBals[1])

	outputAmt, _, _, err := calculateTrade(pair, oGLiq, nGLiq, oBals, nBals, inputNum, 1)
	if err != nil {
		return decimal.Zero, err
	}
	outNum := outputAmt.Abs().Mul(ONE.Sub(pair.Epsilon))
	return viewRawAmount(outNum, pair.DecimalsOut, pair.FXPriceOut, pair.OracleDecimalsOut)
}

// tokenInForExactTokenOut returns the raw tokenIn amount required to withdraw
// amountOut raw tokenOut. The fee is charged on the input side here, so a
// round trip through both directions never pays out more than it took in.
func tokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) (decimal.Decimal, error) {
	outputNum := viewNumeraireAmount(amountOut, pair.DecimalsOut, pair.FXPriceOut, pair.OracleDecimalsOut)

	oBals := []decimal.Decimal{pair.BalanceInNum, pair.BalanceOutNum}
	nBals := []decimal.Decimal{pair.BalanceInNum, pair.BalanceOutNum.Sub(outputNum)}
	oGLiq := pair.BalanceInNum.Add(pair.BalanceOutNum)
	nGLiq := nBals[0].Add(nBals[1])

	requiredAmt, _, _, err := calculateTrade(pair, oGLiq, nGLiq, oBals, nBals, outputNum.Neg(), 0)
	if err != nil {
		return decimal.Zero, err
	}
	inNum := requiredAmt.Abs().Mul(ONE.Add(pair.Epsilon))
	return viewRawAmount(inNum, pair.DecimalsIn, pair.FXPriceIn, pair.OracleDecimalsIn)
}
