package fx_pool_simulator

import "github.com/shopspring/decimal"

// All divisions on the quote path go through here so results never depend on
// the package-global shopspring division precision.
const divPrecision = 36

func div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, divPrecision)
}

// viewNumeraireAmount converts raw base units of a token into the shared
// numeraire unit via its oracle FX rate.
func viewNumeraireAmount(raw decimal.Decimal, decimals int, price decimal.Decimal, oracleDecimals int) decimal.Decimal {
	return raw.Shift(int32(-decimals)).Mul(price.Shift(int32(-oracleDecimals)))
}

// viewRawAmount is the inverse of viewNumeraireAmount. The result is not
// truncated; callers round to integer base units only at facade boundaries.
func viewRawAmount(numeraire decimal.Decimal, decimals int, price decimal.Decimal, oracleDecimals int) (decimal.Decimal, error) {
	rate := price.Shift(int32(-oracleDecimals))
	if rate.Sign() <= 0 {
		return decimal.Zero, DIVISION_BY_ZERO
	}
	return div(numeraire, rate).Shift(int32(decimals)), nil
}

// TotalNumeraireLiquidity returns oGLiq, the sum of every member token's
// reserve expressed in numeraire terms. Tokens without oracle data make the
// aggregate undefined.
func (p *FxPool) TotalNumeraireLiquidity() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range p.Tokens {
		price, oracleDecimals, err := t.oracle()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(viewNumeraireAmount(t.Balance, t.Decimals, price, oracleDecimals))
	}
	return total, nil
}
