package fx_pool_simulator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	poolAddr = "0x726df899c0c4b5aab9e1b1d53886f692a5cdf3e9"
	tokenA   = "0x04068da6c83afcfa0e13ba15a6696662335d5b75"
	tokenB   = "0x2a03a2a0b47ffb2ab5e72b1e11e408cc17fedb44"
)

func intp(v int) *int {
	return &v
}

// two pegged assets inside the beta band: A at parity, B at 1.08, curve
// parameters from the reference pool
func scenarioSnapshot() *PoolSnapshot {
	return &PoolSnapshot{
		Id:          "fx-pool-1",
		Address:     poolAddr,
		SwapFee:     "0.0005",
		TotalShares: "1890000",
		Alpha:       "0.8",
		Beta:        "0.48",
		Lambda:      "0.3",
		Delta:       "0.4",
		Epsilon:     "0.0015",
		Tokens: TokenList{
			{
				Address:          tokenA,
				Balance:          "1000000",
				Decimals:         18,
				LatestFXPrice:    "100000000",
				FXOracleDecimals: intp(8),
			},
			{
				Address:          tokenB,
				Balance:          "900000",
				Decimals:         18,
				LatestFXPrice:    "108000000",
				FXOracleDecimals: intp(8),
			},
		},
	}
}

func TestNewFxPoolFromSnapshot(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)

	// every parameter went through the 64.64 replication
	assert.True(t, pool.Alpha.Equal(d("0.8")))
	assert.True(t, pool.Beta.Equal(d("0.48")))
	assert.True(t, pool.Lambda.Equal(d("0.3")))
	assert.True(t, pool.Delta.Equal(d("0.4")))
	assert.True(t, pool.Epsilon.Equal(d("0.002")))

	assert.True(t, pool.Tokens[0].Balance.Equal(d("1000000").Shift(18)))
}

func TestNewFxPoolMissingCurveParam(t *testing.T) {
	snap := scenarioSnapshot()
	snap.Lambda = ""
	_, err := NewFxPoolFromSnapshot(snap)
	var structural *StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestParsePoolPairDataErrors(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)

	var structural *StructuralError

	_, err = pool.ParsePoolPairData("0x00000000000000000000000000000000000000aa", tokenB)
	assert.ErrorAs(t, err, &structural)

	_, err = pool.ParsePoolPairData(tokenA, "0x00000000000000000000000000000000000000bb")
	assert.ErrorAs(t, err, &structural)

	_, err = pool.ParsePoolPairData(tokenA, tokenA)
	assert.ErrorAs(t, err, &structural)

	noPrice, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	noPrice.Tokens[0].LatestFXPrice = ""
	_, err = noPrice.ParsePoolPairData(tokenA, tokenB)
	assert.ErrorAs(t, err, &structural)

	noDecimals, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	noDecimals.Tokens[1].FXOracleDecimals = nil
	_, err = noDecimals.ParsePoolPairData(tokenA, tokenB)
	assert.ErrorAs(t, err, &structural)
}

func TestEndToEndScenario(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	pair, err := pool.ParsePoolPairData(tokenA, tokenB)
	assert.NoError(t, err)

	amountIn := d("1000").Shift(18)
	out := pool.ExactTokenInForTokenOut(pair, amountIn)
	assert.Truef(t, out.Sign() > 0, "quote = %s", out)

	// fee must keep the quote below the naive FX conversion 1000/1.08
	naive := div(d("1000"), d("1.08")).Shift(18)
	assert.Truef(t, out.LessThan(naive), "quote %s not below naive %s", out, naive)

	limit := pool.GetLimitAmountSwap(pair, SwapExactIn)
	assert.Truef(t, limit.Sign() > 0, "limit = %s", limit)

	limitNum := viewNumeraireAmount(limit, pair.DecimalsIn, pair.FXPriceIn, pair.OracleDecimalsIn)
	total, err := pool.TotalNumeraireLiquidity()
	assert.NoError(t, err)
	assert.Truef(t, limitNum.LessThan(total), "limit %s not below total reserve %s", limitNum, total)
}

func TestSpotPriceReflectsOracleRateAndFee(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	pair, err := pool.ParsePoolPairData(tokenA, tokenB)
	assert.NoError(t, err)

	// inside the beta band the marginal rate is the oracle ratio grossed up
	// by epsilon: 1.08 / (1 - 0.002)
	spot := pool.SpotPriceAfterSwapExactTokenInForTokenOut(pair, decimal.Zero)
	assert.Truef(t, spot.GreaterThan(d("1.08")), "spot = %s", spot)
	assert.Truef(t, spot.LessThan(d("1.085")), "spot = %s", spot)

	spotOut := pool.SpotPriceAfterSwapTokenInForExactTokenOut(pair, decimal.Zero)
	assert.Truef(t, spotOut.GreaterThan(d("1.08")), "spot exact-out = %s", spotOut)
	assert.Truef(t, spotOut.LessThan(d("1.085")), "spot exact-out = %s", spotOut)
}

func TestQuoteBoundaryAbsorbsOnlyMathErrors(t *testing.T) {
	five := decimal.NewFromInt(5)
	assert.True(t, quoteBoundary(five, nil).Equal(five))
	assert.True(t, quoteBoundary(five, UPPER_HALT).IsZero())
	assert.True(t, quoteBoundary(five, DIVISION_BY_ZERO).IsZero())

	// a non-math error reaching the quote boundary is a bug, not a zero quote
	assert.Panics(t, func() {
		quoteBoundary(decimal.Zero, structuralf("pair escaped validation"))
	})
}

func TestSpotPriceCarriesRawUnitScale(t *testing.T) {
	snap := scenarioSnapshot()
	snap.Tokens[0].Decimals = 6
	pool, err := NewFxPoolFromSnapshot(snap)
	assert.NoError(t, err)
	pair, err := pool.ParsePoolPairData(tokenA, tokenB)
	assert.NoError(t, err)

	// the rate is raw units per raw unit: 6-decimal in against 18-decimal out
	// scales the human-rate 1.08/(1-0.002) by 10^(6-18)
	spot := pool.SpotPriceAfterSwapExactTokenInForTokenOut(pair, decimal.Zero)
	scaled := spot.Shift(12)
	assert.Truef(t, scaled.GreaterThan(d("1.08")), "scaled spot = %s", scaled)
	assert.Truef(t, scaled.LessThan(d("1.085")), "scaled spot = %s", scaled)
}

func TestNormalizedLiquidityFlatRegionIsCapped(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	pair, err := pool.ParsePoolPairData(tokenA, tokenB)
	assert.NoError(t, err)

	liq := pool.GetNormalizedLiquidity(pair)
	assert.Truef(t, liq.Equal(MAX_NORMALIZED_LIQUIDITY), "normalized liquidity = %s", liq)
}

func TestGetLimitAmountSwapNeverNegativeNeverPanics(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)
	pair, err := pool.ParsePoolPairData(tokenA, tokenB)
	assert.NoError(t, err)

	assert.True(t, pool.GetLimitAmountSwap(pair, SwapExactIn).Sign() >= 0)
	assert.True(t, pool.GetLimitAmountSwap(pair, SwapExactOut).Sign() >= 0)

	// nil pair is absorbed, not raised
	assert.True(t, pool.GetLimitAmountSwap(nil, SwapExactIn).IsZero())

	// broken oracle rate yields exactly zero headroom
	broken := *pair
	broken.FXPriceIn = decimal.Zero
	assert.True(t, pool.GetLimitAmountSwap(&broken, SwapExactIn).IsZero())

	// reserve already past the alpha bound clamps to zero
	over := *pair
	over.BalanceInNum = d("10000000")
	over.BalanceOutNum = d("1")
	limit := pool.GetLimitAmountSwap(&over, SwapExactIn)
	assert.Truef(t, limit.IsZero(), "limit = %s", limit)
}

func TestUpdateTokenBalanceForPool(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)

	shares := d("123456").Shift(18)
	assert.NoError(t, pool.UpdateTokenBalanceForPool(poolAddr, shares))
	assert.True(t, pool.TotalShares.Equal(shares))

	newBalance := d("500000").Shift(18)
	assert.NoError(t, pool.UpdateTokenBalanceForPool(tokenB, newBalance))
	assert.True(t, pool.findToken(tokenB).Balance.Equal(newBalance))

	err = pool.UpdateTokenBalanceForPool("0x00000000000000000000000000000000000000cc", newBalance)
	var structural *StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestForkIsolatesBalances(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)

	fork := pool.Fork()
	assert.NoError(t, fork.UpdateTokenBalanceForPool(tokenA, decimal.Zero))
	assert.True(t, fork.findToken(tokenA).Balance.IsZero())
	assert.True(t, pool.findToken(tokenA).Balance.Equal(d("1000000").Shift(18)))
}

func TestSnapshotRoundTrip(t *testing.T) {
	pool, err := NewFxPoolFromSnapshot(scenarioSnapshot())
	assert.NoError(t, err)

	snap := pool.Snapshot()
	again, err := NewFxPoolFromSnapshot(snap)
	assert.NoError(t, err)

	assert.Equal(t, pool.PoolAddress, again.PoolAddress)
	assert.True(t, again.Tokens[0].Balance.Equal(pool.Tokens[0].Balance))
	assert.True(t, again.Tokens[1].Balance.Equal(pool.Tokens[1].Balance))
	// parameters re-decode to the same replicated values
	assert.True(t, again.Epsilon.Equal(pool.Epsilon))
}
