package fx_pool_simulator

import "github.com/shopspring/decimal"

var (
	ZERO = decimal.Zero
	ONE  = decimal.NewFromInt(1)
	HALF = decimal.RequireFromString("0.5")

	// fee cap from the CurveMath contract
	CURVEMATH_MAX = decimal.RequireFromString("0.25")
	// largest tolerated utility loss across a swap
	CURVEMATH_MAX_DIFF = decimal.RequireFromString("-0.000001000000000000498")

	CONVERGENCE_TOLERANCE = decimal.New(1, -13)

	// finite-difference step as a fraction of aggregate numeraire liquidity
	SPOT_PRICE_PROBE = decimal.New(1, -8)

	// reported when the zero-amount price derivative vanishes
	MAX_NORMALIZED_LIQUIDITY = decimal.New(1, 13)

	// both assets carry equal weight on this curve
	WEIGHTS = []decimal.Decimal{HALF, HALF}
)

const (
	MAX_TRADE_ITERATIONS = 32

	// fractional digits of a curve parameter that survive contract storage
	CURVE_PARAM_PRECISION = 3
)
