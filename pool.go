package fx_pool_simulator

import (
	"strings"

	"github.com/shopspring/decimal"
)

type SwapTypes int

const (
	SwapExactIn SwapTypes = iota
	SwapExactOut
)

// PoolToken is a pool member. Balance is the only field mutated after
// construction; balance and decimals always travel together so a token's
// scale is never mixed with another's.
type PoolToken struct {
	Address  string
	Balance  decimal.Decimal // raw base units
	Decimals int

	// oracle quote; empty price or nil decimals means the oracle has not
	// reported and the token cannot be quoted against
	LatestFXPrice    string
	FXOracleDecimals *int
}

func (t *PoolToken) oracle() (decimal.Decimal, int, error) {
	if t.LatestFXPrice == "" {
		return decimal.Zero, 0, structuralf("token %s has no oracle price", t.Address)
	}
	if t.FXOracleDecimals == nil {
		return decimal.Zero, 0, structuralf("token %s has no oracle decimals", t.Address)
	}
	price, err := decimal.NewFromString(t.LatestFXPrice)
	if err != nil {
		return decimal.Zero, 0, structuralf("token %s oracle price %q: %s", t.Address, t.LatestFXPrice, err)
	}
	return price, *t.FXOracleDecimals, nil
}

// FxPool is one oracle-anchored curve pool. Curve parameters are decoded once
// through the 64.64 replication and immutable afterwards. Reads need no lock;
// the host serializes writes or swaps in replacement snapshots atomically.
type FxPool struct {
	Id          string
	PoolAddress string
	SwapFee     decimal.Decimal
	TotalShares decimal.Decimal
	Tokens      []*PoolToken

	Alpha   decimal.Decimal
	Beta    decimal.Decimal
	Lambda  decimal.Decimal
	Delta   decimal.Decimal
	Epsilon decimal.Decimal
}

// FxPoolPairData is derived per query and immutable once built; it is never
// shared across queries. Balances are held in numeraire terms since every
// curve operation starts there.
type FxPoolPairData struct {
	TokenIn  string
	TokenOut string

	DecimalsIn  int
	DecimalsOut int

	FXPriceIn         decimal.Decimal
	FXPriceOut        decimal.Decimal
	OracleDecimalsIn  int
	OracleDecimalsOut int

	BalanceInNum  decimal.Decimal
	BalanceOutNum decimal.Decimal

	Alpha   decimal.Decimal
	Beta    decimal.Decimal
	Lambda  decimal.Decimal
	Delta   decimal.Decimal
	Epsilon decimal.Decimal
}

// NewFxPoolFromSnapshot decodes an upstream pool snapshot into a quotable
// pool. Every curve parameter must be present; each runs through the fixed
// point replication so downstream math sees what the contract stored, not
// what the subgraph printed.
func NewFxPoolFromSnapshot(snapshot *PoolSnapshot) (*FxPool, error) {
	params := map[string]string{
		"alpha":   snapshot.Alpha,
		"beta":    snapshot.Beta,
		"lambda":  snapshot.Lambda,
		"delta":   snapshot.Delta,
		"epsilon": snapshot.Epsilon,
	}
	decoded := map[string]decimal.Decimal{}
	for name, raw := range params {
		if raw == "" {
			return nil, structuralf("pool %s missing curve parameter %s", snapshot.Address, name)
		}
		d, err := ParseFixedCurveParam(raw)
		if err != nil {
			return nil, structuralf("pool %s curve parameter %s=%q: %s", snapshot.Address, name, raw, err)
		}
		decoded[name] = d
	}

	swapFee, err := decimal.NewFromString(orZero(snapshot.SwapFee))
	if err != nil {
		return nil, structuralf("pool %s swap fee %q: %s", snapshot.Address, snapshot.SwapFee, err)
	}
	totalShares, err := decimal.NewFromString(orZero(snapshot.TotalShares))
	if err != nil {
		return nil, structuralf("pool %s total shares %q: %s", snapshot.Address, snapshot.TotalShares, err)
	}

	pool := &FxPool{
		Id:          snapshot.Id,
		PoolAddress: snapshot.Address,
		SwapFee:     swapFee,
		TotalShares: totalShares,
		Alpha:       decoded["alpha"],
		Beta:        decoded["beta"],
		Lambda:      decoded["lambda"],
		Delta:       decoded["delta"],
		Epsilon:     decoded["epsilon"],
	}
	for _, t := range snapshot.Tokens {
		balance, err := decimal.NewFromString(orZero(t.Balance))
		if err != nil {
			return nil, structuralf("token %s balance %q: %s", t.Address, t.Balance, err)
		}
		pool.Tokens = append(pool.Tokens, &PoolToken{
			Address:          t.Address,
			Balance:          balance.Shift(int32(t.Decimals)).Truncate(0),
			Decimals:         t.Decimals,
			LatestFXPrice:    t.LatestFXPrice,
			FXOracleDecimals: t.FXOracleDecimals,
		})
	}
	return pool, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func (p *FxPool) findToken(address string) *PoolToken {
	for _, t := range p.Tokens {
		if strings.EqualFold(t.Address, address) {
			return t
		}
	}
	return nil
}

// ParsePoolPairData validates the requested pair against the pool and derives
// the transient pair view all quote calls operate on. Structural errors here
// are deliberate: the caller must not treat an ineligible pair as a zero
// quote.
func (p *FxPool) ParsePoolPairData(tokenIn, tokenOut string) (*FxPoolPairData, error) {
	if strings.EqualFold(tokenIn, tokenOut) {
		return nil, structuralf("pool %s cannot swap %s against itself", p.PoolAddress, tokenIn)
	}
	in := p.findToken(tokenIn)
	if in == nil {
		return nil, structuralf("pool %s has no token %s", p.PoolAddress, tokenIn)
	}
	out := p.findToken(tokenOut)
	if out == nil {
		return nil, structuralf("pool %s has no token %s", p.PoolAddress, tokenOut)
	}
	priceIn, oracleDecimalsIn, err := in.oracle()
	if err != nil {
		return nil, err
	}
	priceOut, oracleDecimalsOut, err := out.oracle()
	if err != nil {
		return nil, err
	}

	return &FxPoolPairData{
		TokenIn:           in.Address,
		TokenOut:          out.Address,
		DecimalsIn:        in.Decimals,
		DecimalsOut:       out.Decimals,
		FXPriceIn:         priceIn,
		FXPriceOut:        priceOut,
		OracleDecimalsIn:  oracleDecimalsIn,
		OracleDecimalsOut: oracleDecimalsOut,
		BalanceInNum:      viewNumeraireAmount(in.Balance, in.Decimals, priceIn, oracleDecimalsIn),
		BalanceOutNum:     viewNumeraireAmount(out.Balance, out.Decimals, priceOut, oracleDecimalsOut),
		Alpha:             p.Alpha,
		Beta:              p.Beta,
		Lambda:            p.Lambda,
		Delta:             p.Delta,
		Epsilon:           p.Epsilon,
	}, nil
}

// quoteBoundary maps curve-domain failures to the zero sentinel. Zero means
// "not computable, try another pool", not a genuine zero-value trade. Only
// classified math errors may be absorbed here; anything else escaping the
// solver is a programming error and must not masquerade as a zero quote.
func quoteBoundary(amount decimal.Decimal, err error) decimal.Decimal {
	if err == nil {
		return amount
	}
	if IsMathError(err) {
		return decimal.Zero
	}
	panic(err)
}

// ExactTokenInForTokenOut quotes the tokenOut amount produced by amountIn raw
// tokenIn, truncated to integer base units the way the contract pays out.
func (p *FxPool) ExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal {
	out, err := exactTokenInForTokenOut(pair, amountIn)
	return quoteBoundary(out.Floor(), err)
}

// TokenInForExactTokenOut quotes the tokenIn amount required for amountOut raw
// tokenOut, rounded up to integer base units in the pool's favor.
func (p *FxPool) TokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal {
	in, err := tokenInForExactTokenOut(pair, amountOut)
	return quoteBoundary(in.Ceil(), err)
}

func (p *FxPool) SpotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal {
	s, err := spotPriceAfterSwapExactTokenInForTokenOut(pair, amountIn)
	return quoteBoundary(s, err)
}

func (p *FxPool) SpotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal {
	s, err := spotPriceAfterSwapTokenInForExactTokenOut(pair, amountOut)
	return quoteBoundary(s, err)
}

func (p *FxPool) DerivativeSpotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal {
	d, err := derivativeSpotPriceAfterSwapExactTokenInForTokenOut(pair, amountIn)
	return quoteBoundary(d, err)
}

func (p *FxPool) DerivativeSpotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal {
	d, err := derivativeSpotPriceAfterSwapTokenInForExactTokenOut(pair, amountOut)
	return quoteBoundary(d, err)
}

func (p *FxPool) GetNormalizedLiquidity(pair *FxPoolPairData) decimal.Decimal {
	liq, err := normalizedLiquidity(pair)
	return quoteBoundary(liq, err)
}

// UpdateTokenBalanceForPool rewrites a member token's balance, or the pool's
// total share supply when address is the pool's own. Not synchronized; the
// host is the single writer.
func (p *FxPool) UpdateTokenBalanceForPool(address string, newBalance decimal.Decimal) error {
	if strings.EqualFold(address, p.PoolAddress) {
		p.TotalShares = newBalance
		return nil
	}
	token := p.findToken(address)
	if token == nil {
		return structuralf("pool %s has no token or pool address %s", p.PoolAddress, address)
	}
	token.Balance = newBalance
	return nil
}

// Fork deep-copies the pool so a route search can run what-if balance updates
// without touching the shared snapshot.
func (p *FxPool) Fork() *FxPool {
	clone := *p
	clone.Tokens = make([]*PoolToken, len(p.Tokens))
	for i, t := range p.Tokens {
		tc := *t
		if t.FXOracleDecimals != nil {
			d := *t.FXOracleDecimals
			tc.FXOracleDecimals = &d
		}
		clone.Tokens[i] = &tc
	}
	return &clone
}
