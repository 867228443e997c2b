package fx_pool_simulator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Chainlink aggregator surface the simulator reads prices from.
var AGGREGATOR_ABI = `[{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}]`

// QuotablePool is the capability set the route planner dispatches across all
// pool kinds. This engine implements exactly one variant, the oracle-anchored
// FX curve.
type QuotablePool interface {
	ParsePoolPairData(tokenIn, tokenOut string) (*FxPoolPairData, error)
	ExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal
	TokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal
	SpotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal
	SpotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal
	DerivativeSpotPriceAfterSwapExactTokenInForTokenOut(pair *FxPoolPairData, amountIn decimal.Decimal) decimal.Decimal
	DerivativeSpotPriceAfterSwapTokenInForExactTokenOut(pair *FxPoolPairData, amountOut decimal.Decimal) decimal.Decimal
	GetNormalizedLiquidity(pair *FxPoolPairData) decimal.Decimal
	GetLimitAmountSwap(pair *FxPoolPairData, swapType SwapTypes) decimal.Decimal
	UpdateTokenBalanceForPool(address string, newBalance decimal.Decimal) error
}

var _ QuotablePool = (*FxPool)(nil)

type feedBinding struct {
	pool  common.Address
	token string
}

// Simulator owns the registered FX pools and keeps their oracle quotes fresh
// between snapshot reloads. Quote computation itself never touches the
// network; everything here is upstream plumbing.
type Simulator struct {
	pools map[common.Address]*FxPool
	feeds map[common.Address]feedBinding
	Abi   abi.ABI
	rpc   *ethclient.Client
	db    *gorm.DB
}

func NewSimulator(dbFile string, rpcURL string) (*Simulator, error) {
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&PoolSnapshot{}); err != nil {
		return nil, err
	}
	a, err := abi.JSON(strings.NewReader(AGGREGATOR_ABI))
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		pools: map[common.Address]*FxPool{},
		feeds: map[common.Address]feedBinding{},
		Abi:   a,
		db:    db,
	}
	if rpcURL != "" {
		client, err := ethclient.Dial(rpcURL)
		if err != nil {
			return nil, err
		}
		s.rpc = client
	}

	snaps, err := loadSnapshots(db)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		pool, err := NewFxPoolFromSnapshot(snap)
		if err != nil {
			logrus.Warnf("skip persisted pool %s: %s", snap.Address, err)
			continue
		}
		s.pools[common.HexToAddress(pool.PoolAddress)] = pool
	}
	logrus.Infof("simulator loaded %d pools from %s", len(s.pools), dbFile)
	return s, nil
}

// RegisterPool decodes a fresh upstream snapshot, replacing any pool already
// registered at the same address, and persists the snapshot.
func (s *Simulator) RegisterPool(snap *PoolSnapshot) (*FxPool, error) {
	pool, err := NewFxPoolFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if err := saveSnapshot(s.db, snap); err != nil {
		return nil, err
	}
	s.pools[common.HexToAddress(pool.PoolAddress)] = pool
	logrus.Infof("registered pool %s (%d tokens)", pool.PoolAddress, len(pool.Tokens))
	return pool, nil
}

func (s *Simulator) Pool(addr common.Address) (*FxPool, error) {
	pool, ok := s.pools[addr]
	if !ok {
		return nil, fmt.Errorf("pool not exists %s", addr)
	}
	return pool, nil
}

// ForkPool hands out a deep copy for what-if simulation.
func (s *Simulator) ForkPool(addr common.Address) (*FxPool, error) {
	pool, err := s.Pool(addr)
	if err != nil {
		return nil, err
	}
	return pool.Fork(), nil
}

// BindOracleFeed maps an aggregator address onto the (pool, token) whose FX
// quote it drives.
func (s *Simulator) BindOracleFeed(feed common.Address, poolAddr common.Address, token string) error {
	pool, err := s.Pool(poolAddr)
	if err != nil {
		return err
	}
	if pool.findToken(token) == nil {
		return structuralf("pool %s has no token %s", pool.PoolAddress, token)
	}
	s.feeds[feed] = feedBinding{pool: poolAddr, token: token}
	return nil
}

func (s *Simulator) applyAnswer(feed common.Address, price string, oracleDecimals *int) error {
	binding, ok := s.feeds[feed]
	if !ok {
		return fmt.Errorf("feed not bound %s", feed)
	}
	pool, err := s.Pool(binding.pool)
	if err != nil {
		return err
	}
	token := pool.findToken(binding.token)
	if token == nil {
		return structuralf("pool %s has no token %s", pool.PoolAddress, binding.token)
	}
	token.LatestFXPrice = price
	if oracleDecimals != nil {
		token.FXOracleDecimals = oracleDecimals
	}
	return nil
}

// HandleLogs applies AnswerUpdated events from bound feeds; everything else
// is skipped. The answer keeps the feed's existing decimal count.
func (s *Simulator) HandleLogs(logs []types.Log) error {
	for i := range logs {
		log := logs[i]
		if len(log.Topics) == 0 || log.Topics[0] != TOPIC_ANSWER_UPDATED {
			continue
		}
		if _, ok := s.feeds[log.Address]; !ok {
			continue
		}
		answer, err := parseAnswerUpdatedEvent(&log)
		if err != nil {
			logrus.Warnf("failed parse answer event, tx: %s feed: %s err: %s", log.TxHash, log.Address, err)
			continue
		}
		if err := s.applyAnswer(log.Address, answer.Current.String(), nil); err != nil {
			return err
		}
	}
	return nil
}

// SyncOracleRange pulls AnswerUpdated logs for every bound feed over a block
// range and applies them in order.
func (s *Simulator) SyncOracleRange(ctx context.Context, fromBlock, toBlock uint64) error {
	if s.rpc == nil {
		return errors.New("no rpc client")
	}
	if len(s.feeds) == 0 {
		return nil
	}
	addresses := make([]common.Address, 0, len(s.feeds))
	for feed := range s.feeds {
		addresses = append(addresses, feed)
	}
	logs, err := s.rpc.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
		Topics:    [][]common.Hash{{TOPIC_ANSWER_UPDATED}},
	})
	if err != nil {
		return err
	}
	return s.HandleLogs(logs)
}

// RefreshOracle reads latestRoundData and decimals straight off the
// aggregator and applies both to the bound token.
func (s *Simulator) RefreshOracle(ctx context.Context, feed common.Address) error {
	if s.rpc == nil {
		return errors.New("no rpc client")
	}
	data, err := s.Abi.Pack("latestRoundData")
	if err != nil {
		return err
	}
	res, err := s.rpc.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
	if err != nil {
		return err
	}
	round, err := s.Abi.Unpack("latestRoundData", res)
	if err != nil {
		return err
	}
	answer, ok := round[1].(*big.Int)
	if !ok || answer.Sign() <= 0 {
		return fmt.Errorf("feed %s returned unusable answer", feed)
	}

	data, err = s.Abi.Pack("decimals")
	if err != nil {
		return err
	}
	res, err = s.rpc.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
	if err != nil {
		return err
	}
	dec, err := s.Abi.Unpack("decimals", res)
	if err != nil {
		return err
	}
	feedDecimals, ok := dec[0].(uint8)
	if !ok {
		return fmt.Errorf("feed %s returned unusable decimals", feed)
	}
	oracleDecimals := int(feedDecimals)
	return s.applyAnswer(feed, decimal.NewFromBigInt(answer, 0).String(), &oracleDecimals)
}

// FlushPools persists the current in-memory state of every pool.
func (s *Simulator) FlushPools() error {
	for _, pool := range s.pools {
		if err := saveSnapshot(s.db, pool.Snapshot()); err != nil {
			return err
		}
	}
	return nil
}
