package fx_pool_simulator

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// Chainlink aggregator AnswerUpdated(int256 indexed current, uint256 indexed roundId, uint256 updatedAt)
var TOPIC_ANSWER_UPDATED = common.HexToHash("0x0559884fd3a460db3073b7fc896cc77986f16e378210ded43186175bf646fc5f")

var (
	int256abi, _  = abi.NewType("int256", "", nil)
	uint256abi, _ = abi.NewType("uint256", "", nil)
)

type OracleAnswerUpdatedEvent struct {
	RawEvent  *types.Log      `json:"raw_event"`
	Feed      string          `json:"feed"`
	Current   decimal.Decimal `json:"current"`
	RoundId   decimal.Decimal `json:"round_id"`
	UpdatedAt decimal.Decimal `json:"updated_at"`
}

func parseAnswerUpdatedEvent(log *types.Log) (*OracleAnswerUpdatedEvent, error) {
	event := log
	if len(event.Topics) != 3 {
		return nil, fmt.Errorf("topic not match,expect %d, got %d", 3, len(event.Topics))
	}
	current, ok := abi.ReadInteger(int256abi, event.Topics[1].Bytes()).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse answer err current not a int, tx: %s", event.TxHash)
	}
	roundId, ok := abi.ReadInteger(uint256abi, event.Topics[2].Bytes()).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse answer err roundId not a int, tx: %s", event.TxHash)
	}
	if len(event.Data) < 32 {
		return nil, fmt.Errorf("answer data too short, got %d bytes, tx: %s", len(event.Data), event.TxHash)
	}
	updatedAt, ok := abi.ReadInteger(uint256abi, event.Data[0:32]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse answer err updatedAt not a int, tx: %s", event.TxHash)
	}

	parsed := &OracleAnswerUpdatedEvent{
		RawEvent:  log,
		Feed:      log.Address.String(),
		Current:   decimal.NewFromBigInt(current, 0),
		RoundId:   decimal.NewFromBigInt(roundId, 0),
		UpdatedAt: decimal.NewFromBigInt(updatedAt, 0),
	}
	if parsed.Current.Sign() <= 0 {
		return nil, fmt.Errorf("oracle answer is not positive: %s, tx: %s", parsed.Current, log.TxHash)
	}
	return parsed, nil
}
