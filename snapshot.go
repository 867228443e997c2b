package fx_pool_simulator

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenSnapshot is the upstream wire form of a pool member: balance as a
// decimal string in the token's own scale, oracle fields optional.
type TokenSnapshot struct {
	Address          string `json:"address"`
	Balance          string `json:"balance"`
	Decimals         int    `json:"decimals"`
	LatestFXPrice    string `json:"latest_fx_price,omitempty"`
	FXOracleDecimals *int   `json:"fx_oracle_decimals,omitempty"`
}

type TokenList []TokenSnapshot

func (TokenList) GormDataType() string {
	return "LONGTEXT"
}

func (l *TokenList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal TokenList value:", value))
	}
}

func (l TokenList) Value() (driver.Value, error) {
	bs, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

// PoolSnapshot is one upstream observation of a pool, persisted as-is so the
// simulator can restart without refetching. Curve parameters stay strings
// here; decoding happens once in NewFxPoolFromSnapshot.
type PoolSnapshot struct {
	Id          string `gorm:"primaryKey"`
	Address     string `gorm:"index"`
	SwapFee     string
	TotalShares string

	Alpha   string
	Beta    string
	Lambda  string
	Delta   string
	Epsilon string

	Tokens    TokenList `gorm:"type:LONGTEXT"`
	Timestamp time.Time
}

// Snapshot converts the pool back to its wire form, balances reformatted into
// each token's own decimal scale.
func (p *FxPool) Snapshot() *PoolSnapshot {
	snap := &PoolSnapshot{
		Id:          p.Id,
		Address:     p.PoolAddress,
		SwapFee:     p.SwapFee.String(),
		TotalShares: p.TotalShares.String(),
		Alpha:       p.Alpha.String(),
		Beta:        p.Beta.String(),
		Lambda:      p.Lambda.String(),
		Delta:       p.Delta.String(),
		Epsilon:     p.Epsilon.String(),
		Timestamp:   time.Now(),
	}
	for _, t := range p.Tokens {
		snap.Tokens = append(snap.Tokens, TokenSnapshot{
			Address:          t.Address,
			Balance:          t.Balance.Shift(int32(-t.Decimals)).String(),
			Decimals:         t.Decimals,
			LatestFXPrice:    t.LatestFXPrice,
			FXOracleDecimals: t.FXOracleDecimals,
		})
	}
	return snap
}

func saveSnapshot(db *gorm.DB, snap *PoolSnapshot) error {
	if snap.Id == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		snap.Id = id.String()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	return db.Save(snap).Error
}

func loadSnapshots(db *gorm.DB) ([]*PoolSnapshot, error) {
	var snaps []*PoolSnapshot
	if err := db.Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}
