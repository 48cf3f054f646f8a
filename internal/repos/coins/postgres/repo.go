package coins

import (
	"database/sql"

	"github.com/fastprodman/vendingmachine/internal/repos/coins"
)

var _ coins.Coins = (*coinsRepo)(nil)

type coinsRepo struct{ db *sql.DB }

func New(db *sql.DB) *coinsRepo {
	return &coinsRepo{db: db}
}
