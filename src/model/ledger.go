package model

import (
	"math"
	"time"
)

type TxType string
type TxStatus string

// TicketPrice is the pool's fixed exchange rate between the stable asset
// and lottery tickets: one ticket per 5 units deposited.
const TicketPrice = 5

const (
	TxTypeDeposit   TxType = "deposit"
	TxTypeWithdraw  TxType = "withdraw"
	TxTypePrizeWon  TxType = "prize_won"
	TxTypePrizeLost TxType = "prize_lost"
)

const ( // needs to match the persisted blobs, do not rename
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// Transaction is a single balance-affecting event in the session ledger.
// Type and Amount are immutable after creation; only Status and Hash change,
// and only through the store's resolve path.
type Transaction struct {
	ID      string    `json:"id"`
	Type    TxType    `json:"type"`
	Amount  float64   `json:"amount"`
	Date    time.Time `json:"date"`
	Status  TxStatus  `json:"status"`
	Hash    string    `json:"hash,omitempty"`
	Tickets *int      `json:"tickets,omitempty"`
}

// LedgerState is the persisted mirror of a session's financial history.
// Balance, TotalDeposited and TotalTickets are always the fold of the
// confirmed transactions; pending and failed entries contribute nothing.
type LedgerState struct {
	Balance            float64        `json:"balance"`
	TotalDeposited     float64        `json:"totalDeposited"`
	TotalTickets       int            `json:"totalTickets"`
	Transactions       []*Transaction `json:"transactions"`
	LastActivityUpdate time.Time      `json:"lastActivityUpdate"`
}

// WalletSession holds the wallet-extension flags persisted alongside the
// ledger blob under a separate key.
type WalletSession struct {
	Connected bool    `json:"connected"`
	Address   string  `json:"address"`
	Balance   float64 `json:"balance"`
}

func (t TxType) Valid() bool {
	switch t {
	case TxTypeDeposit, TxTypeWithdraw, TxTypePrizeWon, TxTypePrizeLost:
		return true
	}
	return false
}

// Terminal reports whether a status accepts no further transitions.
// Reorg-style reversals are modeled as new compensating transactions
// rather than a confirmed entry flipping to failed.
func (s TxStatus) Terminal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// TicketsFor converts a stable-asset amount into whole tickets.
func TicketsFor(amount float64) int {
	return int(math.Floor(amount / TicketPrice))
}
