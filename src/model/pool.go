package model

import "time"

// PoolInfo is the contract's view of the shared pool. Amounts come back as
// decimal strings, matching the contract's i128 fields.
type PoolInfo struct {
	TotalDeposited    string `json:"totalDeposited"`
	TotalParticipants int    `json:"totalParticipants"`
	NextDrawDate      int64  `json:"nextDrawDate"`
	PrizeAmount       string `json:"prizeAmount"`
}

// UserInfo is the contract's view of a single depositor.
type UserInfo struct {
	Deposited       string `json:"deposited"`
	Tickets         int    `json:"tickets"`
	LastDepositTime int64  `json:"lastDepositTime"`
}

// DrawResult is one historical draw as reported by the contract.
type DrawResult struct {
	ID           string   `json:"id"`
	Date         int64    `json:"date"`
	PrizeAmount  string   `json:"prizeAmount"`
	WinnersCount int      `json:"winnersCount"`
	Winners      []string `json:"winners"`
}

// SubmitResult is the outcome of a deposit/withdraw submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PoolSnapshot is a cached, externally-sourced view of the pool combined
// with the caller's derived win probability. Not authoritative state.
type PoolSnapshot struct {
	TotalDeposited    float64   `json:"totalDeposited"`
	TotalParticipants int       `json:"totalParticipants"`
	PrizeAmount       float64   `json:"prizeAmount"`
	NextDrawDate      time.Time `json:"nextDrawDate"`
	UserDeposit       float64   `json:"userDeposit"`
	UserTickets       int       `json:"userTickets"`
	WinProbability    float64   `json:"winProbability"`
	RefreshedAt       time.Time `json:"refreshedAt"`
	Err               string    `json:"error,omitempty"`
}

// RelaySubmission is one audit row for a withdraw relayed on behalf of a user.
type RelaySubmission struct {
	TxID      string    `json:"txId"`
	ToAddress string    `json:"toAddress"`
	Amount    string    `json:"amount"`
	Submitted time.Time `json:"submitted"`
}
