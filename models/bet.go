package models

import (
	"time"
)

// BetDirection is the side a bettor takes on a commitment
type BetDirection string

const (
	BetDirectionWillComplete BetDirection = "will_complete"
	BetDirectionWillFail     BetDirection = "will_fail"
)

// IsValid checks the direction against the closed set of legal values
func (d BetDirection) IsValid() bool {
	return d == BetDirectionWillComplete || d == BetDirectionWillFail
}

// Bet represents a stake placed on the outcome of a commitment
type Bet struct {
	ID           int64        `db:"id"`
	CommitmentID int64        `db:"commitment_id"`
	BettorID     int64        `db:"bettor_id"`
	Direction    BetDirection `db:"direction"`
	Amount       int64        `db:"amount"`
	Resolved     bool         `db:"resolved"`
	Payout       *int64       `db:"payout"`
	CreatedAt    time.Time    `db:"created_at"`
}

// Wins reports whether this bet's direction matches the commitment outcome.
// An expired commitment settles the same way as a failed one.
func (b *Bet) Wins(outcome CommitmentStatus) bool {
	switch outcome {
	case CommitmentStatusCompleted:
		return b.Direction == BetDirectionWillComplete
	case CommitmentStatusFailed, CommitmentStatusExpired:
		return b.Direction == BetDirectionWillFail
	}
	return false
}

// BetPayout is a computed settlement entry for a single bet
type BetPayout struct {
	Bet    *Bet
	Payout int64
	Won    bool
}

// SettlementResult summarizes a completed settlement
type SettlementResult struct {
	Commitment       *Commitment
	Payouts          []BetPayout
	Pot              int64
	TotalWinnerStake int64
	WinnerCount      int
	LoserCount       int
}
