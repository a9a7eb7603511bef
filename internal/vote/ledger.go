package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store"
)

// ErrInvalidValue is returned for any vote value other than +1 or -1.
var ErrInvalidValue = errors.New("vote value must be +1 or -1")

// Ledger is the only writer of score columns. It keeps at most one vote
// record per (voter, target) pair and guarantees the target's score equals
// the sum of its current records.
type Ledger struct {
	store store.VoteStore
}

func NewLedger(s store.VoteStore) *Ledger {
	return &Ledger{store: s}
}

// Cast records a voter's vote on a target and returns the authoritative
// post-update score, read back inside the same atomic unit.
//
//   - no prior record: insert it and apply value to the score
//   - prior record with the same value: no-op, current score returned
//   - prior record with the opposite value: replace it and apply 2*value,
//     removing the old vote and adding the new one in a single delta
//
// Retrying a failed Cast is only safe with the identical value; a blind
// retry of a reversal would double-apply.
func (l *Ledger) Cast(ctx context.Context, voterID, targetID uuid.UUID, kind models.TargetKind, value int) (int, error) {
	if value != 1 && value != -1 {
		return 0, ErrInvalidValue
	}

	var score int
	err := l.store.CastVote(ctx, targetID, kind, func(tx store.VoteTx) error {
		existing, err := tx.Vote(voterID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			record := models.Vote{
				VoterID:    voterID,
				TargetID:   targetID,
				TargetKind: kind,
				Value:      value,
				CreatedAt:  time.Now().UTC(),
			}
			if err := tx.PutVote(record); err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
			score, err = tx.AddScore(value)
			return err
		case err != nil:
			return fmt.Errorf("read vote: %w", err)
		case existing.Value == value:
			// Re-voting with the same value is a no-op, not a toggle.
			score, err = tx.Score()
			return err
		default:
			existing.Value = value
			if err := tx.PutVote(existing); err != nil {
				return fmt.Errorf("replace vote: %w", err)
			}
			score, err = tx.AddScore(2 * value)
			return err
		}
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}
