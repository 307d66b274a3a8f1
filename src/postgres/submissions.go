package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// PutSubmission records one relayed withdraw submission. The raw network
// response is kept verbatim for later inspection; replays of the same tx id
// are ignored.
func PutSubmission(ctx context.Context, txID, toAddress, amount string, raw interface{}) error {
	return DoQuery(ctx, func(conn *pgx.Conn) error {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return errors.Wrap(err, "failed to marshal submission receipt to json")
		}
		_, err = conn.Exec(ctx,
			`INSERT into relay_submissions(tx_id, to_address, amount, raw, submitted)
					VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			txID, toAddress, amount, encoded, time.Now().UTC())
		if err != nil {
			return errors.Wrap(err, "failed to insert relay submission")
		}
		return nil
	})
}

// GetRecentSubmissions returns the newest submissions first.
func GetRecentSubmissions(ctx context.Context, limit int) ([]*model.RelaySubmission, error) {
	var out []*model.RelaySubmission
	err := DoQuery(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT tx_id, to_address, amount, submitted FROM relay_submissions
					ORDER BY submitted DESC LIMIT $1`, limit)
		if err != nil {
			return errors.Wrap(err, "failed to query relay submissions")
		}
		defer rows.Close()
		for rows.Next() {
			sub := &model.RelaySubmission{}
			if err := rows.Scan(&sub.TxID, &sub.ToAddress, &sub.Amount, &sub.Submitted); err != nil {
				return errors.Wrap(err, "failed to scan relay submission")
			}
			out = append(out, sub)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
