package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// ListChatIDs returns the chat id of every subscribed bot account. Always a
// fresh read so a fan-out reflects the current subscriber list.
func (r *AccountRepository) ListChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT acc_chat_id FROM ower.account`)
	if err != nil {
		return nil, fmt.Errorf("failed to list account chat ids: %w", err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("failed to scan chat id: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}

	return chatIDs, rows.Err()
}
