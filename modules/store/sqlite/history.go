package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/chatloop-ai/chatloop/internal/history"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// historyStore implements history.Store backed by SQLite.
type historyStore struct {
	db *sql.DB
}

// Get implements history.Store.
func (h *historyStore) Get(ctx context.Context, channelID, timestamp string) (chat.Message, error) {
	msg := chat.Message{ChannelID: channelID, Timestamp: timestamp}
	err := h.db.QueryRowContext(ctx, `
		SELECT author_id, text, estimated_tokens
		FROM messages
		WHERE channel_id = ? AND ts = ?`,
		channelID, timestamp,
	).Scan(&msg.AuthorID, &msg.Text, &msg.EstimatedTokens)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Message{}, history.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("sqlite: get message %s/%s: %w", channelID, timestamp, err)
	}
	return msg, nil
}

// Put implements history.Store. Replaces any prior record with the same
// (channel, timestamp) key; last writer wins.
func (h *historyStore) Put(ctx context.Context, msg chat.Message) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO messages (channel_id, ts, ts_num, author_id, text, estimated_tokens)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, ts) DO UPDATE SET
			author_id        = excluded.author_id,
			text             = excluded.text,
			estimated_tokens = excluded.estimated_tokens`,
		msg.ChannelID, msg.Timestamp, timestampOrder(msg.Timestamp),
		msg.AuthorID, msg.Text, msg.EstimatedTokens,
	)
	if err != nil {
		return fmt.Errorf("sqlite: put message %s/%s: %w", msg.ChannelID, msg.Timestamp, err)
	}
	return nil
}

// Recent implements history.Store, newest first.
func (h *historyStore) Recent(ctx context.Context, channelID string, n int) ([]chat.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT ts, author_id, text, estimated_tokens
		FROM messages
		WHERE channel_id = ?
		ORDER BY ts_num DESC, ts DESC
		LIMIT ?`,
		channelID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent %s: %w", channelID, err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []chat.Message
	for rows.Next() {
		msg := chat.Message{ChannelID: channelID}
		if err := rows.Scan(&msg.Timestamp, &msg.AuthorID, &msg.Text, &msg.EstimatedTokens); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: recent rows: %w", err)
	}
	return msgs, nil
}

// timestampOrder parses a platform timestamp ("seconds.fraction") into a
// numeric sort key. Unparseable timestamps sort first, before real ones.
func timestampOrder(ts string) float64 {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return f
}
