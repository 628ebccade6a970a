package logstore

import (
	"context"
	"fmt"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/schema"
)

// Append upserts entries by logId in a single transaction. Appending an
// entry whose logId already exists replaces the stored row.
func (s *Store) Append(ctx context.Context, entries ...chatlog.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		vals, err := schema.Values(s.schema, chatlog.ToModel(e))
		if err != nil {
			return fmt.Errorf("append log %d: %w", e.LogID, err)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("append log %d: %w", e.LogID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}

	s.logger.Debug("appended chat logs", "path", s.path, "count", len(entries))
	return nil
}

// UpdatePartial writes the fields recorded in patch to the row with
// logID. It reports false when no row matched or the patch is empty.
func (s *Store) UpdatePartial(ctx context.Context, logID int64, patch *chatlog.Patch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}

	u, err := schema.Updates(s.schema, patch.Model())
	if err != nil {
		return false, fmt.Errorf("update log %d: %w", logID, err)
	}
	if u.Empty() {
		return false, nil
	}

	args := append(u.Args(), logID)
	res, err := s.db.ExecContext(ctx, "UPDATE chats SET "+u.Placeholders+" WHERE logId = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update log %d: %w", logID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update log %d: %w", logID, err)
	}
	return n > 0, nil
}

// Remove deletes the row with logID and reports whether it existed.
func (s *Store) Remove(ctx context.Context, logID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE logId = ?", logID)
	if err != nil {
		return false, fmt.Errorf("remove log %d: %w", logID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove log %d: %w", logID, err)
	}
	return n > 0, nil
}
