package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage/codec"
)

const recordColumns = `user_id, date_key, tasks, habits, submitted, locked,
	unlock_history, source, carried_over_from, last_modified`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.DayRecord, error) {
	var r models.DayRecord
	var cols codec.Columns
	var tasks, habits, history string
	var source string
	if err := row.Scan(&r.UserID, &r.DateKey, &tasks, &habits, &r.Submitted, &r.Locked,
		&history, &source, &r.CarriedOverFrom, &r.LastModified); err != nil {
		return models.DayRecord{}, err
	}
	r.Source = models.RecordSource(source)
	cols.Tasks, cols.Habits, cols.UnlockHistory = []byte(tasks), []byte(habits), []byte(history)
	if err := codec.Decode(&r, cols); err != nil {
		return models.DayRecord{}, fmt.Errorf("record %s: %w", r.DateKey, err)
	}
	return r, nil
}

func (s *Store) GetRecord(ctx context.Context, userID, dateKey string) (*models.DayRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM day_records WHERE user_id = ? AND date_key = ?",
		userID, dateKey)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("get record", err)
	}
	return &r, nil
}

// UpsertRecord writes a record keyed by (user, date). last_modified only
// ever moves forward.
func (s *Store) UpsertRecord(ctx context.Context, record models.DayRecord) error {
	cols, err := codec.Encode(record)
	if err != nil {
		return err
	}
	if record.LastModified == 0 {
		record.LastModified = time.Now().UnixMilli()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO day_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date_key) DO UPDATE SET
			tasks = excluded.tasks,
			habits = excluded.habits,
			submitted = excluded.submitted,
			locked = excluded.locked,
			unlock_history = excluded.unlock_history,
			source = excluded.source,
			carried_over_from = excluded.carried_over_from,
			last_modified = MAX(excluded.last_modified, day_records.last_modified + 1)`,
		record.UserID, record.DateKey, string(cols.Tasks), string(cols.Habits),
		record.Submitted, record.Locked, string(cols.UnlockHistory),
		string(record.Source), record.CarriedOverFrom, record.LastModified,
	)
	if err != nil {
		return apperrors.Unavailable("upsert record", err)
	}
	return nil
}

func (s *Store) QueryMostRecent(ctx context.Context, userID, beforeDateKey string, limit int) ([]models.DayRecord, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+` FROM day_records
		WHERE user_id = ? AND date_key < ?
		ORDER BY date_key DESC LIMIT ?`,
		userID, beforeDateKey, limit)
	if err != nil {
		return nil, apperrors.Unavailable("query records", err)
	}
	defer rows.Close()

	records := []models.DayRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.Unavailable("query records", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Unavailable("query records", err)
	}
	return records, nil
}

func (s *Store) GetTemplate(ctx context.Context, userID string) (*models.Template, error) {
	var tasks, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT tasks, updated_at FROM templates WHERE user_id = ?", userID,
	).Scan(&tasks, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("get template", err)
	}

	tpl := models.Template{UserID: userID}
	if tpl.Tasks, err = codec.DecodeTasks([]byte(tasks)); err != nil {
		return nil, fmt.Errorf("template for %s: %w", userID, err)
	}
	if tpl.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("template for %s: bad updated_at: %w", userID, err)
	}
	return &tpl, nil
}

func (s *Store) SaveTemplate(ctx context.Context, tpl models.Template) error {
	tasks, err := codec.EncodeTasks(tpl.Tasks)
	if err != nil {
		return err
	}
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (user_id, tasks, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET tasks = excluded.tasks, updated_at = excluded.updated_at`,
		tpl.UserID, string(tasks), tpl.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return apperrors.Unavailable("save template", err)
	}
	return nil
}
