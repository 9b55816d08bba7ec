package postgres

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
	var source string
	if err := row.Scan(&r.UserID, &r.DateKey, &cols.Tasks, &cols.Habits, &r.Submitted, &r.Locked,
		&cols.UnlockHistory, &source, &r.CarriedOverFrom, &r.LastModified); err != nil {
		return models.DayRecord{}, err
	}
	r.Source = models.RecordSource(source)
	if err := codec.Decode(&r, cols); err != nil {
		return models.DayRecord{}, fmt.Errorf("record %s: %w", r.DateKey, err)
	}
	return r, nil
}

func (s *Store) GetRecord(ctx context.Context, userID, dateKey string) (*models.DayRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM day_records WHERE user_id = $1 AND date_key = $2",
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
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7::jsonb, $8, $9, $10)
		ON CONFLICT (user_id, date_key) DO UPDATE SET
			tasks = EXCLUDED.tasks,
			habits = EXCLUDED.habits,
			submitted = EXCLUDED.submitted,
			locked = EXCLUDED.locked,
			unlock_history = EXCLUDED.unlock_history,
			source = EXCLUDED.source,
			carried_over_from = EXCLUDED.carried_over_from,
			last_modified = GREATEST(EXCLUDED.last_modified, day_records.last_modified + 1)`,
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
	// A NULL limit means LIMIT ALL
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+` FROM day_records
		WHERE user_id = $1 AND date_key < $2
		ORDER BY date_key DESC LIMIT $3`,
		userID, beforeDateKey, lim)
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
	var tasks []byte
	tpl := models.Template{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		"SELECT tasks, updated_at FROM templates WHERE user_id = $1", userID,
	).Scan(&tasks, &tpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("get template", err)
	}
	if tpl.Tasks, err = codec.DecodeTasks(tasks); err != nil {
		return nil, fmt.Errorf("template for %s: %w", userID, err)
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
		INSERT INTO templates (user_id, tasks, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (user_id) DO UPDATE SET tasks = EXCLUDED.tasks, updated_at = EXCLUDED.updated_at`,
		tpl.UserID, string(tasks), tpl.UpdatedAt)
	if err != nil {
		return apperrors.Unavailable("save template", err)
	}
	return nil
}
