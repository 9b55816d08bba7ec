// Package docstore keeps day records as JSON documents in a directory
// tree managed by diskv. Keys look like records/<user>/<date>,
// templates/<user> and settings; user ids are base64 encoded so any id
// maps to a single path segment.
package docstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
)

const (
	recordsPrefix   = "records"
	templatesPrefix = "templates"
	settingsKey     = "settings"
)

type Store struct {
	path string
	d    *diskv.Diskv
	mu   sync.Mutex // serializes read-modify-write upserts
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) open() {
	s.d = diskv.New(diskv.Options{
		BasePath:          s.path,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024,
	})
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.path, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if s.d == nil {
		s.open()
	}
	if s.d.Has(settingsKey) {
		return nil
	}
	if err := s.SaveSettings(models.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to save default settings: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.d != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'daybook init' first")
	}
	s.open()
	return nil
}

func (s *Store) Close() error {
	s.d = nil
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) GetSettings() (models.Settings, error) {
	data, err := s.d.Read(settingsKey)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	if err != nil {
		return models.Settings{}, err
	}
	settings := models.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.d.Write(settingsKey, data)
}

func (s *Store) GetRecord(ctx context.Context, userID, dateKey string) (*models.DayRecord, error) {
	rec, err := s.readRecord(recordKey(userID, dateKey))
	if err != nil {
		return nil, apperrors.Unavailable("get record", err)
	}
	return rec, nil
}

func (s *Store) readRecord(key string) (*models.DayRecord, error) {
	data, err := s.d.Read(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := models.NewDayRecord("", "")
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	normalizeSlices(&rec)
	return &rec, nil
}

func (s *Store) UpsertRecord(ctx context.Context, record models.DayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.UserID, record.DateKey)
	existing, err := s.readRecord(key)
	if err != nil {
		return apperrors.Unavailable("upsert record", err)
	}

	if record.LastModified == 0 {
		record.LastModified = time.Now().UnixMilli()
	}
	if existing != nil && record.LastModified <= existing.LastModified {
		record.LastModified = existing.LastModified + 1
	}
	normalizeSlices(&record)

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.d.Write(key, data); err != nil {
		return apperrors.Unavailable("upsert record", err)
	}
	return nil
}

func (s *Store) QueryMostRecent(ctx context.Context, userID, beforeDateKey string, limit int) ([]models.DayRecord, error) {
	prefix := recordsPrefix + "/" + encodeUser(userID) + "/"

	var keys []string
	for key := range s.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if strings.TrimPrefix(key, prefix) < beforeDateKey {
			keys = append(keys, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Unavailable("query records", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	records := make([]models.DayRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.readRecord(key)
		if err != nil {
			return nil, apperrors.Unavailable("query records", err)
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (s *Store) GetTemplate(ctx context.Context, userID string) (*models.Template, error) {
	data, err := s.d.Read(templateKey(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("get template", err)
	}
	var tpl models.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("template for %s: %w", userID, err)
	}
	if tpl.Tasks == nil {
		tpl.Tasks = []models.Task{}
	}
	return &tpl, nil
}

func (s *Store) SaveTemplate(ctx context.Context, tpl models.Template) error {
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = time.Now()
	}
	if tpl.Tasks == nil {
		tpl.Tasks = []models.Task{}
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return err
	}
	if err := s.d.Write(templateKey(tpl.UserID), data); err != nil {
		return apperrors.Unavailable("save template", err)
	}
	return nil
}

func normalizeSlices(r *models.DayRecord) {
	if r.Tasks == nil {
		r.Tasks = []models.Task{}
	}
	if r.Habits == nil {
		r.Habits = []models.Habit{}
	}
	if r.UnlockHistory == nil {
		r.UnlockHistory = []models.UnlockEvent{}
	}
}

func recordKey(userID, dateKey string) string {
	return recordsPrefix + "/" + encodeUser(userID) + "/" + dateKey
}

func templateKey(userID string) string {
	return templatesPrefix + "/" + encodeUser(userID)
}

func encodeUser(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return strings.Join(pk.Path, "/") + "/" + pk.FileName
}
