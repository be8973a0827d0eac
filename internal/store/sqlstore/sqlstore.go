package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

type sessionRow struct {
	ID             string         `gorm:"column:id;type:varchar(128);primaryKey"`
	Idea           string         `gorm:"column:idea;type:text;not null"`
	TotalQuestions int            `gorm:"column:total_questions;not null"`
	History        datatypes.JSON `gorm:"column:history"`
	CurrentPhase   string         `gorm:"column:current_phase;type:text;not null"`
	SelectedPhases datatypes.JSON `gorm:"column:selected_phases"`
	FinalPrompt    string         `gorm:"column:final_prompt;type:text;not null"`
	Timestamp      time.Time      `gorm:"column:timestamp;not null;index"`
	Version        int64          `gorm:"column:version;not null"`
}

func (sessionRow) TableName() string { return "dialogue_sessions" }

// Store persists sessions in a relational table through gorm.
type Store struct {
	db    *gorm.DB
	clock *store.Clock
	log   *logger.Logger
}

func New(db *gorm.DB, clock *store.Clock, baseLog *logger.Logger) *Store {
	if clock == nil {
		clock = store.NewClock(nil)
	}
	return &Store{
		db:    db,
		clock: clock,
		log:   baseLog.With("store", "SQLStore"),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toRow(s *dialogue.Session) (*sessionRow, error) {
	history := s.History
	if history == nil {
		history = []dialogue.Answer{}
	}
	phases := s.SelectedPhases
	if phases == nil {
		phases = []string{}
	}
	hb, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}
	pb, err := json.Marshal(phases)
	if err != nil {
		return nil, err
	}
	return &sessionRow{
		ID:             s.ID,
		Idea:           s.Idea,
		TotalQuestions: s.TotalQuestions,
		History:        datatypes.JSON(hb),
		CurrentPhase:   s.CurrentPhase,
		SelectedPhases: datatypes.JSON(pb),
		FinalPrompt:    s.FinalPrompt,
		Timestamp:      s.Timestamp,
		Version:        s.Version,
	}, nil
}

func fromRow(r *sessionRow) (*dialogue.Session, error) {
	s := &dialogue.Session{
		ID:             r.ID,
		Idea:           r.Idea,
		TotalQuestions: r.TotalQuestions,
		History:        []dialogue.Answer{},
		CurrentPhase:   r.CurrentPhase,
		SelectedPhases: []string{},
		FinalPrompt:    r.FinalPrompt,
		Timestamp:      r.Timestamp.UTC(),
		Version:        r.Version,
	}
	if len(r.History) > 0 {
		if err := json.Unmarshal(r.History, &s.History); err != nil {
			return nil, fmt.Errorf("decode history of %q: %w", r.ID, err)
		}
	}
	if len(r.SelectedPhases) > 0 {
		if err := json.Unmarshal(r.SelectedPhases, &s.SelectedPhases); err != nil {
			return nil, fmt.Errorf("decode selected_phases of %q: %w", r.ID, err)
		}
	}
	if s.History == nil {
		s.History = []dialogue.Answer{}
	}
	if s.SelectedPhases == nil {
		s.SelectedPhases = []string{}
	}
	return s, nil
}

func (s *Store) Put(ctx context.Context, sess *dialogue.Session) error {
	const op = "sqlstore.Put"
	var written *dialogue.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&sessionRow{}).Select("version", "timestamp").Where("id = ?", sess.ID)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var cur sessionRow
		res := q.Limit(1).Find(&cur)
		if res.Error != nil {
			return res.Error
		}
		exists := res.RowsAffected > 0
		if exists {
			s.clock.Observe(cur.Timestamp)
		}

		next, err := store.NextVersion(op, sess.ID, sess.Version, cur.Version, exists)
		if err != nil {
			return err
		}

		out := sess.Clone()
		out.Version = next
		out.Timestamp = s.clock.Stamp()
		row, err := toRow(out)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(row).Error; err != nil {
			return err
		}
		written = out
		return nil
	})
	if err != nil {
		return mapError(op, sess.ID, err)
	}
	sess.Version = written.Version
	sess.Timestamp = written.Timestamp
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	const op = "sqlstore.Get"
	var row sessionRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, mapError(op, id, err)
	}
	sess, err := fromRow(&row)
	if err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	return sess, nil
}

// List returns summaries newest first. Rows whose JSON columns cannot be decoded are skipped.
func (s *Store) List(ctx context.Context) ([]dialogue.SessionSummary, error) {
	const op = "sqlstore.List"
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Select("id", "idea", "total_questions", "history", "timestamp").
		Order("timestamp DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(op, "", err)
	}
	out := make([]dialogue.SessionSummary, 0, len(rows))
	for i := range rows {
		sess, err := fromRow(&rows[i])
		if err != nil {
			s.log.Warn("Skipping corrupt session record", "key", rows[i].ID, "error", err)
			continue
		}
		out = append(out, sess.Summary())
	}
	store.SortSummaries(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "sqlstore.Delete"
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionRow{})
	if res.Error != nil {
		return mapError(op, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return dialogue.NotFound(op, id)
	}
	return nil
}

// mapError maps gorm and driver failures onto dialogue error codes.
func mapError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if dialogue.CodeOf(err) != "" {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dialogue.NotFound(op, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505", "40001", "40P01":
			// unique_violation / serialization_failure / deadlock_detected
			return dialogue.NewError(dialogue.CodeConflict, op, "concurrent write to session "+id, err)
		}
	}
	return dialogue.StoreFailure(op, err)
}
