package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/observability"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

type SessionService interface {
	Save(ctx context.Context, s *dialogue.Session) (*dialogue.Session, error)
	List(ctx context.Context) ([]dialogue.SessionSummary, error)
	Load(ctx context.Context, id string) (*dialogue.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionService struct {
	store store.Store
	log   *logger.Logger
}

func NewSessionService(st store.Store, baseLog *logger.Logger) SessionService {
	return &sessionService{
		store: st,
		log:   baseLog.With("service", "SessionService"),
	}
}

// Save persists the snapshot and returns it with the store-assigned timestamp and version.
func (s *sessionService) Save(ctx context.Context, sess *dialogue.Session) (out *dialogue.Session, err error) {
	const op = "SessionService.Save"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if sess == nil {
		return nil, dialogue.Validation(op, "session is required")
	}
	if err := dialogue.ValidateID(sess.ID); err != nil {
		return nil, err
	}
	if sess.TotalQuestions < 0 {
		return nil, dialogue.Validation(op, "total_questions must not be negative")
	}
	if len(sess.History) > sess.TotalQuestions {
		return nil, dialogue.Validation(op, "history is longer than total_questions")
	}

	out = sess.Clone()
	fillEmpty(out)
	if out.CurrentPhase == "" && len(out.SelectedPhases) > 0 {
		out.CurrentPhase = dialogue.PhaseFor(len(out.History), out.TotalQuestions, out.SelectedPhases)
	}
	if len(out.SelectedPhases) > 0 && !dialogue.HasPhase(out.SelectedPhases, out.CurrentPhase) {
		s.log.WithSession(out.ID).Warn("Current phase is not among selected phases",
			"current_phase", out.CurrentPhase, "selected_phases", out.SelectedPhases)
	}

	if err := s.store.Put(ctx, out); err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	span.SetAttributes(attribute.Int64("session.version", out.Version))
	s.log.WithSession(out.ID).Info("Session saved", "progress", out.Progress(), "version", out.Version)
	return out, nil
}

func (s *sessionService) List(ctx context.Context) (out []dialogue.SessionSummary, err error) {
	const op = "SessionService.List"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	out, err = s.store.List(ctx)
	if err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	span.SetAttributes(attribute.Int("session.count", len(out)))
	return out, nil
}

func (s *sessionService) Load(ctx context.Context, id string) (out *dialogue.Session, err error) {
	const op = "SessionService.Load"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if err := dialogue.ValidateID(id); err != nil {
		return nil, err
	}
	out, err = s.store.Get(ctx, id)
	if err != nil {
		return nil, dialogue.StoreFailure(op, err)
	}
	fillEmpty(out)
	return out, nil
}

func (s *sessionService) Delete(ctx context.Context, id string) (err error) {
	const op = "SessionService.Delete"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if err := dialogue.ValidateID(id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dialogue.StoreFailure(op, err)
	}
	s.log.WithSession(id).Info("Session deleted")
	return nil
}

// fillEmpty replaces nil slices so sessions always encode lists as [] rather than null.
func fillEmpty(s *dialogue.Session) {
	if s.History == nil {
		s.History = []dialogue.Answer{}
	}
	if s.SelectedPhases == nil {
		s.SelectedPhases = []string{}
	}
}
