package events

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	UserID    string
	EventType string
	Name      string
	Info      *string
	Data      json.RawMessage
}

// Create valida campos requeridos y persiste el evento con timestamps del sistema.
func (s *Service) Create(ctx context.Context, in CreateInput) (Event, error) {
	if strings.TrimSpace(in.UserID) == "" ||
		strings.TrimSpace(in.EventType) == "" ||
		strings.TrimSpace(in.Name) == "" {
		return Event{}, ErrInvalidInput
	}

	data := in.Data
	if len(data) > 0 {
		if !json.Valid(data) {
			return Event{}, ErrInvalidInput
		}
		if string(data) == "null" {
			data = nil
		}
	}

	now := s.now().UTC()
	e := Event{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		EventType: in.EventType,
		Name:      in.Name,
		Info:      in.Info,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Event, error) {
	return s.repo.Find(ctx, filter)
}

// Stream expone la lectura incremental para export y reportes.
func (s *Service) Stream(ctx context.Context, filter Filter) iter.Seq2[Event, error] {
	return s.repo.Stream(ctx, filter)
}
