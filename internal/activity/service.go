package activity

import (
	"encoding/json"

	"digipay-backend/internal/models"
	"digipay-backend/internal/orchestrator"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Service persists settled contract mutations for the activity feed.
type Service struct {
	DB *gorm.DB
}

// Recorder returns an orchestrator subscriber that records every settled
// mutation. Intermediate lifecycle states are not persisted.
func (s *Service) Recorder() orchestrator.Subscriber {
	return func(ev orchestrator.Event) {
		if ev.State != orchestrator.StateSettled {
			return
		}
		if err := s.Record(ev); err != nil {
			log.Error().Err(err).
				Str("action", string(ev.Action)).
				Str("target", ev.Target).
				Msg("failed to record mutation event")
		}
	}
}

// Record writes one settled event row.
func (s *Service) Record(ev orchestrator.Event) error {
	status := StatusConfirmed
	var reason *string
	if !ev.Success {
		status = StatusFailed
		if ev.Err != nil {
			msg := ev.Err.Error()
			reason = &msg
		}
	}
	var hash *string
	if ev.Hash != "" {
		h := string(ev.Hash)
		hash = &h
	}

	data, err := json.Marshal(map[string]interface{}{
		"action": ev.Action,
		"target": ev.Target,
	})
	if err != nil {
		return err
	}

	row := models.MutationEvent{
		Action:    string(ev.Action),
		Target:    ev.Target,
		Actor:     ev.Actor,
		TxHash:    hash,
		Status:    status,
		Reason:    reason,
		EventData: datatypes.JSON(data),
	}
	return s.DB.Create(&row).Error
}

// ListParams filters the activity feed.
type ListParams struct {
	Actor  string
	Target string
	Limit  int
}

// List returns recent events, newest first.
func (s *Service) List(p ListParams) ([]models.MutationEvent, error) {
	limit := p.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.DB.Model(&models.MutationEvent{}).Order("created_at DESC").Limit(limit)
	if p.Actor != "" {
		q = q.Where("actor = ?", p.Actor)
	}
	if p.Target != "" {
		q = q.Where("target = ?", p.Target)
	}
	var out []models.MutationEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
