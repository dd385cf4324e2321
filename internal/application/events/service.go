package events

import (
	"context"

	"deedbook-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// GetRecordEvents returns the full audit trail of one record, oldest first.
func (s *Service) GetRecordEvents(ctx context.Context, recordID uuid.UUID) ([]domain.RegistryEvent, error) {
	var events []domain.RegistryEvent
	if err := s.DB.WithContext(ctx).Where("record_id = ?", recordID).Order(`"createdAt" ASC`).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetActorEvents returns every transition the identity performed.
func (s *Service) GetActorEvents(ctx context.Context, actorID uuid.UUID) ([]domain.RegistryEvent, error) {
	var events []domain.RegistryEvent
	if err := s.DB.WithContext(ctx).Where("actor_id = ?", actorID).Order(`"createdAt" ASC`).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
