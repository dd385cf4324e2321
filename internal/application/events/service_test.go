package events

import (
	"context"
	"testing"

	"deedbook-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEvents(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.RegistryEvent{}))
	return &Service{DB: db}, db
}

func TestGetRecordEvents_OrderedOldestFirst(t *testing.T) {
	svc, db := setupEvents(t)
	recordID := uuid.New()
	actor := uuid.New()

	for _, et := range []string{domain.EventCreated, domain.EventListed, domain.EventSold} {
		require.NoError(t, db.Create(&domain.RegistryEvent{
			RecordID:  recordID,
			EventType: et,
			ActorID:   &actor,
		}).Error)
	}
	require.NoError(t, db.Create(&domain.RegistryEvent{
		RecordID:  uuid.New(),
		EventType: domain.EventCreated,
	}).Error)

	got, err := svc.GetRecordEvents(context.Background(), recordID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.EventCreated, got[0].EventType)
	assert.Equal(t, domain.EventSold, got[2].EventType)
}

func TestGetActorEvents(t *testing.T) {
	svc, db := setupEvents(t)
	actor := uuid.New()
	other := uuid.New()

	require.NoError(t, db.Create(&domain.RegistryEvent{RecordID: uuid.New(), EventType: domain.EventCreated, ActorID: &actor}).Error)
	require.NoError(t, db.Create(&domain.RegistryEvent{RecordID: uuid.New(), EventType: domain.EventListed, ActorID: &other}).Error)

	got, err := svc.GetActorEvents(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventCreated, got[0].EventType)
}
