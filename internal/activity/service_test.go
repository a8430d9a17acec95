package activity

import (
	"errors"
	"testing"

	"digipay-backend/internal/models"
	"digipay-backend/internal/orchestrator"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupActivity(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MutationEvent{}))
	return &Service{DB: db}
}

func TestRecorder_PersistsOnlySettled(t *testing.T) {
	svc := setupActivity(t)
	rec := svc.Recorder()

	rec(orchestrator.Event{
		Action: orchestrator.ActionPurchase,
		Target: "1",
		Actor:  "0xabc",
		State:  orchestrator.StateSubmitting,
	})
	rec(orchestrator.Event{
		Action:  orchestrator.ActionPurchase,
		Target:  "1",
		Actor:   "0xabc",
		State:   orchestrator.StateSettled,
		Hash:    "0xhash1",
		Success: true,
	})

	events, err := svc.List(ListParams{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(orchestrator.ActionPurchase), events[0].Action)
	assert.Equal(t, StatusConfirmed, events[0].Status)
	require.NotNil(t, events[0].TxHash)
	assert.Equal(t, "0xhash1", *events[0].TxHash)
}

func TestRecord_FailureKeepsReason(t *testing.T) {
	svc := setupActivity(t)

	require.NoError(t, svc.Record(orchestrator.Event{
		Action:  orchestrator.ActionSell,
		Target:  "2",
		Actor:   "0xabc",
		State:   orchestrator.StateSettled,
		Success: false,
		Err:     errors.New("Not enough shares available"),
	}))

	events, err := svc.List(ListParams{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, StatusFailed, events[0].Status)
	require.NotNil(t, events[0].Reason)
	assert.Equal(t, "Not enough shares available", *events[0].Reason)
	assert.Nil(t, events[0].TxHash)
}

func TestList_Filters(t *testing.T) {
	svc := setupActivity(t)
	for _, ev := range []orchestrator.Event{
		{Action: orchestrator.ActionPurchase, Target: "1", Actor: "0xaaa", State: orchestrator.StateSettled, Success: true},
		{Action: orchestrator.ActionSell, Target: "2", Actor: "0xbbb", State: orchestrator.StateSettled, Success: true},
		{Action: orchestrator.ActionPurchase, Target: "1", Actor: "0xbbb", State: orchestrator.StateSettled, Success: true},
	} {
		require.NoError(t, svc.Record(ev))
	}

	byActor, err := svc.List(ListParams{Actor: "0xbbb"})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	byTarget, err := svc.List(ListParams{Target: "1"})
	require.NoError(t, err)
	assert.Len(t, byTarget, 2)
}
