package services

import (
	"testing"

	"mc-challenge-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCreateDefaultsQuantity(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db)
	challenge := seedChallenge(t, db, "Tasks", 0, 0)
	action := seedAction(t, db, "MINE_BLOCK")

	task, err := svc.Create(challenge.ID, TaskInput{ActionID: action.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.Quantity)
	require.NotNil(t, task.Action)
	assert.Equal(t, action.ID, task.Action.ID)
}

func TestTaskCreateValidatesReferences(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db)
	challenge := seedChallenge(t, db, "Tasks", 0, 0)
	action := seedAction(t, db, "MINE_BLOCK")

	_, err := svc.Create("missing", TaskInput{ActionID: action.ID})
	assert.ErrorIs(t, err, models.ErrChallengeNotFound)

	_, err = svc.Create(challenge.ID, TaskInput{ActionID: "missing"})
	assert.ErrorIs(t, err, models.ErrActionNotFound)
}

func TestTaskFindByIDScopedToChallenge(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db)
	action := seedAction(t, db, "MINE_BLOCK")
	first := seedChallenge(t, db, "First", 0, 0)
	second := seedChallenge(t, db, "Second", 0, 0)
	task := seedTask(t, db, first.ID, action.ID, 5, nil)

	found, err := svc.FindByID(first.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, found.ID)

	_, err = svc.FindByID(second.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestTaskUpdate(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db)
	challenge := seedChallenge(t, db, "Update", 0, 0)
	mine := seedAction(t, db, "MINE_BLOCK")
	kill := seedAction(t, db, "KILL_MOBS")
	task := seedTask(t, db, challenge.ID, mine.ID, 5, nil)

	updated, err := svc.Update(challenge.ID, task.ID, TaskInput{
		ActionID:   kill.ID,
		Quantity:   10,
		Parameters: map[string]any{"mob": "creeper"},
	})
	require.NoError(t, err)
	assert.Equal(t, kill.ID, updated.ActionID)
	assert.Equal(t, int64(10), updated.Quantity)
	assert.Equal(t, "creeper", updated.Parameters["mob"])
}

func TestTaskDeleteRemovesProgress(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db)
	notify := NewNotificationService(db)
	challenges := NewChallengeService(db, notify)
	user := seedUser(t, db, models.RolePlayer)
	challenge := seedChallenge(t, db, "Delete", 0, 0)
	action := seedAction(t, db, "MINE_BLOCK")
	task := seedTask(t, db, challenge.ID, action.ID, 5, nil)
	_, err := challenges.Join(user.ID, challenge.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(challenge.ID, task.ID))

	var count int64
	require.NoError(t, db.Model(&models.TaskProgress{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Delete(challenge.ID, task.ID), models.ErrTaskNotFound)
}
