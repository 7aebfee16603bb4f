package services

import (
	"testing"

	"mc-challenge-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListAndMarkRead(t *testing.T) {
	db := openTestDB(t)
	notify := NewNotificationService(db)
	user := seedUser(t, db, models.RolePlayer)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := notify.ChallengeAcceptedTx(tx, user.ID, "One"); err != nil {
			return err
		}
		return notify.ChallengeCompletedTx(tx, user.ID, "One")
	}))

	unread, err := notify.ListForUser(user.ID, false)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	n, err := notify.MarkRead(unread[0].ID, user.ID)
	require.NoError(t, err)
	assert.True(t, n.Read)

	count, err := notify.CountUnread(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	all, err := notify.ListForUser(user.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	notify := NewNotificationService(db)
	owner := seedUser(t, db, models.RolePlayer)
	other := seedUser(t, db, models.RolePlayer)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return notify.ChallengeAcceptedTx(tx, owner.ID, "Mine")
	}))
	unread, err := notify.ListForUser(owner.ID, false)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	_, err = notify.MarkRead(unread[0].ID, other.ID)
	assert.ErrorIs(t, err, models.ErrNotificationNotFound)

	assert.ErrorIs(t, notify.Delete(unread[0].ID, other.ID), models.ErrNotificationNotFound)
}

func TestMarkAllReadAndDeleteRead(t *testing.T) {
	db := openTestDB(t)
	notify := NewNotificationService(db)
	user := seedUser(t, db, models.RolePlayer)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		for _, title := range []string{"A", "B", "C"} {
			if err := notify.ChallengeAcceptedTx(tx, user.ID, title); err != nil {
				return err
			}
		}
		return nil
	}))

	marked, err := notify.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	deleted, err := notify.DeleteRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	all, err := notify.ListForUser(user.ID, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBroadcastReachesPlayersOnly(t *testing.T) {
	db := openTestDB(t)
	notify := NewNotificationService(db)
	first := seedUser(t, db, models.RolePlayer)
	second := seedUser(t, db, models.RolePlayer)
	admin := seedUser(t, db, models.RoleAdmin)
	system := seedUser(t, db, models.RoleSystem)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return notify.NewChallengeBroadcastTx(tx, "Season Opener")
	}))

	for _, player := range []*models.User{first, second} {
		unread, err := notify.ListForUser(player.ID, false)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, models.NotificationNewChallenge, unread[0].Type)
	}
	for _, elevated := range []*models.User{admin, system} {
		unread, err := notify.ListForUser(elevated.ID, false)
		require.NoError(t, err)
		assert.Empty(t, unread)
	}
}
