package services

import (
	"testing"

	"mc-challenge-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardIsIdempotent(t *testing.T) {
	db, _, _, notify, badges := newTestStack(t)
	user := seedUser(t, db, models.RolePlayer)
	badge, err := badges.Create("Pioneer", "First steps", nil)
	require.NoError(t, err)

	first, awarded, err := badges.Award(user.ID, badge.ID)
	require.NoError(t, err)
	assert.True(t, awarded)

	second, awarded, err := badges.Award(user.ID, badge.ID)
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Only the first award notifies.
	unread, err := notify.ListForUser(user.ID, false)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, models.NotificationBadge, unread[0].Type)
}

func TestRevokeIsNoOpWhenNotHeld(t *testing.T) {
	db, _, _, _, badges := newTestStack(t)
	user := seedUser(t, db, models.RolePlayer)
	badge, err := badges.Create("Veteran", "", nil)
	require.NoError(t, err)

	require.NoError(t, badges.Revoke(user.ID, badge.ID))

	_, _, err = badges.Award(user.ID, badge.ID)
	require.NoError(t, err)
	require.NoError(t, badges.Revoke(user.ID, badge.ID))

	held, err := badges.FindForUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestAutoAwardOnChallengeCompletion(t *testing.T) {
	db, challenges, progress, _, badges := newTestStack(t)
	user := seedUser(t, db, models.RolePlayer)
	_, err := badges.Create("Centurion", "Reach 100 XP", map[string]int64{"total_xp": 100})
	require.NoError(t, err)
	_, err = badges.Create("Tycoon", "Reach 500 points", map[string]int64{"total_points": 500})
	require.NoError(t, err)

	challenge := seedChallenge(t, db, "Worth 100", 100, 10)
	action := seedAction(t, db, "MINE_BLOCK")
	task := seedTask(t, db, challenge.ID, action.ID, 1, nil)
	_, err = challenges.Join(user.ID, challenge.ID)
	require.NoError(t, err)
	_, err = progress.Increment(user.ID, task.ID, 1)
	require.NoError(t, err)
	done, err := progress.CheckChallengeCompletion(user.ID, challenge.ID)
	require.NoError(t, err)
	require.True(t, done)

	held, err := badges.FindForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Centurion", held[0].Badge.Name)
}

func TestMeetsCriteria(t *testing.T) {
	user := &models.User{TotalXP: 150, TotalPoints: 30, TotalChallengesCompleted: 2}

	assert.True(t, meetsCriteria(user, map[string]int64{"total_xp": 100}))
	assert.True(t, meetsCriteria(user, map[string]int64{"total_xp": 100, "total_challenges_completed": 2}))
	assert.False(t, meetsCriteria(user, map[string]int64{"total_points": 50}))
	// Empty or unknown criteria never auto-award.
	assert.False(t, meetsCriteria(user, nil))
	assert.False(t, meetsCriteria(user, map[string]int64{"play_minutes": 1}))
}

func TestDeleteBadgeRemovesAwards(t *testing.T) {
	db, _, _, _, badges := newTestStack(t)
	user := seedUser(t, db, models.RolePlayer)
	badge, err := badges.Create("Ephemeral", "", nil)
	require.NoError(t, err)
	_, _, err = badges.Award(user.ID, badge.ID)
	require.NoError(t, err)

	require.NoError(t, badges.Delete(badge.ID))

	var count int64
	require.NoError(t, db.Model(&models.UserBadge{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, badges.Delete(badge.ID), models.ErrBadgeNotFound)
}

func TestCreateDuplicateBadgeName(t *testing.T) {
	_, _, _, _, badges := newTestStack(t)
	_, err := badges.Create("Unique", "", nil)
	require.NoError(t, err)
	_, err = badges.Create("Unique", "", nil)
	assert.ErrorIs(t, err, models.ErrDuplicateEntry)
}
