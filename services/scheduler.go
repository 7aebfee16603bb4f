package services

import (
	"time"

	"mc-challenge-system/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StartPublishScheduler publishes challenges whose publish time has
// arrived and broadcasts the new_challenge notification. The publish
// flip is conditional so overlapping replicas publish (and broadcast)
// each challenge once.
func (s *ChallengeService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var challenges []models.Challenge
			now := time.Now()
			err := s.DB.Where("published = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, now).
				Find(&challenges).Error
			if err != nil {
				logrus.Errorf("[Scheduler] DB error: %v", err)
				return
			}

			for _, challenge := range challenges {
				err := s.DB.Transaction(func(tx *gorm.DB) error {
					res := tx.Model(&models.Challenge{}).
						Where("id = ? AND published = ?", challenge.ID, false).
						Update("published", true)
					if res.Error != nil {
						return res.Error
					}
					if res.RowsAffected == 0 {
						return nil
					}
					return s.Notify.NewChallengeBroadcastTx(tx, challenge.Title)
				})
				if err != nil {
					logrus.Errorf("[Scheduler] Failed to publish challenge %s: %v", challenge.ID, err)
				} else {
					logrus.Infof("✅ Auto-published challenge: %s", challenge.Title)
				}
			}
		}),
	)
}
