package services

import (
	"errors"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskService manages the tasks nested under a challenge.
type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

// TaskInput is the admin-facing create/update payload.
type TaskInput struct {
	ActionID   string         `json:"action_id" validate:"required"`
	Quantity   int64          `json:"quantity" validate:"omitempty,min=1"`
	Parameters map[string]any `json:"parameters"`
}

func (s *TaskService) FindAllByChallenge(challengeID string) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.Preload("Action").
		Where("challenge_id = ?", challengeID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// FindByID looks a task up within its challenge; a task id from another
// challenge is treated as not found.
func (s *TaskService) FindByID(challengeID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.DB.Preload("Action").
		Where("id = ? AND challenge_id = ?", taskID, challengeID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Create(challengeID string, in TaskInput) (*models.Task, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrChallengeNotFound
		}
		return nil, err
	}
	var action models.Action
	if err := s.DB.First(&action, "id = ?", in.ActionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrActionNotFound
		}
		return nil, err
	}
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	task := models.Task{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		ActionID:    in.ActionID,
		Quantity:    quantity,
		Parameters:  in.Parameters,
	}
	if err := s.DB.Create(&task).Error; err != nil {
		return nil, err
	}
	task.Action = &action
	return &task, nil
}

func (s *TaskService) Update(challengeID, taskID string, in TaskInput) (*models.Task, error) {
	task, err := s.FindByID(challengeID, taskID)
	if err != nil {
		return nil, err
	}
	if in.ActionID != "" {
		var action models.Action
		if err := s.DB.First(&action, "id = ?", in.ActionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.ErrActionNotFound
			}
			return nil, err
		}
		task.ActionID = in.ActionID
		task.Action = &action
	}
	if in.Quantity >= 1 {
		task.Quantity = in.Quantity
	}
	if in.Parameters != nil {
		task.Parameters = in.Parameters
	}
	if err := s.DB.Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task and its progress rows.
func (s *TaskService) Delete(challengeID, taskID string) error {
	if _, err := s.FindByID(challengeID, taskID); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", taskID).Error
	})
}
