package services

import (
	"errors"
	"reflect"

	"mc-challenge-system/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProgressTracker is the slice of ProgressService the action router
// needs. Split out so the router can be exercised against a stub.
type ProgressTracker interface {
	Increment(userID, taskID string, amount int64) (*ProgressUpdate, error)
	CheckChallengeCompletion(userID, challengeID string) (bool, error)
}

// ParameterMatcher decides whether an incoming event's parameters satisfy
// a task's parameter filter. The filter was advisory in earlier variants
// of this system; it is now an explicit extension point with subset
// matching as the deterministic default.
type ParameterMatcher interface {
	Matches(taskParams, eventParams map[string]any) bool
}

// SubsetMatcher: every key/value the task declares must appear with an
// equal value in the event. A task without parameters matches anything.
type SubsetMatcher struct{}

func (SubsetMatcher) Matches(taskParams, eventParams map[string]any) bool {
	for key, want := range taskParams {
		got, ok := eventParams[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// ExactMatcher: the event parameters must equal the task's exactly.
type ExactMatcher struct{}

func (ExactMatcher) Matches(taskParams, eventParams map[string]any) bool {
	if len(taskParams) == 0 && len(eventParams) == 0 {
		return true
	}
	return reflect.DeepEqual(taskParams, eventParams)
}

// AnyMatcher ignores parameters entirely (the legacy advisory behavior).
type AnyMatcher struct{}

func (AnyMatcher) Matches(_, _ map[string]any) bool { return true }

// ActionService owns the action catalog and routes raw game events to
// every matching task across the player's accepted challenges.
type ActionService struct {
	DB       *gorm.DB
	Progress ProgressTracker
	Matcher  ParameterMatcher
}

func NewActionService(db *gorm.DB, progress ProgressTracker) *ActionService {
	return &ActionService{DB: db, Progress: progress, Matcher: SubsetMatcher{}}
}

// ActionInput is the admin-facing create/update payload.
type ActionInput struct {
	Name        string         `json:"name" validate:"required,min=2,max=64"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func (s *ActionService) FindAll() ([]models.Action, error) {
	var actions []models.Action
	err := s.DB.Order("name ASC").Find(&actions).Error
	return actions, err
}

func (s *ActionService) FindByID(id string) (*models.Action, error) {
	var action models.Action
	if err := s.DB.First(&action, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrActionNotFound
		}
		return nil, err
	}
	return &action, nil
}

func (s *ActionService) FindByName(name string) (*models.Action, error) {
	var action models.Action
	if err := s.DB.First(&action, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrActionNotFound
		}
		return nil, err
	}
	return &action, nil
}

func (s *ActionService) Create(in ActionInput) (*models.Action, error) {
	action := models.Action{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Parameters:  in.Parameters,
	}
	if err := s.DB.Create(&action).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, err
	}
	return &action, nil
}

func (s *ActionService) Update(id string, in ActionInput) (*models.Action, error) {
	action, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	action.Name = in.Name
	action.Description = in.Description
	if in.Parameters != nil {
		action.Parameters = in.Parameters
	}
	if err := s.DB.Save(action).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateEntry
		}
		return nil, err
	}
	return action, nil
}

func (s *ActionService) Delete(id string) error {
	res := s.DB.Delete(&models.Action{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrActionNotFound
	}
	return nil
}

// EventOutcome is the per-task result of routing one game event. Error is
// set when that task's increment failed; the rest of the batch still ran.
type EventOutcome struct {
	TaskID             string `json:"task_id"`
	ChallengeID        string `json:"challenge_id"`
	Progress           int64  `json:"progress"`
	Target             int64  `json:"target"`
	TaskCompleted      bool   `json:"task_completed"`
	ChallengeCompleted bool   `json:"challenge_completed"`
	Error              string `json:"error,omitempty"`
}

// ProcessEvent is the sole entry point converting a raw plugin event into
// progress. It fans the event out to every task keyed on the action
// across the player's accepted memberships, applying the parameter
// filter, and processes every matching task even when one fails.
func (s *ActionService) ProcessEvent(userID, actionName string, quantity int64, params map[string]any) ([]EventOutcome, error) {
	action, err := s.FindByName(actionName)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	var tasks []models.Task
	if err := s.DB.
		Joins("JOIN challenge_memberships ON challenge_memberships.challenge_id = tasks.challenge_id").
		Where("tasks.action_id = ? AND challenge_memberships.user_id = ? AND challenge_memberships.status = ?",
			action.ID, userID, models.MembershipAccepted).
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	outcomes := make([]EventOutcome, 0, len(tasks))
	for _, task := range tasks {
		if !s.Matcher.Matches(task.Parameters, params) {
			continue
		}
		outcome := EventOutcome{TaskID: task.ID, ChallengeID: task.ChallengeID, Target: task.Quantity}
		update, err := s.Progress.Increment(userID, task.ID, quantity)
		if err != nil {
			outcome.Error = err.Error()
			logrus.Warnf("⚠️ Increment failed: user=%s task=%s action=%s: %v", userID, task.ID, actionName, err)
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Progress = update.Progress.Progress
		outcome.TaskCompleted = update.TaskCompleted
		if update.NewlyCompleted {
			done, err := s.Progress.CheckChallengeCompletion(userID, task.ChallengeID)
			if err != nil {
				outcome.Error = err.Error()
				logrus.Warnf("⚠️ Completion check failed: user=%s challenge=%s: %v", userID, task.ChallengeID, err)
			} else {
				outcome.ChallengeCompleted = done
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// defaultActions is the catalog the Minecraft plugin reports against.
var defaultActions = []models.Action{
	{Name: "MINE_BLOCK", Description: "Mine a specific block", Parameters: map[string]any{
		"block": map[string]any{"type": "string", "description": "Block identifier (e.g. diamond_ore, stone)", "required": false},
	}},
	{Name: "KILL_MOBS", Description: "Kill mobs", Parameters: map[string]any{
		"mob": map[string]any{"type": "string", "description": "Mob type (e.g. zombie, skeleton, creeper)", "required": false},
	}},
	{Name: "KILL_PLAYER", Description: "Kill a player in PvP", Parameters: map[string]any{
		"player": map[string]any{"type": "string", "description": "Target player name (any player when unset)", "required": false},
	}},
	{Name: "PLACE_BLOCK", Description: "Place a specific block", Parameters: map[string]any{
		"block": map[string]any{"type": "string", "description": "Block identifier to place", "required": false},
	}},
	{Name: "BUILD_HOUSE", Description: "Build a house (structure detected by the plugin)", Parameters: map[string]any{
		"minSize":   map[string]any{"type": "number", "description": "Minimum structure size in blocks", "required": false},
		"materials": map[string]any{"type": "array", "description": "Allowed materials", "required": false},
	}},
	{Name: "TRAVEL_TO", Description: "Travel to a destination or cover a distance", Parameters: map[string]any{
		"destination": map[string]any{"type": "string", "description": "Destination (e.g. nether, end, coordinates)", "required": false},
		"distance":    map[string]any{"type": "number", "description": "Distance in blocks", "required": false},
	}},
	{Name: "PLACE_FLAG", Description: "Place a flag (zone capture, events)", Parameters: map[string]any{
		"zone": map[string]any{"type": "string", "description": "Zone identifier", "required": false},
		"team": map[string]any{"type": "string", "description": "Player's team", "required": false},
	}},
}

// SeedDefaults inserts the default action catalog, skipping names that
// already exist. Safe to run on every startup.
func (s *ActionService) SeedDefaults() error {
	for _, action := range defaultActions {
		var count int64
		if err := s.DB.Model(&models.Action{}).Where("name = ?", action.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		action.ID = uuid.NewString()
		if err := s.DB.Create(&action).Error; err != nil {
			return err
		}
		logrus.Infof("🌱 Seeded action %s", action.Name)
	}
	return nil
}
