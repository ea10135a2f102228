package services

import (
	"fmt"
	"time"

	"easybet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActivityService owns activity definitions, choice odds and the
// Open -> Expired -> Settled lifecycle. Expiry is recomputed from the
// caller-supplied time on every check; settlement is recorded exactly once.
type ActivityService struct {
	db      *gorm.DB
	maxOdds int64
}

func NewActivityService(db *gorm.DB, maxOdds int64) *ActivityService {
	return &ActivityService{
		db:      db,
		maxOdds: maxOdds,
	}
}

// Create validates and stores a new activity with its choices. Nothing is
// written until every input checks out, so a rejected request leaves id
// allocation untouched.
func (s *ActivityService) Create(creator, name string, choices []string, odds []int64,
	durationSeconds int64, now time.Time) (*models.Activity, error) {

	if len(odds) != len(choices) {
		return nil, fmt.Errorf("%w: %d choices, %d odds", ErrBadOddsLength, len(choices), len(odds))
	}
	if len(choices) < 2 {
		return nil, fmt.Errorf("%w: need at least two choices, got %d", ErrInvalidChoice, len(choices))
	}
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration %ds", ErrInvalidAmount, durationSeconds)
	}
	if err := s.validateOdds(odds); err != nil {
		return nil, err
	}

	activity := models.Activity{
		Name:      name,
		Creator:   creator,
		TotalPool: decimal.Zero,
		Deadline:  now.Add(time.Duration(durationSeconds) * time.Second),
	}
	for i, label := range choices {
		activity.Choices = append(activity.Choices, models.ActivityChoice{
			Idx:   i,
			Label: label,
			Odds:  odds[i],
		})
	}

	if err := s.db.Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return &activity, nil
}

// Get returns an activity with its choices in index order.
func (s *ActivityService) Get(activityID uint) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("idx ASC")
	}).First(&activity, activityID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrActivityNotFound, activityID)
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// List returns all activities with their choices, newest first.
func (s *ActivityService) List() ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("idx ASC")
	}).Order("id DESC").Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// UpdateOdds replaces the quoted odds of a still-open activity. Only the
// creator may update, and tickets already issued keep their locked odds.
func (s *ActivityService) UpdateOdds(caller string, activityID uint, newOdds []int64, now time.Time) error {
	activity, err := s.Get(activityID)
	if err != nil {
		return err
	}

	if activity.Creator != caller {
		return fmt.Errorf("%w: only creator %s may update odds", ErrUnauthorized, activity.Creator)
	}
	if activity.Settled {
		return fmt.Errorf("%w: activity %d", ErrAlreadySettled, activityID)
	}
	if activity.IsExpired(now) {
		return fmt.Errorf("%w: activity %d deadline passed", ErrActivityExpired, activityID)
	}
	if len(newOdds) != len(activity.Choices) {
		return fmt.Errorf("%w: %d choices, %d odds", ErrBadOddsLength, len(activity.Choices), len(newOdds))
	}
	if err := s.validateOdds(newOdds); err != nil {
		return err
	}

	for i, choice := range activity.Choices {
		if err := s.db.Model(&models.ActivityChoice{}).Where("id = ?", choice.ID).
			Update("odds", newOdds[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Settle records the winning choice of an expired activity. The transition
// happens exactly once; any later call fails with ErrAlreadySettled and
// leaves the recorded winner alone.
func (s *ActivityService) Settle(caller string, activityID uint, winningChoice int, now time.Time) (*models.Activity, error) {
	activity, err := s.Get(activityID)
	if err != nil {
		return nil, err
	}

	if activity.Creator != caller {
		return nil, fmt.Errorf("%w: only creator %s may settle", ErrUnauthorized, activity.Creator)
	}
	if activity.Settled {
		return nil, fmt.Errorf("%w: activity %d", ErrAlreadySettled, activityID)
	}
	if !activity.IsExpired(now) {
		return nil, fmt.Errorf("%w: activity %d open until %s",
			ErrActivityNotExpired, activityID, activity.Deadline.Format(time.RFC3339))
	}
	if winningChoice < 0 || winningChoice >= len(activity.Choices) {
		return nil, fmt.Errorf("%w: choice %d of %d", ErrInvalidChoice, winningChoice, len(activity.Choices))
	}

	if err := s.db.Model(activity).Updates(map[string]interface{}{
		"settled":        true,
		"winning_choice": winningChoice,
		"settled_at":     now,
	}).Error; err != nil {
		return nil, err
	}

	activity.Settled = true
	activity.WinningChoice = &winningChoice
	activity.SettledAt = &now
	return activity, nil
}

// AddToPool bumps the activity's stake pool by the price of a freshly
// issued ticket, keeping totalPool equal to the sum of its tickets' prices.
func (s *ActivityService) AddToPool(activityID uint, amount decimal.Decimal) error {
	return s.db.Model(&models.Activity{}).Where("id = ?", activityID).
		Update("total_pool", gorm.Expr("total_pool + ?", amount)).Error
}

// validateOdds rejects non-positive odds outright and caps them so a payout
// of price * odds / 100 cannot blow past the representable amount range.
func (s *ActivityService) validateOdds(odds []int64) error {
	for i, o := range odds {
		if o <= 0 {
			return fmt.Errorf("%w: odds[%d] = %d", ErrInvalidAmount, i, o)
		}
		if o > s.maxOdds {
			return fmt.Errorf("%w: odds[%d] = %d exceeds cap %d", ErrArithmeticOverflow, i, o, s.maxOdds)
		}
	}
	return nil
}
