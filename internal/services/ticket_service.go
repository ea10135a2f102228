package services

import (
	"fmt"
	"time"

	"easybet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketService owns non-fungible betting positions. Issuing captures the
// activity's odds for the chosen outcome at that instant; the captured value
// never changes for the ticket's lifetime.
type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// Issue validates the purchase against the activity's state at the supplied
// time and mints a ticket with the current odds locked in. The buyer's stake
// is moved by the caller; this only creates the position record.
func (s *TicketService) Issue(owner string, activity *models.Activity, choice int,
	price decimal.Decimal, now time.Time) (*models.Ticket, error) {

	if activity.Settled {
		return nil, fmt.Errorf("%w: activity %d", ErrAlreadySettled, activity.ID)
	}
	if activity.IsExpired(now) {
		return nil, fmt.Errorf("%w: activity %d deadline passed", ErrActivityExpired, activity.ID)
	}
	if choice < 0 || choice >= len(activity.Choices) {
		return nil, fmt.Errorf("%w: choice %d of %d", ErrInvalidChoice, choice, len(activity.Choices))
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: ticket price %s", ErrInvalidAmount, price.String())
	}

	ticket := models.Ticket{
		Owner:      owner,
		ActivityID: activity.ID,
		Choice:     choice,
		Price:      price,
		LockedOdds: activity.Choices[choice].Odds,
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &ticket, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.First(&ticket, ticketID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrTicketNotFound, ticketID)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// TicketsOf returns all tickets held by an owner, newest first.
func (s *TicketService) TicketsOf(owner string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("owner = ?", owner).
		Order("id DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// TransferOwnership moves a ticket between accounts and releases its resale
// lock. Used by order fills only; the transfer fails if from no longer holds
// the ticket.
func (s *TicketService) TransferOwnership(ticketID uint, from, to string) error {
	ticket, err := s.Get(ticketID)
	if err != nil {
		return err
	}
	if ticket.Owner != from {
		return fmt.Errorf("%w: ticket %d belongs to %s", ErrNotOwner, ticketID, ticket.Owner)
	}

	return s.db.Model(ticket).Updates(map[string]interface{}{
		"owner":  to,
		"listed": false,
	}).Error
}

// SetListed toggles the resale lock that keeps a ticket from being listed
// twice or disposed of while an order is active.
func (s *TicketService) SetListed(ticketID uint, listed bool) error {
	return s.db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Update("listed", listed).Error
}

// WinningTickets returns the unredeemed tickets staked on the winning choice
// of an activity.
func (s *TicketService) WinningTickets(activityID uint, winningChoice int) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("activity_id = ? AND choice = ? AND redeemed = ?",
		activityID, winningChoice, false).
		Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkRedeemed flags a ticket as paid out. The record itself survives as a
// historical receipt.
func (s *TicketService) MarkRedeemed(ticketID uint) error {
	return s.db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Update("redeemed", true).Error
}

// PoolOf sums the stakes of an activity's tickets. Resale moves ownership
// only, so this stays equal to the activity's totalPool at all times.
func (s *TicketService) PoolOf(activityID uint) (decimal.Decimal, error) {
	var tickets []models.Ticket
	if err := s.db.Where("activity_id = ?", activityID).Find(&tickets).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range tickets {
		total = total.Add(t.Price)
	}
	return total, nil
}
