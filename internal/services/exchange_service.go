package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"easybet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeService is the sole mutation entry point of the exchange. Every
// mutating call is serialized behind one mutex and applied inside a single
// database transaction, so callers observe each operation fully applied or
// not at all. Time-sensitive operations take the current time explicitly;
// nothing in here reads the wall clock.
type ExchangeService struct {
	db         *gorm.DB
	claimBonus decimal.Decimal
	maxOdds    int64
	mu         sync.Mutex
}

func NewExchangeService(db *gorm.DB, claimBonus decimal.Decimal, maxOdds int64) *ExchangeService {
	return &ExchangeService{
		db:         db,
		claimBonus: claimBonus,
		maxOdds:    maxOdds,
	}
}

func (s *ExchangeService) ledger(tx *gorm.DB) *LedgerService {
	return NewLedgerService(tx, s.claimBonus)
}

func (s *ExchangeService) activities(tx *gorm.DB) *ActivityService {
	return NewActivityService(tx, s.maxOdds)
}

func (s *ExchangeService) tickets(tx *gorm.DB) *TicketService {
	return NewTicketService(tx)
}

func (s *ExchangeService) orders(tx *gorm.DB) *OrderBookService {
	return NewOrderBookService(tx)
}

// Claim credits the one-time signup bonus to an account.
func (s *ExchangeService) Claim(account string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance decimal.Decimal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.ledger(tx).Claim(account)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// CreateActivity opens a new betting activity owned by creator.
func (s *ExchangeService) CreateActivity(creator, name string, choices []string,
	odds []int64, durationSeconds int64, now time.Time) (*models.Activity, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var activity *models.Activity
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		activity, err = s.activities(tx).Create(creator, name, choices, odds, durationSeconds, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Activity created: id=%d name=%q creator=%s deadline=%s",
		activity.ID, activity.Name, activity.Creator, activity.Deadline.Format(time.RFC3339))
	return activity, nil
}

// UpdateOdds replaces the quoted odds of an open activity. Already-issued
// tickets keep the odds locked at purchase time.
func (s *ExchangeService) UpdateOdds(caller string, activityID uint, newOdds []int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.activities(tx).UpdateOdds(caller, activityID, newOdds, now)
	})
}

// BuyTicket purchases a position on one choice of an open activity. The
// stake moves from the buyer into the pool account, the activity's pool
// grows by the same amount, and the minted ticket locks the current odds.
func (s *ExchangeService) BuyTicket(buyer string, activityID uint, choice int,
	price decimal.Decimal, now time.Time) (*models.Ticket, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var ticket *models.Ticket
	err := s.db.Transaction(func(tx *gorm.DB) error {
		activity, err := s.activities(tx).Get(activityID)
		if err != nil {
			return err
		}

		ticket, err = s.tickets(tx).Issue(buyer, activity, choice, price, now)
		if err != nil {
			return err
		}

		reference := fmt.Sprintf("ticket:%d", ticket.ID)
		if err := s.ledger(tx).Transfer(buyer, models.PoolAccount, price,
			models.EntryTypeBetPlaced, reference); err != nil {
			return err
		}

		return s.activities(tx).AddToPool(activityID, price)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Ticket issued: id=%d activity=%d choice=%d price=%s odds=%d owner=%s",
		ticket.ID, ticket.ActivityID, ticket.Choice, ticket.Price.String(), ticket.LockedOdds, ticket.Owner)
	return ticket, nil
}

// SettleActivity declares the winning choice of an expired activity and
// eagerly pays every winning ticket's current owner price * lockedOdds / 100.
// A second call fails with ErrAlreadySettled before any credit is attempted,
// which is what makes the payout safe to retry.
func (s *ExchangeService) SettleActivity(caller string, activityID uint, winningChoice int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		activity, err := s.activities(tx).Settle(caller, activityID, winningChoice, now)
		if err != nil {
			return err
		}

		winners, err := s.tickets(tx).WinningTickets(activity.ID, winningChoice)
		if err != nil {
			return err
		}

		ledger := s.ledger(tx)
		for _, ticket := range winners {
			reference := fmt.Sprintf("ticket:%d", ticket.ID)
			if err := ledger.Credit(ticket.Owner, ticket.Payout(),
				models.EntryTypePayout, reference); err != nil {
				return err
			}
			if err := s.tickets(tx).MarkRedeemed(ticket.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Activity settled: id=%d winningChoice=%d", activityID, winningChoice)
	return nil
}

// CreateOrder lists a ticket for resale on the activity's order book.
func (s *ExchangeService) CreateOrder(seller string, ticketID uint,
	price decimal.Decimal, now time.Time) (*models.Order, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ticket, err := s.tickets(tx).Get(ticketID)
		if err != nil {
			return err
		}
		activity, err := s.activities(tx).Get(ticket.ActivityID)
		if err != nil {
			return err
		}

		order, err = s.orders(tx).Create(seller, ticket, activity, price, now)
		if err != nil {
			return err
		}

		return s.tickets(tx).SetListed(ticketID, true)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order created: id=%d ticket=%d price=%s seller=%s",
		order.ID, order.TicketID, order.Price.String(), order.Seller)
	return order, nil
}

// UpdateOrderPrice reprices an active listing.
func (s *ExchangeService) UpdateOrderPrice(seller string, orderID uint, newPrice decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.orders(tx).UpdatePrice(seller, orderID, newPrice)
	})
}

// CancelOrder withdraws a listing and releases the ticket's resale lock.
func (s *ExchangeService) CancelOrder(seller string, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orders(tx).Cancel(seller, orderID)
		if err != nil {
			return err
		}
		return s.tickets(tx).SetListed(order.TicketID, false)
	})
}

// FillOrder buys a listed ticket: payment to the seller, ticket to the
// buyer, listing deactivated — all inside one transaction, so an
// insufficient balance aborts the whole fill.
func (s *ExchangeService) FillOrder(buyer string, orderID uint) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ticket *models.Ticket
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orders(tx).Get(orderID)
		if err != nil {
			return err
		}
		if !order.Active {
			return fmt.Errorf("%w: order %d", ErrOrderInactive, orderID)
		}
		if order.Seller == buyer {
			return fmt.Errorf("%w: order %d", ErrSelfTrade, orderID)
		}

		reference := fmt.Sprintf("order:%d", order.ID)
		if err := s.ledger(tx).Transfer(buyer, order.Seller, order.Price,
			models.EntryTypeOrderFill, reference); err != nil {
			return err
		}
		if err := s.tickets(tx).TransferOwnership(order.TicketID, order.Seller, buyer); err != nil {
			return err
		}
		if err := s.orders(tx).Deactivate(order); err != nil {
			return err
		}

		ticket, err = s.tickets(tx).Get(order.TicketID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order filled: id=%d ticket=%d buyer=%s price=%s",
		orderID, ticket.ID, buyer, ticket.Price.String())
	return ticket, nil
}

// Reads hit committed state only; the single-writer lock above guarantees
// there is never a half-applied operation to observe.

// BalanceOf returns an account's spendable balance.
func (s *ExchangeService) BalanceOf(account string) (decimal.Decimal, error) {
	return s.ledger(s.db).BalanceOf(account)
}

// HasClaimed reports whether the account has taken its signup bonus.
func (s *ExchangeService) HasClaimed(account string) (bool, error) {
	return s.ledger(s.db).HasClaimed(account)
}

// GetActivity returns an activity with its choices.
func (s *ExchangeService) GetActivity(activityID uint) (*models.Activity, error) {
	return s.activities(s.db).Get(activityID)
}

// ListActivities returns all activities.
func (s *ExchangeService) ListActivities() ([]models.Activity, error) {
	return s.activities(s.db).List()
}

// TicketsOf returns the tickets held by an account.
func (s *ExchangeService) TicketsOf(owner string) ([]models.Ticket, error) {
	return s.tickets(s.db).TicketsOf(owner)
}

// TicketInfo returns a single ticket.
func (s *ExchangeService) TicketInfo(ticketID uint) (*models.Ticket, error) {
	return s.tickets(s.db).Get(ticketID)
}

// OrderBookOf returns the active listings for an activity, cheapest first.
func (s *ExchangeService) OrderBookOf(activityID uint) ([]models.Order, error) {
	return s.orders(s.db).BookOf(activityID)
}

// LedgerHistory returns an account's journal entries, newest first.
func (s *ExchangeService) LedgerHistory(account string) ([]models.LedgerEntry, error) {
	return s.ledger(s.db).History(account)
}
