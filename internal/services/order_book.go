package services

import (
	"fmt"
	"time"

	"easybet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderBookService owns the per-activity secondary market of resale
// listings. A ticket can carry at most one active order; the ticket's Listed
// flag is set while a listing is live and cleared on cancel or fill.
type OrderBookService struct {
	db *gorm.DB
}

func NewOrderBookService(db *gorm.DB) *OrderBookService {
	return &OrderBookService{db: db}
}

// Create lists a ticket for resale. The seller must still own the ticket,
// the ticket must not already be listed, and the underlying activity must be
// open at the supplied time.
func (s *OrderBookService) Create(seller string, ticket *models.Ticket,
	activity *models.Activity, price decimal.Decimal, now time.Time) (*models.Order, error) {

	if ticket.Owner != seller {
		return nil, fmt.Errorf("%w: ticket %d belongs to %s", ErrNotOwner, ticket.ID, ticket.Owner)
	}
	if ticket.Listed {
		return nil, fmt.Errorf("%w: ticket %d", ErrTicketListed, ticket.ID)
	}
	if activity.Settled {
		return nil, fmt.Errorf("%w: activity %d", ErrAlreadySettled, activity.ID)
	}
	if activity.IsExpired(now) {
		return nil, fmt.Errorf("%w: activity %d deadline passed", ErrActivityExpired, activity.ID)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: order price %s", ErrInvalidAmount, price.String())
	}

	order := models.Order{
		TicketID:   ticket.ID,
		ActivityID: ticket.ActivityID,
		Seller:     seller,
		Price:      price,
		Active:     true,
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

// Get returns an order by id.
func (s *OrderBookService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.First(&order, orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdatePrice reprices an active listing. Seller only.
func (s *OrderBookService) UpdatePrice(seller string, orderID uint, newPrice decimal.Decimal) error {
	order, err := s.Get(orderID)
	if err != nil {
		return err
	}

	if order.Seller != seller {
		return fmt.Errorf("%w: order %d belongs to %s", ErrUnauthorized, orderID, order.Seller)
	}
	if !order.Active {
		return fmt.Errorf("%w: order %d", ErrOrderInactive, orderID)
	}
	if newPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: order price %s", ErrInvalidAmount, newPrice.String())
	}

	return s.db.Model(order).Update("price", newPrice).Error
}

// Cancel deactivates a listing. Seller only; the ticket's resale lock is
// released by the caller alongside this.
func (s *OrderBookService) Cancel(seller string, orderID uint) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}

	if order.Seller != seller {
		return nil, fmt.Errorf("%w: order %d belongs to %s", ErrUnauthorized, orderID, order.Seller)
	}
	if !order.Active {
		return nil, fmt.Errorf("%w: order %d", ErrOrderInactive, orderID)
	}

	if err := s.Deactivate(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Deactivate marks an order consumed. Exactly one of two racing fills can
// pass the Active check that precedes this under the engine's write lock.
func (s *OrderBookService) Deactivate(order *models.Order) error {
	if err := s.db.Model(order).Update("active", false).Error; err != nil {
		return err
	}
	order.Active = false
	return nil
}

// BookOf returns the active listings for an activity, cheapest first.
func (s *OrderBookService) BookOf(activityID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Where("activity_id = ? AND active = ?", activityID, true).
		Order("price ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
