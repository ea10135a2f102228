package services

import (
	"testing"
	"time"

	"easybet/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupExchange(t *testing.T) (*ExchangeService, *gorm.DB) {
	db := setupTestDB(t)
	return NewExchangeService(db, decimal.NewFromInt(1000), testMaxOdds), db
}

func balance(t *testing.T, exchange *ExchangeService, account string) decimal.Decimal {
	t.Helper()
	b, err := exchange.BalanceOf(account)
	require.NoError(t, err)
	return b
}

// Full lifecycle: claim, create, buy, odds update, expiry, settlement,
// idempotent re-settlement.
func TestExchangeLifecycle(t *testing.T) {
	exchange, _ := setupExchange(t)
	now := testNow

	_, err := exchange.Claim("alice")
	require.NoError(t, err)
	_, err = exchange.Claim("bob")
	require.NoError(t, err)

	activity, err := exchange.CreateActivity("alice", "A vs B", []string{"A", "B"}, []int64{150, 300}, 3600, now)
	require.NoError(t, err)

	ticket, err := exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), now)
	require.NoError(t, err)
	assert.Equal(t, int64(150), ticket.LockedOdds)

	reread, err := exchange.GetActivity(activity.ID)
	require.NoError(t, err)
	assert.True(t, reread.TotalPool.Equal(decimal.NewFromInt(100)), "pool should equal staked amount")
	assert.True(t, balance(t, exchange, "bob").Equal(decimal.NewFromInt(900)))
	assert.True(t, balance(t, exchange, models.PoolAccount).Equal(decimal.NewFromInt(100)))

	// Creator reprices, the issued ticket keeps its locked odds.
	require.NoError(t, exchange.UpdateOdds("alice", activity.ID, []int64{500, 500}, now))
	info, err := exchange.TicketInfo(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), info.LockedOdds)

	// Before the deadline settlement is rejected.
	err = exchange.SettleActivity("alice", activity.ID, 0, now)
	assert.ErrorIs(t, err, ErrActivityNotExpired)

	afterDeadline := now.Add(2 * time.Hour)
	require.NoError(t, exchange.SettleActivity("alice", activity.ID, 0, afterDeadline))

	// Winner paid price * lockedOdds / 100 = 150, at the locked odds, not
	// the repriced ones.
	assert.True(t, balance(t, exchange, "bob").Equal(decimal.NewFromInt(1050)),
		"expected 900 + 150 payout, got %s", balance(t, exchange, "bob").String())

	info, err = exchange.TicketInfo(ticket.ID)
	require.NoError(t, err)
	assert.True(t, info.Redeemed, "winning ticket should be marked redeemed")

	// Settlement happens exactly once; the retry pays nobody.
	err = exchange.SettleActivity("alice", activity.ID, 1, afterDeadline)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.True(t, balance(t, exchange, "bob").Equal(decimal.NewFromInt(1050)))

	settled, err := exchange.GetActivity(activity.ID)
	require.NoError(t, err)
	require.NotNil(t, settled.WinningChoice)
	assert.Equal(t, 0, *settled.WinningChoice)
}

// Resale: a fill with too little balance aborts cleanly, a funded fill moves
// payment and ownership together.
func TestExchangeFillOrderAtomicity(t *testing.T) {
	exchange, db := setupExchange(t)
	now := testNow

	_, err := exchange.Claim("alice")
	require.NoError(t, err)
	_, err = exchange.Claim("bob")
	require.NoError(t, err)

	activity, err := exchange.CreateActivity("alice", "A vs B", []string{"A", "B"}, []int64{150, 300}, 3600, now)
	require.NoError(t, err)

	first, err := exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), now)
	require.NoError(t, err)
	second, err := exchange.BuyTicket("bob", activity.ID, 1, decimal.NewFromInt(100), now)
	require.NoError(t, err)

	cheap, err := exchange.CreateOrder("bob", first.ID, decimal.NewFromInt(50), now)
	require.NoError(t, err)
	_, err = exchange.CreateOrder("bob", second.ID, decimal.NewFromInt(70), now)
	require.NoError(t, err)

	// A buyer with 40 cannot afford the 50 listing; nothing moves.
	require.NoError(t, db.Create(&models.Account{Address: "dave", Balance: decimal.NewFromInt(40)}).Error)
	_, err = exchange.FillOrder("dave", cheap.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	info, err := exchange.TicketInfo(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", info.Owner, "failed fill must not move the ticket")
	book, err := exchange.OrderBookOf(activity.ID)
	require.NoError(t, err)
	assert.Len(t, book, 2, "failed fill must leave the order active")
	assert.True(t, balance(t, exchange, "dave").Equal(decimal.NewFromInt(40)))

	// Topped up to 60, the same fill goes through.
	require.NoError(t, db.Model(&models.Account{}).Where("address = ?", "dave").
		Update("balance", decimal.NewFromInt(60)).Error)

	sellerBefore := balance(t, exchange, "bob")
	bought, err := exchange.FillOrder("dave", cheap.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", bought.Owner)

	assert.True(t, balance(t, exchange, "dave").Equal(decimal.NewFromInt(10)))
	assert.True(t, balance(t, exchange, "bob").Equal(sellerBefore.Add(decimal.NewFromInt(50))),
		"seller must receive exactly the order price")

	// The consumed order is gone from the book and cannot fill twice.
	book, err = exchange.OrderBookOf(activity.ID)
	require.NoError(t, err)
	assert.Len(t, book, 1)
	_, err = exchange.FillOrder("dave", cheap.ID)
	assert.ErrorIs(t, err, ErrOrderInactive)

	// Resale moved ownership only; the pool still equals the staked total.
	reread, err := exchange.GetActivity(activity.ID)
	require.NoError(t, err)
	assert.True(t, reread.TotalPool.Equal(decimal.NewFromInt(200)),
		"resale must not change the pool, got %s", reread.TotalPool.String())
}

func TestExchangeOrderPolicies(t *testing.T) {
	exchange, _ := setupExchange(t)
	now := testNow

	_, err := exchange.Claim("alice")
	require.NoError(t, err)
	_, err = exchange.Claim("bob")
	require.NoError(t, err)

	activity, err := exchange.CreateActivity("alice", "A vs B", []string{"A", "B"}, []int64{150, 300}, 3600, now)
	require.NoError(t, err)
	ticket, err := exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), now)
	require.NoError(t, err)

	order, err := exchange.CreateOrder("bob", ticket.ID, decimal.NewFromInt(50), now)
	require.NoError(t, err)

	// One active order per ticket: a second listing is rejected outright.
	_, err = exchange.CreateOrder("bob", ticket.ID, decimal.NewFromInt(80), now)
	assert.ErrorIs(t, err, ErrTicketListed)

	// The seller cannot buy their own listing.
	_, err = exchange.FillOrder("bob", order.ID)
	assert.ErrorIs(t, err, ErrSelfTrade)

	// Cancel releases the lock, after which relisting works.
	require.NoError(t, exchange.CancelOrder("bob", order.ID))
	relisted, err := exchange.CreateOrder("bob", ticket.ID, decimal.NewFromInt(80), now)
	require.NoError(t, err)
	assert.True(t, relisted.Active)

	require.NoError(t, exchange.UpdateOrderPrice("bob", relisted.ID, decimal.NewFromInt(90)))
	book, err := exchange.OrderBookOf(activity.ID)
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.True(t, book[0].Price.Equal(decimal.NewFromInt(90)))
}

// Settlement pays whoever holds the ticket at settlement time, not the
// original buyer.
func TestExchangeSettlementPaysCurrentOwner(t *testing.T) {
	exchange, _ := setupExchange(t)
	now := testNow

	for _, account := range []string{"alice", "bob", "carol"} {
		_, err := exchange.Claim(account)
		require.NoError(t, err)
	}

	activity, err := exchange.CreateActivity("alice", "A vs B", []string{"A", "B"}, []int64{200, 300}, 3600, now)
	require.NoError(t, err)
	ticket, err := exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), now)
	require.NoError(t, err)

	order, err := exchange.CreateOrder("bob", ticket.ID, decimal.NewFromInt(120), now)
	require.NoError(t, err)
	_, err = exchange.FillOrder("carol", order.ID)
	require.NoError(t, err)

	afterDeadline := now.Add(2 * time.Hour)
	require.NoError(t, exchange.SettleActivity("alice", activity.ID, 0, afterDeadline))

	// carol: 1000 - 120 resale + 200 payout; bob: 1000 - 100 stake + 120 resale.
	assert.True(t, balance(t, exchange, "carol").Equal(decimal.NewFromInt(1080)),
		"got %s", balance(t, exchange, "carol").String())
	assert.True(t, balance(t, exchange, "bob").Equal(decimal.NewFromInt(1020)),
		"got %s", balance(t, exchange, "bob").String())

	// Losing side gets nothing extra and the journal shows the payout.
	entries, err := exchange.LedgerHistory("carol")
	require.NoError(t, err)
	var sawPayout bool
	for _, entry := range entries {
		if entry.Type == models.EntryTypePayout {
			sawPayout = true
			assert.True(t, entry.Amount.Equal(decimal.NewFromInt(200)))
		}
	}
	assert.True(t, sawPayout, "expected a PAYOUT journal entry for carol")
}

func TestExchangeRejectsStakesOnClosedActivities(t *testing.T) {
	exchange, _ := setupExchange(t)
	now := testNow

	_, err := exchange.Claim("alice")
	require.NoError(t, err)
	_, err = exchange.Claim("bob")
	require.NoError(t, err)

	activity, err := exchange.CreateActivity("alice", "A vs B", []string{"A", "B"}, []int64{150, 300}, 3600, now)
	require.NoError(t, err)
	ticket, err := exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), now)
	require.NoError(t, err)

	afterDeadline := now.Add(2 * time.Hour)
	_, err = exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), afterDeadline)
	assert.ErrorIs(t, err, ErrActivityExpired)

	// The rejected purchase did not debit the buyer or grow the pool.
	assert.True(t, balance(t, exchange, "bob").Equal(decimal.NewFromInt(900)))
	reread, err := exchange.GetActivity(activity.ID)
	require.NoError(t, err)
	assert.True(t, reread.TotalPool.Equal(decimal.NewFromInt(100)))

	// Listings are frozen after expiry too.
	_, err = exchange.CreateOrder("bob", ticket.ID, decimal.NewFromInt(50), afterDeadline)
	assert.ErrorIs(t, err, ErrActivityExpired)

	require.NoError(t, exchange.SettleActivity("alice", activity.ID, 1, afterDeadline))
	_, err = exchange.BuyTicket("bob", activity.ID, 0, decimal.NewFromInt(100), afterDeadline)
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestExchangeBuyTicketUnknownActivity(t *testing.T) {
	exchange, _ := setupExchange(t)

	_, err := exchange.Claim("bob")
	require.NoError(t, err)
	_, err = exchange.BuyTicket("bob", 42, 0, decimal.NewFromInt(100), testNow)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}
