package services

import (
	"fmt"
	"log"

	"easybet/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService owns fungible balances and the append-only journal. It is
// constructed over the caller's transaction handle so that balance moves
// commit or roll back together with the rest of an operation.
type LedgerService struct {
	db         *gorm.DB
	claimBonus decimal.Decimal
}

func NewLedgerService(db *gorm.DB, claimBonus decimal.Decimal) *LedgerService {
	return &LedgerService{
		db:         db,
		claimBonus: claimBonus,
	}
}

// getOrCreateAccount loads an account row, creating it lazily on first
// reference.
func (s *LedgerService) getOrCreateAccount(address string) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		account = models.Account{Address: address, Balance: decimal.Zero}
		if err := s.db.Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create account %s: %w", address, err)
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Claim credits the one-time signup bonus. A second claim fails with
// ErrAlreadyClaimed and leaves the balance untouched.
func (s *LedgerService) Claim(address string) (decimal.Decimal, error) {
	account, err := s.getOrCreateAccount(address)
	if err != nil {
		return decimal.Zero, err
	}

	if account.HasClaimed {
		return decimal.Zero, fmt.Errorf("%w: account %s", ErrAlreadyClaimed, address)
	}

	newBalance := account.Balance.Add(s.claimBonus)
	if err := s.db.Model(account).Updates(map[string]interface{}{
		"balance":     newBalance,
		"has_claimed": true,
	}).Error; err != nil {
		return decimal.Zero, err
	}

	if err := s.journal(address, models.EntryTypeClaim, s.claimBonus, ""); err != nil {
		return decimal.Zero, err
	}

	log.Printf("Claim bonus credited: account=%s amount=%s", address, s.claimBonus.String())
	return newBalance, nil
}

// Transfer atomically debits from and credits to. The debit and credit are
// journaled as a matched pair under the given entry type.
func (s *LedgerService) Transfer(from, to string, amount decimal.Decimal,
	entryType models.LedgerEntryType, reference string) error {

	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: transfer of %s", ErrInvalidAmount, amount.String())
	}

	sender, err := s.getOrCreateAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.LessThan(amount) {
		return fmt.Errorf("%w: account %s has %s, needs %s",
			ErrInsufficientBalance, from, sender.Balance.String(), amount.String())
	}

	receiver, err := s.getOrCreateAccount(to)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.Account{}).Where("address = ?", sender.Address).
		Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Account{}).Where("address = ?", receiver.Address).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return err
	}

	if err := s.journal(from, entryType, amount.Neg(), reference); err != nil {
		return err
	}
	return s.journal(to, entryType, amount, reference)
}

// Credit mints amount into an account. Used for settlement payouts, which
// are underwritten by the house rather than drawn from the stake pool.
func (s *LedgerService) Credit(address string, amount decimal.Decimal,
	entryType models.LedgerEntryType, reference string) error {

	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: credit of %s", ErrInvalidAmount, amount.String())
	}

	account, err := s.getOrCreateAccount(address)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.Account{}).Where("address = ?", account.Address).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return err
	}

	return s.journal(address, entryType, amount, reference)
}

// BalanceOf returns the spendable balance. Unknown accounts read as zero;
// the query never fails on a missing row.
func (s *LedgerService) BalanceOf(address string) (decimal.Decimal, error) {
	var account models.Account
	err := s.db.Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// HasClaimed reports whether the account has taken its signup bonus.
func (s *LedgerService) HasClaimed(address string) (bool, error) {
	var account models.Account
	err := s.db.Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.HasClaimed, nil
}

// History returns the journal entries for an account, newest first.
func (s *LedgerService) History(address string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := s.db.Where("account = ?", address).
		Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *LedgerService) journal(address string, entryType models.LedgerEntryType,
	amount decimal.Decimal, reference string) error {

	entry := models.LedgerEntry{
		ID:        uuid.New(),
		Account:   address,
		Type:      entryType,
		Amount:    amount,
		Reference: reference,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to journal %s for %s: %w", entryType, address, err)
	}
	return nil
}
