package services

import "errors"

// Failure kinds surfaced by the exchange. Every precondition violation wraps
// one of these so callers can branch with errors.Is; no operation leaves
// partial state behind a non-nil error.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadySettled      = errors.New("activity already settled")
	ErrActivityExpired     = errors.New("activity expired")
	ErrActivityNotExpired  = errors.New("activity not expired")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrInvalidChoice       = errors.New("invalid choice")
	ErrBadOddsLength       = errors.New("odds length does not match choices")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyClaimed      = errors.New("bonus already claimed")
	ErrNotOwner            = errors.New("not the ticket owner")
	ErrOrderInactive       = errors.New("order inactive")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTicketListed        = errors.New("ticket already listed")
	ErrSelfTrade           = errors.New("cannot fill own order")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
)
