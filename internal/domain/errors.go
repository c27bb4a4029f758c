package domain

import "errors"

// Expected, caller-facing outcomes of offer resolution. Each maps to a
// distinct status code and machine-readable code at the HTTP boundary so
// clients can tell "already gone" apart from "someone else got it". Anything
// not listed here is an internal failure.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrShiftNotFound   = errors.New("shift not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrForbidden       = errors.New("offer belongs to another account")
	ErrOfferExpired    = errors.New("offer expired before it was answered")
	ErrAlreadyResolved = errors.New("offer has already been resolved")
	ErrShiftClaimed    = errors.New("shift was claimed by another candidate")
	ErrShiftNotOpen    = errors.New("shift is no longer open")
)
