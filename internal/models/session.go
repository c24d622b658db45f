package models

import (
	"golang.org/x/crypto/bcrypt"
)

type SessionType string

const (
	SessionGuest      SessionType = "guest"
	SessionRegistered SessionType = "registered"
)

// OnboardingProfile holds what the user told us about themselves.
type OnboardingProfile struct {
	Name        string   `json:"name"`
	Intention   string   `json:"intention,omitempty"`
	FocusArenas []string `json:"focus_arenas,omitempty"`
}

// UserSession is the single session record for this data set. LastActive is
// touched on every read.
type UserSession struct {
	ID           string             `json:"id"`
	Type         SessionType        `json:"type"`
	Profile      *OnboardingProfile `json:"profile"`
	PasscodeHash string             `json:"passcode_hash,omitempty"`
	CreatedAt    string             `json:"created_at"`  // RFC3339
	LastActive   string             `json:"last_active"` // RFC3339
	DataVersion  int                `json:"data_version"`
}

// SetPasscode hashes and sets the registration passcode.
func (s *UserSession) SetPasscode(passcode string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasscodeHash = string(hash)
	return nil
}

// CheckPasscode verifies a passcode against the stored hash.
func (s *UserSession) CheckPasscode(passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PasscodeHash), []byte(passcode)) == nil
}

type RegisterRequest struct {
	Passcode string `json:"passcode" validate:"required,min=6"`
}

type ProfileUpdateRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=50"`
	Intention   string   `json:"intention" validate:"max=200"`
	FocusArenas []string `json:"focus_arenas"`
}
