package core

import "strings"

// Settings is the in-memory ConnectionConfig implementation: a mutable record
// the caller owns. The configurator mutates it in place; adapters translate it
// onto driver-specific configs.
type Settings struct {
	username string
	provider PasswordProvider
}

// NewSettings returns settings with an optional preset username.
func NewSettings(username string) *Settings {
	return &Settings{username: strings.TrimSpace(username)}
}

func (s *Settings) Username() string {
	if s == nil {
		return ""
	}
	return s.username
}

func (s *Settings) SetUsername(name string) {
	if s == nil {
		return
	}
	s.username = strings.TrimSpace(name)
}

func (s *Settings) SetPasswordProvider(provider PasswordProvider) {
	if s == nil {
		return
	}
	s.provider = provider
}

// PasswordProvider returns the installed provider pair.
func (s *Settings) PasswordProvider() PasswordProvider {
	if s == nil {
		return PasswordProvider{}
	}
	return s.provider
}
