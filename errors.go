package entraauth

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-entraauth/core"
)

var ErrUsernameResolution = errors.New("entraauth: could not determine username from token claims")

// UsernameResolutionError is the only error this package originates: both
// scope tiers were exhausted without any recognized username claim. Credential
// failures are never wrapped in it.
type UsernameResolutionError struct {
	Scopes []string
}

func (e *UsernameResolutionError) Error() string {
	if e == nil || len(e.Scopes) == 0 {
		return ErrUsernameResolution.Error()
	}
	return ErrUsernameResolution.Error() + " (scopes tried: " + strings.Join(e.Scopes, ", ") + ")"
}

func (e *UsernameResolutionError) Unwrap() error {
	return ErrUsernameResolution
}

func (e *UsernameResolutionError) ToServiceError() *goerrors.Error {
	message := ErrUsernameResolution.Error()
	if e != nil && len(e.Scopes) > 0 {
		message = e.Error()
	}
	return core.EnsureErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorUsernameResolutionFailed),
	)
}
