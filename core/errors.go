package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput                 = "ENTRAAUTH_BAD_INPUT"
	ErrorMalformedToken           = "ENTRAAUTH_MALFORMED_TOKEN"
	ErrorCredentialRequired       = "ENTRAAUTH_CREDENTIAL_REQUIRED"
	ErrorUsernameResolutionFailed = "ENTRAAUTH_USERNAME_RESOLUTION_FAILED"
)

// NewBadInputError reports invalid caller input (nil configs, unknown scopes).
func NewBadInputError(message string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, goerrors.CategoryBadInput).
			WithTextCode(ErrorBadInput),
	)
}

// NewCredentialRequiredError reports a missing token credential where one is
// mandatory and no default chain applies.
func NewCredentialRequiredError() *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New("core: token credential is required", goerrors.CategoryBadInput).
			WithTextCode(ErrorCredentialRequired),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = errorHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = ErrorBadInput
	}
	return err
}

func errorHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// EnsureErrorEnvelope fills default codes on rich errors produced by the
// other entraauth packages. Credential-source failures never pass through
// here; they surface to callers unchanged.
func EnsureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	return ensureErrorEnvelope(err)
}
