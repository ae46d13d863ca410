// Package claims decodes JWT payload segments without verifying signatures
// and resolves database role names from the decoded claim set. Decoding
// failures are local: callers treat them as "no claims available" and continue
// their fallback logic.
package claims

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-entraauth/core"
)

const tokenSegmentCount = 3

var ErrMalformedToken = errors.New("claims: malformed token")

// MalformedTokenError reports a token whose payload could not be decoded:
// wrong segment count, invalid base64, invalid UTF-8, or a non-object JSON
// payload. It is never fatal on its own.
type MalformedTokenError struct {
	Cause error
}

func (e *MalformedTokenError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrMalformedToken.Error()
	}
	return ErrMalformedToken.Error() + ": " + e.Cause.Error()
}

func (e *MalformedTokenError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return ErrMalformedToken
	}
	return errors.Join(ErrMalformedToken, e.Cause)
}

func (e *MalformedTokenError) ToServiceError() *goerrors.Error {
	message := ErrMalformedToken.Error()
	if e != nil && e.Cause != nil {
		message = e.Error()
	}
	return core.EnsureErrorEnvelope(
		goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorMalformedToken),
	)
}

func malformed(cause error) error {
	return &MalformedTokenError{Cause: cause}
}

// Claims is a string-keyed, order-irrelevant claim mapping decoded from a
// token payload.
type Claims map[string]any

// String coerces the named claim to a trimmed string, empty when absent.
func (c Claims) String(name string) string {
	if len(c) == 0 {
		return ""
	}
	return readString(c[name])
}

// Decode splits a three-segment bearer token and decodes its payload segment.
func Decode(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, malformed(errors.New("empty token"))
	}
	segments := strings.Split(trimmed, ".")
	if len(segments) != tokenSegmentCount {
		return nil, malformed(fmt.Errorf("expected %d token segments, got %d", tokenSegmentCount, len(segments)))
	}
	return DecodePayload(segments[1])
}

// DecodePayload decodes a base64url JWT payload segment into a claim mapping.
// The URL-safe alphabet is translated to the standard one and padding is
// restored before decoding; a segment length of 1 mod 4 has no valid encoding
// and is rejected as malformed.
func DecodePayload(segment string) (Claims, error) {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return nil, malformed(errors.New("empty payload segment"))
	}

	normalized := strings.ReplaceAll(trimmed, "-", "+")
	normalized = strings.ReplaceAll(normalized, "_", "/")
	switch len(normalized) % 4 {
	case 1:
		return nil, malformed(fmt.Errorf("payload segment length %d has no valid base64 encoding", len(normalized)))
	case 2:
		normalized += "=="
	case 3:
		normalized += "="
	}

	decoded, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return nil, malformed(err)
	}
	if !utf8.Valid(decoded) {
		return nil, malformed(errors.New("payload is not valid UTF-8"))
	}

	var payload map[string]any
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, malformed(err)
	}
	return Claims(payload), nil
}

func readString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	case json.Number:
		return strings.TrimSpace(typed.String())
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
