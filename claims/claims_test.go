package claims

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodePayload_RestoresPadding(t *testing.T) {
	// Payload bodies sized so the raw base64url segment lands on each
	// remainder class mod 4.
	cases := []struct {
		name  string
		value string
	}{
		{"remainder_0", "ab"},
		{"remainder_2", "abc"},
		{"remainder_3", "a"},
		{"longer_payload", "a longer value that needs no special care"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := json.Marshal(map[string]any{"upn": tc.value})
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}
			segment := base64.RawURLEncoding.EncodeToString(payload)

			decoded, err := DecodePayload(segment)
			if err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if decoded.String("upn") != strings.TrimSpace(tc.value) {
				t.Fatalf("expected upn %q, got %q", tc.value, decoded.String("upn"))
			}
		})
	}
}

func TestDecodePayload_RemainderOneIsMalformed(t *testing.T) {
	segment := base64.RawURLEncoding.EncodeToString([]byte(`{"upn":"xx"}`))
	segment += "A"
	if len(segment)%4 != 1 {
		t.Fatalf("fixture must have remainder 1, got %d", len(segment)%4)
	}

	_, err := DecodePayload(segment)
	if !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestDecodePayload_TranslatesURLSafeAlphabet(t *testing.T) {
	// base64url of `{"upn": "ïûþ"}`; contains both '-' and '_' and needs one
	// padding character once translated.
	segment := "eyJ1cG4iOiAiw6_Du8O-In0"
	if !strings.Contains(segment, "-") || !strings.Contains(segment, "_") {
		t.Fatal("fixture must exercise both url-safe characters")
	}

	decoded, err := DecodePayload(segment)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.String("upn") != "ïûþ" {
		t.Fatalf("expected upn claim to survive alphabet translation, got %q", decoded.String("upn"))
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		segment string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"invalid_base64", "!!!not-base64!!!"},
		{"invalid_utf8", base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd, 0xfc})},
		{"not_json", base64.RawURLEncoding.EncodeToString([]byte("plain text"))},
		{"json_array", base64.RawURLEncoding.EncodeToString([]byte(`["not","an","object"]`))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePayload(tc.segment)
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestDecode_SegmentCount(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"upn":"svc"}`))
	cases := []struct {
		name  string
		token string
		valid bool
	}{
		{"three_segments", "header." + payload + ".signature", true},
		{"two_segments", "header." + payload, false},
		{"four_segments", "header." + payload + ".sig.extra", false},
		{"opaque", "not-a-jwt", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Decode(tc.token)
			if tc.valid {
				if err != nil {
					t.Fatalf("decode token: %v", err)
				}
				if decoded.String("upn") != "svc" {
					t.Fatalf("expected upn claim, got %q", decoded.String("upn"))
				}
				return
			}
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestMalformedTokenError_ToServiceError(t *testing.T) {
	_, err := DecodePayload("!!!")
	var malformedErr *MalformedTokenError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("expected MalformedTokenError, got %T", err)
	}
	rich := malformedErr.ToServiceError()
	if rich.TextCode != "ENTRAAUTH_MALFORMED_TOKEN" {
		t.Fatalf("expected malformed-token text code, got %q", rich.TextCode)
	}
}

func TestClaims_StringCoercion(t *testing.T) {
	decoded := Claims{
		"upn":   " alice@example.com ",
		"count": float64(7),
		"none":  nil,
	}
	if decoded.String("upn") != "alice@example.com" {
		t.Fatalf("expected trimmed string, got %q", decoded.String("upn"))
	}
	if decoded.String("count") != "7" {
		t.Fatalf("expected numeric coercion, got %q", decoded.String("count"))
	}
	if decoded.String("none") != "" {
		t.Fatalf("expected empty string for nil claim, got %q", decoded.String("none"))
	}
	if decoded.String("absent") != "" {
		t.Fatalf("expected empty string for absent claim, got %q", decoded.String("absent"))
	}
}
