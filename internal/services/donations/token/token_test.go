package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/identity"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestCodec(t *testing.T, c *clock) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{Secret: testSecret, Issuer: "donations", TTL: time.Hour, Now: c.Now})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, mapClaims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, mapClaims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func assertInvalid(t *testing.T, err error) {
	t.Helper()
	if !apperrors.IsKind(err, apperrors.KindInvalidToken) {
		t.Fatalf("expected InvalidToken, got %v", err)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, c)

	for _, role := range []identity.Role{identity.RoleUser, identity.RoleAdmin, identity.RoleSuperAdmin} {
		signed, err := codec.Issue("user-1", role, "u@example.com", time.Minute)
		if err != nil {
			t.Fatalf("issue %s: %v", role, err)
		}
		p, err := codec.Verify(signed)
		if err != nil {
			t.Fatalf("verify %s: %v", role, err)
		}
		if p.SubjectID != "user-1" || p.Role != role || p.Email != "u@example.com" {
			t.Fatalf("principal = %+v", p)
		}
	}
}

func TestVerifyExpiry(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &clock{now: start}
	codec := newTestCodec(t, c)
	signed, err := codec.Issue("user-1", identity.RoleUser, "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c.now = start.Add(59 * time.Second)
	if _, err := codec.Verify(signed); err != nil {
		t.Fatalf("expected valid before expiry: %v", err)
	}
	c.now = start.Add(time.Minute)
	_, err = codec.Verify(signed)
	assertInvalid(t, err)
	c.now = start.Add(time.Hour)
	_, err = codec.Verify(signed)
	assertInvalid(t, err)
}

func TestIssueDefaultTTL(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &clock{now: start}
	codec := newTestCodec(t, c)
	signed, err := codec.Issue("user-1", identity.RoleUser, "", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c.now = start.Add(59 * time.Minute)
	if _, err := codec.Verify(signed); err != nil {
		t.Fatalf("expected default ttl of one hour: %v", err)
	}
}

func TestIssueRejectsGuestAndEmptySubject(t *testing.T) {
	codec := newTestCodec(t, &clock{now: time.Now()})
	if _, err := codec.Issue("", identity.RoleUser, "", time.Minute); err == nil {
		t.Fatal("expected subject error")
	}
	if _, err := codec.Issue("u", identity.RoleGuest, "", time.Minute); err == nil {
		t.Fatal("expected guest role error")
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &clock{now: now}
	codec := newTestCodec(t, c)
	valid := jwt.MapClaims{
		"iss":  "donations",
		"sub":  "user-1",
		"role": "user",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
	with := func(key string, value any) jwt.MapClaims {
		out := jwt.MapClaims{}
		for k, v := range valid {
			out[k] = v
		}
		if value == nil {
			delete(out, key)
		} else {
			out[key] = value
		}
		return out
	}

	good := signRaw(t, jwt.SigningMethodHS256, testSecret, valid)
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "tampered signature", token: tampered},
		{name: "other secret", token: signRaw(t, jwt.SigningMethodHS256, []byte("ffffffffffffffffffffffffffffffff"), valid)},
		{name: "other algorithm", token: signRaw(t, jwt.SigningMethodHS512, testSecret, valid)},
		{name: "none algorithm", token: signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "wrong issuer", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("iss", "other"))},
		{name: "missing exp", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("exp", nil))},
		{name: "past exp", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("exp", now.Add(-time.Second).Unix()))},
		{name: "missing subject", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("sub", nil))},
		{name: "unknown role", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("role", "owner"))},
		{name: "guest role", token: signRaw(t, jwt.SigningMethodHS256, testSecret, with("role", "guest"))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Verify(tc.token)
			assertInvalid(t, err)
		})
	}

	if _, err := codec.Verify(good); err != nil {
		t.Fatalf("control token should verify: %v", err)
	}
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec(Config{Secret: []byte("short"), Issuer: "x"}); err == nil {
		t.Fatal("expected short secret error")
	}
	if _, err := NewCodec(Config{Secret: testSecret}); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DONATIONS_TOKEN_SECRET", "")
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error when secret is missing")
	}

	t.Setenv("DONATIONS_TOKEN_SECRET", "too-short")
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for short secret")
	}

	t.Setenv("DONATIONS_TOKEN_SECRET", string(testSecret))
	t.Setenv("DONATIONS_TOKEN_TTL", "2h")
	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Issuer != "donations" || cfg.TTL != 2*time.Hour {
		t.Fatalf("cfg = %+v", cfg)
	}
}
