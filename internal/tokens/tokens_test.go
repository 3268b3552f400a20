package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("test-secret-32-bytes-should-be-long-enough", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}
	tok, err := iss.Issue("0501234567")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if strings.Contains(tok, "0501234567") {
		t.Fatalf("token must not carry the phone in clear text")
	}
	phone, exp, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if phone != "0501234567" {
		t.Fatalf("unexpected phone: got=%q", phone)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry: %v", exp)
	}
}

func TestIssue_DifferentEachTime(t *testing.T) {
	iss, _ := NewIssuer("s", time.Hour)
	a, _ := iss.Issue("0501234567")
	b, _ := iss.Issue("0501234567")
	if a == b {
		t.Fatalf("tokens should use fresh nonces")
	}
}

func TestParse_Expired(t *testing.T) {
	iss, _ := NewIssuer("another-secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, err := iss.Issue("0501234567")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	iss.now = time.Now
	_, _, err = iss.Parse(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParse_WrongSecretFails(t *testing.T) {
	a, _ := NewIssuer("secret-one", time.Hour)
	b, _ := NewIssuer("secret-two", time.Hour)
	tok, _ := a.Issue("0501234567")
	if _, _, err := b.Parse(tok); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParse_Malformed(t *testing.T) {
	iss, _ := NewIssuer("x", time.Hour)
	if _, _, err := iss.Parse("not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParse_AlgNoneRejected(t *testing.T) {
	iss, _ := NewIssuer("x", time.Hour)
	headerEnc := (*jwt.Token)(nil).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := (*jwt.Token)(nil).EncodeSegment([]byte(`{"phn":"AAAA","exp":9999999999}`))
	if _, _, err := iss.Parse(headerEnc + "." + payloadEnc + "."); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParse_TamperedPayload(t *testing.T) {
	iss, _ := NewIssuer("tamper-test-secret", time.Hour)
	tok, _ := iss.Issue("0501234567")
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payload, _ := jwt.NewParser().DecodeSegment(parts[1])
	parts[1] = (*jwt.Token)(nil).EncodeSegment([]byte(strings.Replace(string(payload), `"phn":"`, `"phn":"x`, 1)))
	if _, _, err := iss.Parse(strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestNewIssuer_EmptySecretIsRandom(t *testing.T) {
	a, _ := NewIssuer("", time.Hour)
	b, _ := NewIssuer("", time.Hour)
	tok, _ := a.Issue("0501234567")
	if _, _, err := b.Parse(tok); err == nil {
		t.Fatalf("random secrets must differ between issuers")
	}
}
