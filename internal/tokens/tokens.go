package tokens

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

// Prefix precedes the token in the Authorization header.
const Prefix = "PHONE "

var ErrInvalidToken = errors.New("invalid login token")

// Issuer turns a phone number into an opaque login token and back. The phone
// is sealed with XChaCha20-Poly1305 and carried in the "phn" claim of an
// HS256 JWT, so the token reveals nothing and cannot be altered.
type Issuer struct {
	signKey []byte
	seal    cipher.AEAD
	ttl     time.Duration
	now     func() time.Time
}

type claims struct {
	Phone string `json:"phn"`
	jwt.RegisteredClaims
}

// NewIssuer derives the signing and sealing keys from secret. An empty secret
// gets a random one, so tokens only live as long as the process.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = string(buf)
	}
	encKey := blake2b.Sum256([]byte("phonebook/seal\x00" + secret))
	signKey := blake2b.Sum256([]byte("phonebook/sign\x00" + secret))
	aead, err := chacha20poly1305.NewX(encKey[:])
	if err != nil {
		return nil, err
	}
	return &Issuer{signKey: signKey[:], seal: aead, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for phone.
func (i *Issuer) Issue(phone string) (string, error) {
	nonce := make([]byte, i.seal.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := i.seal.Seal(nonce, nonce, []byte(phone), nil)
	now := i.now()
	c := claims{
		Phone: base64.RawURLEncoding.EncodeToString(sealed),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.signKey)
}

// Parse verifies token and returns the phone number and expiry it carries.
func (i *Issuer) Parse(token string) (string, time.Time, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return i.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sealed, err := base64.RawURLEncoding.DecodeString(c.Phone)
	if err != nil || len(sealed) < i.seal.NonceSize() {
		return "", time.Time{}, fmt.Errorf("%w: malformed phone claim", ErrInvalidToken)
	}
	nonce, box := sealed[:i.seal.NonceSize()], sealed[i.seal.NonceSize():]
	phone, err := i.seal.Open(nil, nonce, box, nil)
	if err != nil || len(phone) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: phone claim does not open", ErrInvalidToken)
	}
	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	return string(phone), exp, nil
}
