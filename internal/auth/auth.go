// Package auth logs residents in by phone number. A number is accepted when
// it appears on an active page; the page title becomes the display identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/activity"
	"github.com/ypb/phonebook/internal/corpus"
	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/internal/sessions"
	"github.com/ypb/phonebook/internal/tokens"
	"github.com/ypb/phonebook/pkg/metrics"
)

var (
	ErrPhoneTooShort = errors.New("login phone number is too short")
	ErrLoginNotFound = errors.New("phone number not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAdminRequired = errors.New("admin required")
)

// FirstLoginTitle identifies the caller while the directory has no phone
// numbers yet, so the first pages can be created.
const FirstLoginTitle = "כניסה ראשונית"

// Login is a successful login.
type Login struct {
	Token string `json:"auth"`
	Title string `json:"authTitle"`
	Phone string `json:"-"`
}

// Service resolves logins and checks tokens.
type Service struct {
	cache      *corpus.Cache
	issuer     *tokens.Issuer
	revoker    *sessions.Revoker
	activity   activity.Logger
	special    map[string]string
	adminPhone string
}

type Options struct {
	// Special maps system numbers to fixed titles. They skip the phone index.
	Special    map[string]string
	AdminPhone string
	Revoker    *sessions.Revoker
	Activity   activity.Logger
}

func NewService(cache *corpus.Cache, issuer *tokens.Issuer, opts Options) *Service {
	s := &Service{
		cache:      cache,
		issuer:     issuer,
		revoker:    opts.Revoker,
		activity:   opts.Activity,
		special:    make(map[string]string, len(opts.Special)),
		adminPhone: identity.StripPhone(opts.AdminPhone),
	}
	for phone, title := range opts.Special {
		s.special[identity.StripPhone(phone)] = title
	}
	if s.activity == nil {
		s.activity = activity.LogSink{}
	}
	return s
}

// Login resolves phone to a page and issues a token. A miss reloads the
// corpus once before giving up, since the page may have just been added.
func (s *Service) Login(ctx context.Context, phone string) (Login, error) {
	stripped := identity.StripPhone(phone)
	if title, ok := s.special[stripped]; ok {
		tok, err := s.issuer.Issue(stripped)
		if err != nil {
			return Login{}, err
		}
		metrics.LoginTotal.WithLabelValues("special").Inc()
		s.activity.Info(ctx, fmt.Sprintf("בוצעה כניסה למערכת בעזרת המספר *%s*", phone))
		return Login{Token: tok, Title: title, Phone: stripped}, nil
	}

	if len(stripped) < identity.MinPhoneDigits {
		metrics.LoginTotal.WithLabelValues("too_short").Inc()
		return Login{}, ErrPhoneTooShort
	}

	title, err := s.resolve(ctx, stripped)
	if err != nil {
		if errors.Is(err, ErrLoginNotFound) {
			metrics.LoginTotal.WithLabelValues("not_found").Inc()
			s.activity.Info(ctx, fmt.Sprintf("בוצע נסיון כושל להכנס למערכת מהמספר *%s*", phone))
		}
		return Login{}, err
	}
	tok, err := s.issuer.Issue(stripped)
	if err != nil {
		return Login{}, err
	}
	metrics.LoginTotal.WithLabelValues("ok").Inc()
	s.activity.Info(ctx, fmt.Sprintf(`בוצעה כניסה למערכת ע"י *%s* בעזרת המספר *%s*`, title, phone))
	return Login{Token: tok, Title: title, Phone: stripped}, nil
}

func (s *Service) resolve(ctx context.Context, stripped string) (string, error) {
	snap, err := s.cache.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if p, ok := snap.Phones().Lookup(stripped); ok {
		return p.Title, nil
	}
	if snap, err = s.cache.Refresh(ctx); err != nil {
		return "", err
	}
	if p, ok := snap.Phones().Lookup(stripped); ok {
		return p.Title, nil
	}
	if snap.Phones().Len() == 0 {
		return FirstLoginTitle, nil
	}
	return "", ErrLoginNotFound
}

// Check validates a token and returns the caller behind it. Special numbers
// are always accepted; other numbers must still be listed on some page.
func (s *Service) Check(ctx context.Context, token string, requireAdmin bool) (access.Caller, error) {
	phone, _, err := s.issuer.Parse(token)
	if err != nil {
		return access.GuestCaller, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	revoked, err := s.revoker.IsRevoked(ctx, token)
	if err != nil {
		return access.GuestCaller, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return access.GuestCaller, fmt.Errorf("%w: token was logged out", ErrUnauthorized)
	}

	stripped := identity.StripPhone(phone)
	if title, ok := s.special[stripped]; ok {
		role := access.System
		if stripped == s.adminPhone {
			role = access.Admin
		}
		return access.Caller{Role: role, Phone: stripped, Title: title}, nil
	}
	if requireAdmin {
		return access.GuestCaller, fmt.Errorf("%w: %s", ErrAdminRequired, phone)
	}

	snap, err := s.cache.Snapshot(ctx)
	if err != nil {
		return access.GuestCaller, err
	}
	caller := access.Caller{Role: access.Resident, Phone: stripped}
	if p, ok := snap.Phones().Lookup(stripped); ok {
		caller.Title = p.Title
	} else if snap.Phones().Len() > 0 {
		return access.GuestCaller, fmt.Errorf("%w: phone %s is no longer listed", ErrUnauthorized, stripped)
	}
	return caller, nil
}

// Logout revokes token until it would have expired.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, exp, err := s.issuer.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	ttl := time.Until(exp)
	if exp.IsZero() {
		ttl = 0
	}
	return s.revoker.Revoke(ctx, token, ttl)
}

// DisplayTitle names a phone number in activity messages: the special title,
// "title (phone)" for a listed number, or the bare number.
func (s *Service) DisplayTitle(ctx context.Context, phone string) string {
	if title, ok := s.special[identity.StripPhone(phone)]; ok {
		return title
	}
	snap, err := s.cache.Snapshot(ctx)
	if err != nil {
		return phone
	}
	return snap.Phones().DisplayPhone(phone)
}
