// Package provision holds the rules for creating shop owners implicitly when an
// approved report names a shop that has no account yet. It does no I/O.
package provision

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pricewatch/internal/model"
)

// DefaultEmailDomain is used when no domain is configured.
const DefaultEmailDomain = "shops.pricewatch.local"

var (
	// ErrNoMarketMatch is returned when no market name matches.
	ErrNoMarketMatch = errors.New("no market matches")
	// ErrAmbiguousMarket is returned when more than one market matches.
	ErrAmbiguousMarket = errors.New("market name is ambiguous")
)

// Policy generates placeholder identities for auto-provisioned shop owners.
type Policy struct {
	emailDomain string
}

// NewPolicy creates a policy using emailDomain for placeholder addresses.
func NewPolicy(emailDomain string) *Policy {
	emailDomain = strings.TrimPrefix(strings.TrimSpace(emailDomain), "@")
	if emailDomain == "" {
		emailDomain = DefaultEmailDomain
	}
	return &Policy{emailDomain: emailDomain}
}

// PlaceholderEmail derives a deterministic address from a shop name: lower-cased,
// all whitespace removed, followed by the configured domain.
func (p *Policy) PlaceholderEmail(shopName string) string {
	local := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(shopName))
	return local + "@" + p.emailDomain
}

// RandomPassword returns 16 random bytes, hex encoded.
func RandomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewShopOwner builds an unsaved ShopOwner for shopName in market with a random
// password nobody knows; the account must be reset before anyone can log in.
func (p *Policy) NewShopOwner(shopName string, market *model.Market) (*model.User, error) {
	if market == nil {
		return nil, ErrNoMarketMatch
	}
	password, err := RandomPassword()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(shopName)
	marketID := market.ID
	return &model.User{
		Name:     name,
		Email:    p.PlaceholderEmail(name),
		Password: password,
		Role:     model.RoleShopOwner,
		ShopName: &name,
		MarketID: &marketID,
	}, nil
}

// MatchMarket picks the market whose name equals name after Unicode
// normalisation, whitespace collapsing and case folding. Partial matches never count.
func (p *Policy) MatchMarket(name string, markets []model.Market) (*model.Market, error) {
	key := p.fold(name)
	if key == "" {
		return nil, ErrNoMarketMatch
	}
	var found *model.Market
	for i := range markets {
		if p.fold(markets[i].Name) != key {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousMarket
		}
		found = &markets[i]
	}
	if found == nil {
		return nil, ErrNoMarketMatch
	}
	return found, nil
}

func (p *Policy) fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	// Casers are stateful; one per call keeps Policy safe for concurrent use.
	return cases.Fold().String(s)
}
