package provision

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/model"
)

func TestPlaceholderEmail(t *testing.T) {
	p := NewPolicy("")

	assert.Equal(t, "sani'sgrains@shops.pricewatch.local", p.PlaceholderEmail("Sani's Grains"))
	assert.Equal(t, "mamaput@shops.pricewatch.local", p.PlaceholderEmail("  Mama \t Put "))
	assert.Equal(t, p.PlaceholderEmail("Sani's Grains"), p.PlaceholderEmail("Sani's Grains"))

	custom := NewPolicy("@example.org")
	assert.Equal(t, "stall7@example.org", custom.PlaceholderEmail("Stall 7"))
}

func TestRandomPassword(t *testing.T) {
	a, err := RandomPassword()
	require.NoError(t, err)
	b, err := RandomPassword()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestMatchMarket(t *testing.T) {
	p := NewPolicy("")
	markets := []model.Market{
		{ID: uuid.New(), Name: "Kasuwar Rimi"},
		{ID: uuid.New(), Name: "Sabon Gari"},
		{ID: uuid.New(), Name: "Straße Markt"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "exact", input: "Kasuwar Rimi", want: "Kasuwar Rimi"},
		{name: "case insensitive", input: "kasuwar RIMI", want: "Kasuwar Rimi"},
		{name: "extra whitespace", input: "  Sabon   Gari ", want: "Sabon Gari"},
		{name: "unicode folding", input: "STRASSE MARKT", want: "Straße Markt"},
		{name: "partial does not match", input: "Rimi", wantErr: ErrNoMarketMatch},
		{name: "empty", input: "   ", wantErr: ErrNoMarketMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.MatchMarket(tt.input, markets)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatchMarket_Ambiguous(t *testing.T) {
	p := NewPolicy("")
	markets := []model.Market{{Name: "Kasuwar Rimi"}, {Name: "kasuwar rimi"}}

	_, err := p.MatchMarket("KASUWAR RIMI", markets)
	assert.ErrorIs(t, err, ErrAmbiguousMarket)
}

func TestNewShopOwner(t *testing.T) {
	p := NewPolicy("")
	market := &model.Market{ID: uuid.New(), Name: "Kasuwar Rimi"}

	user, err := p.NewShopOwner(" Sani's Grains ", market)
	require.NoError(t, err)

	assert.Equal(t, "Sani's Grains", user.Name)
	assert.Equal(t, model.RoleShopOwner, user.Role)
	assert.Equal(t, "Sani's Grains", user.ShopNameValue())
	assert.Equal(t, market.ID, *user.MarketID)
	assert.Equal(t, "sani'sgrains@shops.pricewatch.local", user.Email)
	assert.Len(t, user.Password, 32)
	assert.NoError(t, user.Validate())

	_, err = p.NewShopOwner("Orphan Stall", nil)
	assert.ErrorIs(t, err, ErrNoMarketMatch)
}
