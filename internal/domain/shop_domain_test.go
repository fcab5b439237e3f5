package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShopDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare store name", input: "acme", want: "acme.myshopify.com"},
		{name: "canonical domain", input: "acme.myshopify.com", want: "acme.myshopify.com"},
		{name: "upper case", input: "ACME.MyShopify.com", want: "acme.myshopify.com"},
		{name: "surrounding whitespace", input: "  acme.myshopify.com\t", want: "acme.myshopify.com"},
		{name: "https url with path and query", input: "https://acme.myshopify.com/admin?x=1", want: "acme.myshopify.com"},
		{name: "http url with bare name", input: "HTTP://Acme", want: "acme.myshopify.com"},
		{name: "trailing slash", input: "foo.myshopify.com/", want: "foo.myshopify.com"},
		{name: "hyphen and digits", input: "my-store-1", want: "my-store-1.myshopify.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeShopDomain(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeShopDomain_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   \t "},
		{name: "protocol only", input: "https://"},
		{name: "query only", input: "?shop=acme"},
		{name: "foreign domain", input: "evil.com"},
		{name: "suffix not at the end", input: "acme.myshopify.com.evil.com"},
		{name: "nested subdomain", input: "a.b.myshopify.com"},
		{name: "suffix without name", input: ".myshopify.com"},
		{name: "leading hyphen", input: "-acme"},
		{name: "underscore", input: "acme_store"},
		{name: "inner space", input: "acme store"},
		{name: "port", input: "acme.myshopify.com:443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeShopDomain(tt.input)

			assert.ErrorIs(t, err, ErrInvalidShopDomain)
			assert.Empty(t, got)
		})
	}
}

func TestNormalizeShopDomain_Idempotent(t *testing.T) {
	inputs := []string{
		"acme",
		"ACME.myshopify.com",
		"https://acme.myshopify.com/admin",
		"foo.myshopify.com/",
		"  my-store-1  ",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once, err := NormalizeShopDomain(input)
			require.NoError(t, err)

			twice, err := NormalizeShopDomain(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeShopDomain_BareNameMatchesFullDomain(t *testing.T) {
	names := []string{"acme", "a", "shop-42", "0day", "long-store-name-with-many-parts"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			bare, err := NormalizeShopDomain(name)
			require.NoError(t, err)

			full, err := NormalizeShopDomain(name + ShopDomainSuffix)
			require.NoError(t, err)

			assert.Equal(t, name+ShopDomainSuffix, bare)
			assert.Equal(t, bare, full)
		})
	}
}

func TestSanitizeShopInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "HTTPS://Acme.myshopify.com/admin/apps", want: "acme.myshopify.com"},
		{input: "acme.myshopify.com?hmac=abc", want: "acme.myshopify.com"},
		{input: "  acme  ", want: "acme"},
		{input: "evil.com/acme.myshopify.com", want: "evil.com"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeShopInput(tt.input))
		})
	}
}
