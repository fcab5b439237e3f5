package domain

import (
	"regexp"
	"strings"
)

// ShopDomainSuffix is the suffix every canonical shop domain carries
const ShopDomainSuffix = ".myshopify.com"

var (
	storeNamePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)
	protocolPattern   = regexp.MustCompile(`^https?://`)
)

// SanitizeShopInput lower-cases the input and strips protocol, query and path.
// The result is not validated.
func SanitizeShopInput(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = protocolPattern.ReplaceAllString(s, "")
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}

// NormalizeShopDomain returns the canonical <name>.myshopify.com form of value.
// A bare store name is suffixed; anything else that does not match the
// canonical pattern is rejected with ErrInvalidShopDomain.
func NormalizeShopDomain(value string) (string, error) {
	s := SanitizeShopInput(value)
	if s == "" {
		return "", ErrInvalidShopDomain
	}
	if strings.HasSuffix(s, ShopDomainSuffix) {
		if !shopDomainPattern.MatchString(s) {
			return "", ErrInvalidShopDomain
		}
		return s, nil
	}
	if storeNamePattern.MatchString(s) {
		return s + ShopDomainSuffix, nil
	}
	return "", ErrInvalidShopDomain
}
