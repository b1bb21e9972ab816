package links

import (
	"strings"
	"testing"
)

func TestValidateSlug(t *testing.T) {
	valid := []string{"abc", "mi-link", "a1b2c3", "old-link", strings.Repeat("a", 100)}
	for _, slug := range valid {
		if err := ValidateSlug(slug); err != nil {
			t.Errorf("ValidateSlug(%q) = %v, want nil", slug, err)
		}
	}

	invalid := []string{"", "ab", strings.Repeat("a", 101), "UPPER", "with space", "under_score", "slash/y", "colon:y"}
	for _, slug := range invalid {
		if err := ValidateSlug(slug); err == nil {
			t.Errorf("ValidateSlug(%q) = nil, want error", slug)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://example.com", "http://example.com/path?q=1"}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{"", "ftp://example.com", "example.com", "https://", "//example.com"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestLinkExpired(t *testing.T) {
	exp := int64(1000)

	link := &Link{ExpiresAt: nil}
	if link.Expired(5000) {
		t.Error("link without expiration should never expire")
	}

	link = &Link{ExpiresAt: &exp}
	if link.Expired(999) {
		t.Error("link should not be expired before expires_at")
	}
	if !link.Expired(1000) {
		t.Error("link should be expired at expires_at")
	}
}
