package links

import (
	"errors"
	"net/url"
)

const (
	slugMinLength = 3
	slugMaxLength = 100
)

func ValidateSlug(slug string) error {
	if len(slug) < slugMinLength || len(slug) > slugMaxLength {
		return errors.New("slug must be between 3 and 100 characters")
	}
	for i := 0; i < len(slug); i++ {
		c := slug[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return errors.New("slug may only contain lowercase letters, digits and hyphens")
		}
	}
	return nil
}

func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("url must be absolute")
	}

	return nil
}

func ValidateLink(link *Link) error {
	if err := ValidateSlug(link.Slug); err != nil {
		return err
	}
	return ValidateURL(link.URL)
}
