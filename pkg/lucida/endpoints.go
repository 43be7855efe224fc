package lucida

import (
	"net/url"
	"strings"

	"lucidaflow/pkg/errors"
)

const (
	// BaseURL is the default upstream origin
	BaseURL = "https://lucida.to"

	// SearchEndpoint serves search result pages
	SearchEndpoint = "/search"

	// DefaultCountry is used for every provider without an override
	DefaultCountry = "US"

	// DefaultSearchLimit is applied when a caller passes a non-positive limit
	DefaultSearchLimit = 10
)

// supportedServices is the fixed, ordered list of accepted service identifiers
var supportedServices = []string{
	"tidal",
	"qobuz",
	"deezer",
	"soundcloud",
	"amazon_music",
	"yandex_music",
	"spotify",
}

// serviceAliases maps user-facing identifiers to the provider codes the site expects
var serviceAliases = map[string]string{
	"amazon_music": "amazon",
	"yandex_music": "yandex",
}

// serviceCountries holds providers that reject the default region
var serviceCountries = map[string]string{
	"qobuz":  "GB",
	"deezer": "FR",
}

// Services returns the supported service identifiers
func Services() []string {
	out := make([]string, len(supportedServices))
	copy(out, supportedServices)
	return out
}

// ResolveService validates service case-insensitively and returns the provider code
func ResolveService(service string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(service))
	for _, s := range supportedServices {
		if s == normalized {
			if alias, ok := serviceAliases[normalized]; ok {
				return alias, nil
			}
			return normalized, nil
		}
	}
	return "", errors.New(errors.ErrorTypeValidation, 0,
		"invalid service %q, choose from: %s", service, strings.Join(supportedServices, ", "))
}

// CountryFor returns the search region for a provider code
func CountryFor(provider string) string {
	if country, ok := serviceCountries[provider]; ok {
		return country
	}
	return DefaultCountry
}

// GetSearchURL builds the search page URL. Parameters keep the order
// service, country, query, and spaces are encoded as %20.
func GetSearchURL(baseURL, provider, query string) string {
	params := []string{
		"service=" + quote(provider),
		"country=" + quote(CountryFor(provider)),
		"query=" + quote(query),
	}
	return strings.TrimRight(baseURL, "/") + SearchEndpoint + "?" + strings.Join(params, "&")
}

// GetTrackPageURL builds the resolver page URL for a third-party track link
func GetTrackPageURL(baseURL, trackURL string) string {
	params := url.Values{}
	params.Set("url", trackURL)
	return strings.TrimRight(baseURL, "/") + "/?" + params.Encode()
}

// quote percent-encodes v leaving "/" intact, the way the site's own links do
func quote(v string) string {
	escaped := url.QueryEscape(v)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%2F", "/")
}
