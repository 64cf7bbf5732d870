package marketplace

import "errors"

var (
	// Credential / token exchange errors
	ErrAuthFailed   = errors.New("marketplace: authentication failed")
	ErrTokenExpired = errors.New("marketplace: access token expired")

	// Upstream API errors
	ErrUpstreamUnavailable = errors.New("marketplace: upstream temporarily unavailable")
	ErrUpstreamRequest     = errors.New("marketplace: upstream request failed")
	ErrInvalidResponse     = errors.New("marketplace: invalid upstream response")

	// Webhook errors. A bad signature and a malformed envelope are distinct
	// failure kinds: the former is rejected with 401, the latter with 400.
	ErrSignatureMismatch = errors.New("marketplace: webhook signature mismatch")
	ErrMalformedWebhook  = errors.New("marketplace: malformed webhook envelope")
	ErrShopNotFound      = errors.New("marketplace: shop not registered")
)
