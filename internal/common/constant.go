// Package common contains shared constants and sentinel errors used across
// the gateway and client components.
package common

// Header names used on upstream requests.
const (
	CSRFTokenHeaderName = "X-CSRF-Token"
	UserAgent           = "Mozilla/5.0 (compatible; Library-PWA/1.0)"
)

// Keys under which the client persists its session state. The names are
// kept compatible with the browser front end that shares the same backend.
const (
	StorageKeyUser        = "library_user"
	StorageKeyCSRFToken   = "library_csrf_token"
	StorageKeyLogoutToken = "library_logout_token"
	StorageKeySessionID   = "library_session_id"
)
