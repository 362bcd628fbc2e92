// Package auth implements the TickTick OAuth2 authorization-code flow for a
// single local user.
//
// The package has three parts:
//   - FileTokenStore keeps one access/refresh token pair encrypted at rest
//     (AES-256-GCM) next to a generated key file, both owner-only.
//   - CallbackReceiver is a short-lived local HTTP listener bound to the port
//     of the registered redirect URI. It captures the first redirect that
//     carries a code or an error.
//   - Flow ties both together: it serves cached tokens, refreshes them when
//     they are older than TokenTTL, and drives the browser login otherwise.
//
// # Token lifetime
//
// The provider does not reliably report an expiry, so a token is treated as
// stale once it is TokenTTL old and refreshed proactively. A failed refresh
// inside AccessToken is reported as "no token" so callers fall back to Login.
//
// # Key rotation
//
// Deleting or regenerating the key file invalidates the stored ciphertext.
// Load then reports no token and the next command asks for a fresh login.
// This is expected behaviour.
package auth
