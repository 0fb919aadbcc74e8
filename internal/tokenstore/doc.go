// Package tokenstore provides persistent storage abstractions for the
// brokerage access token.
//
// Two backends are supported:
//   - EnvFile: the FYERS_ACCESS_TOKEN line of the local .env credentials
//     file, mirrored into the process environment on write
//   - Keyring: OS-native credential storage (macOS Keychain, Windows
//     Credential Manager, Linux Secret Service)
//
// The authentication flow requires writable storage; both backends are
// writable.
package tokenstore
