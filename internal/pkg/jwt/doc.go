// Package jwt issues and verifies HS512 bearer tokens for host applications.
//
// The token subject identifies the host session that owns a dialog; context
// helpers carry the verified claims from the HTTP middleware to handlers.
package jwt
