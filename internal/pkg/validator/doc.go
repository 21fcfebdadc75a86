// Package validator provides a small validation abstraction for request and
// domain values.
//
// Business code should depend on the Validator interface so validation can be
// shared and tested consistently. The concrete implementation is backed by
// go-playground/validator v10 with English translations.
package validator
