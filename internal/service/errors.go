// Package service implements the desk's business operations.
package service

import "errors"

var (
	// ErrAccessDenied means the access policy rejected the actor. It adds
	// no information about the denied resource.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation means a mutation payload is malformed; the caller
	// must correct the input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials means the login email/password pair did not
	// match a desk user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
