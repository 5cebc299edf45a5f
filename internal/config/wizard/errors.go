package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errHostRequired      = errors.New("hub host is required")
	errPrincipalRequired = errors.New("principal is required")
	errPortInvalid       = errors.New("port must be a number between 1 and 65535")
	errOwnerRequired     = errors.New("source owner is required")
	errRepoRequired      = errors.New("source repository is required")
	errKeyFileRequired   = errors.New("private key file path is required")
	errPathNotAbsolute   = errors.New("path must be absolute (start with /)")
)
