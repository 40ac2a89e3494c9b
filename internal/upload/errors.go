package upload

import "errors"

var (
	// ErrNotAddressable means no dataset root could be resolved from the
	// given paths.
	ErrNotAddressable = errors.New("no dataset root addressable from the given paths")

	// ErrFailedValidation marks an asset blocked by validation findings.
	ErrFailedValidation = errors.New("failed validation")

	// ErrAssetExists is raised when the "error" conflict policy hits an
	// existing remote asset.
	ErrAssetExists = errors.New("asset exists")

	// ErrInvalidPolicy marks an unrecognized conflict policy value.
	ErrInvalidPolicy = errors.New("invalid value for existing")

	// ErrInvalidIdentifier marks a dataset identifier that does not follow
	// the archive's convention.
	ErrInvalidIdentifier = errors.New("invalid dataset identifier")

	// ErrTransfer wraps failures reported by the transfer collaborator.
	ErrTransfer = errors.New("transfer failed")

	// ErrDuplicatePath means two assets mapped to the same logical path in
	// one run.
	ErrDuplicatePath = errors.New("duplicate logical path")
)
