package registry

import "errors"

var (
	ErrEmptyName       = errors.New("name is empty")
	ErrNameTaken       = errors.New("name already registered")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrEmptyOwner      = errors.New("owner identifier is empty")
	ErrOwnerRegistered = errors.New("owner already holds a name")
)

// Code returns the stable transport code for a registry error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmptyName):
		return "empty_name"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, ErrEmptyOwner):
		return "empty_owner"
	case errors.Is(err, ErrOwnerRegistered):
		return "owner_registered"
	default:
		return "internal"
	}
}

// IsValidation reports whether err is a deterministic validation outcome
// rather than a storage failure.
func IsValidation(err error) bool {
	return Code(err) != "internal"
}
