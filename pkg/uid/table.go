package uid

import "github.com/google/uuid"

// NewTableID returns a random table identifier.
func NewTableID() string {
	return uuid.NewString()
}

// IsTableID reports whether id looks like something NewTableID produced.
func IsTableID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
