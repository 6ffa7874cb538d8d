package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a random identifier. An empty prefix yields a bare UUID.
func New(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}
