package models

import (
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("image not found")

// ImageSource is the read-only archive exec and boot look program images up in.
type ImageSource interface {
	Find(name string) ([]byte, error)
}
