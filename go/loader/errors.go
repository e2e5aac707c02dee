package loader

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidFormat    = errors.New("invalid executable format")
	ErrUnsupportedClass = errors.New("unsupported ELF class, only 32 bit is supported")
	ErrLoadFailure      = errors.New("failed to load image")
)
