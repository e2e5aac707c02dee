package kernel

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/loader"
	"github.com/lunixbochs/kernelcorn/go/models"
)

var (
	ErrOutOfMemory       = errors.New("out of memory")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrLimitExceeded     = errors.New("heap limit exceeded")
	ErrBootFailure       = errors.New("boot failure")
	ErrHalted            = errors.New("machine halted")
	ErrNoChild           = errors.New("no matching child")

	ErrNotFound         = models.ErrNotFound
	ErrInvalidFormat    = loader.ErrInvalidFormat
	ErrUnsupportedClass = loader.ErrUnsupportedClass
	ErrLoadFailure      = loader.ErrLoadFailure
)
