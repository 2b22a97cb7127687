package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lshigami/tutorlab/internal/apperror"
)

// ErrVersionConflict means another writer updated the row since it was read.
var ErrVersionConflict = errors.New("execution was modified concurrently")

func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id)
	}
	return errors.Wrapf(err, "load %s %d", resource, id)
}
