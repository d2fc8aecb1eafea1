package services

import (
	"errors"

	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"

	"gorm.io/gorm"
)

// Shared errors
var (
	ErrConcurrentUpdate = domain.NewError(domain.KindConflict, "record was modified by another request, reload and retry")
	ErrVersionMismatch  = domain.NewError(domain.KindConflict, "record version does not match, reload and retry")
)

// lookupErr turns a missing row into the given not-found error
func lookupErr(err error, notFound *domain.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// saveErr turns a lost optimistic update into a conflict
func saveErr(err error) error {
	if errors.Is(err, repositories.ErrStaleVersion) {
		return ErrConcurrentUpdate
	}
	return err
}

// scopeErr reports a resource of another organization with the resource's
// own not-found error
func scopeErr(err error, notFound *domain.Error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	return err
}
