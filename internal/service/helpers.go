package service

import (
	"database/sql"
	"errors"

	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

// notFoundOrInternal maps sql.ErrNoRows onto a 404 and everything else onto a
// wrapped internal error.
func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
}
