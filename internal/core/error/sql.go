package errx

import (
	"database/sql"
	"errors"
	"net/http"
)

// WrapSQL maps database/sql errors to AppError.
func WrapSQL(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return New(err, http.StatusNotFound, DatabaseNotFoundMessage)
	}

	return New(err, http.StatusInternalServerError, DatabaseErrorMessage)
}
