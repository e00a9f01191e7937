package history

import (
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = ferrors.StorageError("could not open report history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = ferrors.StorageError("failed to initialize report history schema").Build()

	// ErrAppendFailed indicates appending a report failed.
	ErrAppendFailed = ferrors.StorageError("failed to append report to history").Build()

	// ErrQueryFailed indicates querying the history failed.
	ErrQueryFailed = ferrors.StorageError("failed to query report history").Build()
)
