package scheduler

import (
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

var (
	// ErrAlreadyInProgress rejects a task request that conflicts with an active one.
	ErrAlreadyInProgress = ferrors.InProgressError("checksum task already in progress").Build()

	// ErrInvalidRange rejects an empty or wrapping one-shot range.
	ErrInvalidRange = ferrors.ValidationError("invalid address range").Build()

	// ErrInvalidBudget rejects a byte budget that cannot fit every loaded segment.
	ErrInvalidBudget = ferrors.ValidationError("invalid byte budget").Build()

	// ErrInvalidResourceType rejects an unknown resource type.
	ErrInvalidResourceType = ferrors.ValidationError("invalid resource type").Build()
)
