package recommender

import "errors"

var (
	// ErrInsufficientTrainingData is returned when the interaction history
	// is empty (or empties out after filtering) and no model can be built.
	ErrInsufficientTrainingData = errors.New("insufficient training data")

	// ErrUnknownIdentifier is returned when an id has no index in the
	// encoder that produced the active snapshot.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrIndexOutOfRange is returned by Decode for an index >= n.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidArgument is returned for malformed caller input such as a
	// non-positive top-k.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSingularSystem is returned when a per-row least-squares solve is
	// numerically degenerate. Fatal to the training run, never to serving.
	ErrSingularSystem = errors.New("singular least-squares system")

	// ErrRetrainInProgress rejects a retrain trigger while a run is active.
	ErrRetrainInProgress = errors.New("retrain already in progress")

	// ErrCollaboratorUnavailable wraps interaction/catalog store failures.
	// The core does not retry; retry policy belongs to the caller.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)
