package eventstore

import (
	"git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open event store database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize event store schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.EventStoreError("failed to append event to store").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.EventStoreError("failed to query events from store").Build()

	// ErrUnmarshalPayloadFailed indicates JSON unmarshaling of event payload failed.
	ErrUnmarshalPayloadFailed = errors.EventStoreError("failed to unmarshal event payload").Build()
)

// wrap attaches cause to a sentinel; the result still matches it with errors.Is.
func wrap(sentinel *errors.ClassifiedError, cause error) error {
	return errors.WrapError(cause, sentinel.Category(), sentinel.Message()).Build()
}
