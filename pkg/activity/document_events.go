package activity

import (
	"slices"
	"strings"
	"time"
)

// Document lifecycle verbs.
const (
	VerbDocumentCreated = "document.created"
	VerbDocumentUpdated = "document.updated"
	VerbDocumentDeleted = "document.deleted"
)

// DocumentEventInput describes the fields shared by document lifecycle events.
type DocumentEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Collection     string
	DocumentID     string
	Version        int
	SnapshotID     string
	ETag           string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	// Changed lists the persisted paths written by the operation.
	Changed    []string
	OccurredAt time.Time
}

// BuildDocumentCreatedEvent constructs an activity event for a saved new
// document.
func BuildDocumentCreatedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentCreated, input)
}

// BuildDocumentUpdatedEvent constructs an activity event for a saved
// mutation.
func BuildDocumentUpdatedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentUpdated, input)
}

// BuildDocumentDeletedEvent constructs an activity event for a removed
// document.
func BuildDocumentDeletedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDocumentDeleted, input)
}

func buildDocumentEvent(verb string, input DocumentEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["version"] = input.Version
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.ETag != "" {
		metadata["etag"] = input.ETag
	}
	if len(input.Changed) > 0 {
		changed := slices.Clone(input.Changed)
		slices.Sort(changed)
		metadata["changed"] = changed
	}

	objectType := strings.TrimSpace(input.Collection)
	if objectType == "" {
		objectType = "document"
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       strings.TrimSpace(input.DocumentID),
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     slices.Clone(input.Recipients),
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}
