package main

import (
	"context"
	"log/slog"

	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/letmevibethatforyou/typeahead/internal/ddb"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

// ObjectWriter is the subset of the Algolia client the handler needs.
type ObjectWriter interface {
	SaveObject(ctx context.Context, indexName string, object map[string]any) error
	DeleteObject(ctx context.Context, indexName, objectID string) error
}

// Handler mirrors directory table changes into the search index.
type Handler struct {
	userIndex string
	writer    ObjectWriter
	logger    *slog.Logger
}

// NewHandler creates a handler. Records whose sort key equals userIndex are
// decoded as directory users before they are indexed; records for other
// indexes are forwarded as-is.
func NewHandler(userIndex string, writer ObjectWriter, logger *slog.Logger) *Handler {
	return &Handler{
		userIndex: userIndex,
		writer:    writer,
		logger:    logger,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.Event) error {
	h.logger.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record ddb.EventRecord) error {
	switch ddb.OperationOf(record) {
	case ddb.OperationInsert, ddb.OperationModify:
		if record.Change.NewImage == nil {
			h.logger.WarnContext(ctx, "No new image for insert/modify operation, skipping record", "event_id", record.EventID)
			return nil
		}

		parsed, err := ddb.DecodeImage(record.Change.NewImage)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to decode record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}
		if err := parsed.Validate(true); err != nil {
			h.logger.WarnContext(ctx, "Invalid record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}

		object := parsed.AlgoliaObject()
		if parsed.IndexName == h.userIndex {
			user, err := directory.DecodeHit(lookup.Hit{ID: parsed.ID, Fields: parsed.Object})
			if err != nil {
				h.logger.WarnContext(ctx, "Record is not a directory user, skipping", "id", parsed.ID, "error", err)
				return nil
			}
			object = user.Fields()
			object["objectID"] = user.ID
		}

		h.logger.InfoContext(ctx, "Saving object to Algolia", "object_id", parsed.ID, "index", parsed.IndexName)
		return h.writer.SaveObject(ctx, parsed.IndexName, object)

	case ddb.OperationRemove:
		parsed, err := ddb.DecodeImage(record.Change.Keys)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to decode keys for delete operation, skipping", "event_id", record.EventID, "error", err)
			return nil
		}
		if err := parsed.Validate(false); err != nil {
			h.logger.WarnContext(ctx, "Invalid delete record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}

		h.logger.InfoContext(ctx, "Deleting object from Algolia", "object_id", parsed.ID, "index", parsed.IndexName)
		return h.writer.DeleteObject(ctx, parsed.IndexName, parsed.ID)

	default:
		h.logger.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}
