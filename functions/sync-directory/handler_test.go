package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/letmevibethatforyou/typeahead/internal/ddb"
)

type savedObject struct {
	index  string
	object map[string]any
}

type deletedObject struct {
	index string
	id    string
}

type fakeWriter struct {
	saved   []savedObject
	deleted []deletedObject
	err     error
}

func (w *fakeWriter) SaveObject(ctx context.Context, indexName string, object map[string]any) error {
	if w.err != nil {
		return w.err
	}
	w.saved = append(w.saved, savedObject{index: indexName, object: object})
	return nil
}

func (w *fakeWriter) DeleteObject(ctx context.Context, indexName, objectID string) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, deletedObject{index: indexName, id: objectID})
	return nil
}

func newTestHandler(w *fakeWriter) *Handler {
	return NewHandler("users", w, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func parseEvent(t *testing.T, records ...string) ddb.Event {
	t.Helper()
	data := `{"Records": [`
	for i, r := range records {
		if i > 0 {
			data += ","
		}
		data += r
	}
	data += `]}`

	var event ddb.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	return event
}

const (
	insertUser = `{
		"eventID": "1",
		"eventName": "INSERT",
		"dynamodb": {
			"NewImage": {
				"pk": {"S": "u1"},
				"sk": {"S": "users"},
				"object": {"M": {
					"name": {"S": "Ada Lovelace"},
					"email": {"S": "ada@example.com"},
					"groups": {"L": [{"S": "eng"}]},
					"internal_note": {"S": "not indexed"}
				}}
			}
		}
	}`
	modifyOther = `{
		"eventID": "2",
		"eventName": "MODIFY",
		"dynamodb": {
			"NewImage": {
				"pk": {"S": "g1"},
				"sk": {"S": "groups"},
				"object": {"M": {"title": {"S": "Engineering"}}}
			}
		}
	}`
	malformedUser = `{
		"eventID": "3",
		"eventName": "INSERT",
		"dynamodb": {
			"NewImage": {
				"pk": {"S": "u9"},
				"sk": {"S": "users"},
				"object": {"M": {"groups": {"M": {"eng": {"S": "yes"}}}}}
			}
		}
	}`
	missingObject = `{
		"eventID": "4",
		"eventName": "INSERT",
		"dynamodb": {
			"NewImage": {
				"pk": {"S": "u8"},
				"sk": {"S": "users"}
			}
		}
	}`
	missingImage = `{
		"eventID": "5",
		"eventName": "MODIFY",
		"dynamodb": {
			"Keys": {"pk": {"S": "u7"}, "sk": {"S": "users"}}
		}
	}`
	removeUser = `{
		"eventID": "6",
		"eventName": "REMOVE",
		"dynamodb": {
			"Keys": {"pk": {"S": "u2"}, "sk": {"S": "users"}}
		}
	}`
	removeWithoutIndex = `{
		"eventID": "7",
		"eventName": "REMOVE",
		"dynamodb": {
			"Keys": {"pk": {"S": "u3"}}
		}
	}`
	unknownEvent = `{
		"eventID": "8",
		"eventName": "TTL",
		"dynamodb": {}
	}`
)

func TestHandleDynamoDBEvent(t *testing.T) {
	w := &fakeWriter{}
	h := newTestHandler(w)

	event := parseEvent(t,
		insertUser, modifyOther, malformedUser, missingObject,
		missingImage, removeUser, removeWithoutIndex, unknownEvent,
	)

	if err := h.HandleDynamoDBEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleDynamoDBEvent failed: %v", err)
	}

	if len(w.saved) != 2 {
		t.Fatalf("Expected 2 saved objects, got %d: %+v", len(w.saved), w.saved)
	}

	user := w.saved[0]
	if user.index != "users" || user.object["objectID"] != "u1" {
		t.Errorf("Unexpected user save: %+v", user)
	}
	if user.object["name"] != "Ada Lovelace" {
		t.Errorf("Expected name to be indexed, got %v", user.object["name"])
	}
	if _, ok := user.object["internal_note"]; ok {
		t.Error("Expected fields outside the user document to be dropped")
	}
	if groups, ok := user.object["groups"].([]any); !ok || len(groups) != 1 || groups[0] != "eng" {
		t.Errorf("Unexpected groups: %#v", user.object["groups"])
	}

	other := w.saved[1]
	if other.index != "groups" || other.object["objectID"] != "g1" || other.object["title"] != "Engineering" {
		t.Errorf("Expected non-user record to be forwarded as-is, got %+v", other)
	}

	if len(w.deleted) != 1 || w.deleted[0] != (deletedObject{index: "users", id: "u2"}) {
		t.Errorf("Unexpected deletes: %+v", w.deleted)
	}
}

func TestHandleDynamoDBEventWriterError(t *testing.T) {
	boom := errors.New("algolia down")
	w := &fakeWriter{err: boom}
	h := newTestHandler(w)

	err := h.HandleDynamoDBEvent(context.Background(), parseEvent(t, insertUser))
	if !errors.Is(err, boom) {
		t.Errorf("Expected writer error, got %v", err)
	}

	err = h.HandleDynamoDBEvent(context.Background(), parseEvent(t, removeUser))
	if !errors.Is(err, boom) {
		t.Errorf("Expected writer error on delete, got %v", err)
	}
}
