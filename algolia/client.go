// Package algolia backs typeahead lookups with an Algolia index and keeps
// that index in sync with the directory.
package algolia

import (
	"context"
	"fmt"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/transport"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/letmevibethatforyou/typeahead/algolia"

// Client lazily creates the Algolia API client on first use, so credentials
// are only fetched when a request is actually made.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*search.Configuration)

// WithRequester replaces the HTTP layer of the Algolia client.
func WithRequester(r transport.Requester) ClientOption {
	return func(cfg *search.Configuration) {
		cfg.Requester = r
	}
}

// NewClient creates a client that obtains credentials from fetchSecrets.
func NewClient(fetchSecrets FetchSecrets, opts ...ClientOption) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}
		if err := secrets.validate(); err != nil {
			return nil, err
		}
		cfg := search.Configuration{
			AppID:  secrets.AppID,
			APIKey: secrets.APIKey,
		}
		for _, opt := range opts {
			opt(&cfg)
		}
		return search.NewClientWithConfig(cfg), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer(tracerName),
	}
}

func (c *Client) index(ctx context.Context, span trace.Span, indexName string) (*search.Index, error) {
	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return nil, err
	}
	return client.InitIndex(indexName), nil
}

// SaveObject upserts one object. The object must carry an objectID.
func (c *Client) SaveObject(ctx context.Context, indexName string, object map[string]any) error {
	ctx, span := c.tracer.Start(ctx, "algolia.save_object",
		trace.WithAttributes(attribute.String("algolia.index_name", indexName)),
	)
	defer span.End()

	if id, ok := object["objectID"].(string); ok {
		span.SetAttributes(attribute.String("algolia.object_id", id))
	}

	index, err := c.index(ctx, span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.SaveObject(object, ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to save object to index %s", indexName))
		return errors.Wrapf(err, "failed to save object to Algolia index %s", indexName)
	}

	span.SetStatus(codes.Ok, "object saved")
	return nil
}

// DeleteObject removes one object.
func (c *Client) DeleteObject(ctx context.Context, indexName, objectID string) error {
	ctx, span := c.tracer.Start(ctx, "algolia.delete_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", objectID),
		),
	)
	defer span.End()

	index, err := c.index(ctx, span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.DeleteObject(objectID, ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to delete object from index %s", indexName))
		return errors.Wrapf(err, "failed to delete object from Algolia index %s", indexName)
	}

	span.SetStatus(codes.Ok, "object deleted")
	return nil
}

// SaveObjects upserts objects in one batch.
func (c *Client) SaveObjects(ctx context.Context, indexName string, objects []map[string]any) error {
	if len(objects) == 0 {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "algolia.save_objects",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(objects)),
		),
	)
	defer span.End()

	index, err := c.index(ctx, span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.SaveObjects(objects, ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to save %d objects to index %s", len(objects), indexName))
		return errors.Wrapf(err, "failed to batch save objects to Algolia index %s", indexName)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("saved %d objects", len(objects)))
	return nil
}
