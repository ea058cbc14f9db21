package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/letmevibethatforyou/typeahead/internal/ddb"
	"github.com/urfave/cli/v2"
)

// ItemPutter is the subset of the DynamoDB API used to store users.
type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func putUser(ctx context.Context, client ItemPutter, tableName, indexName string, user directory.User) error {
	item, err := ddb.MarshalRecord(ddb.Record{
		ID:        user.ID,
		IndexName: indexName,
		Object:    user.Fields(),
	})
	if err != nil {
		return err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted user",
		"id", user.ID,
		"name", user.Name,
		"groups", user.Groups,
	)

	return nil
}

func writeUsers(w io.Writer, users []directory.User) error {
	enc := json.NewEncoder(w)
	for _, u := range users {
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("failed to encode user %s: %w", u.ID, err)
		}
	}
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	indexName := c.String("index")
	out := c.String("out")
	count := c.Int("count")

	if tableName == "" && out == "" {
		return fmt.Errorf("one of --table-name or --out is required")
	}
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	seed := c.Uint64("seed")
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed>>1))

	slog.InfoContext(ctx, "Starting user generator",
		"table", tableName,
		"index", indexName,
		"out", out,
		"count", count,
		"seed", seed,
	)

	users := make([]directory.User, 0, count)
	for i := 0; i < count; i++ {
		users = append(users, generateUser(r, c.String("domain")))
	}

	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := writeUsers(f, users); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", out, err)
		}
		slog.InfoContext(ctx, "Wrote users", "path", out, "count", len(users))
	}

	if tableName != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg)

		for i, u := range users {
			if err := putUser(ctx, client, tableName, indexName, u); err != nil {
				return fmt.Errorf("failed to insert user %d: %w", i+1, err)
			}
		}
		slog.InfoContext(ctx, "Successfully generated and inserted all users", "count", len(users))
	}

	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate random directory users into DynamoDB or a JSON-lines file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table name",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index name stored as the sort key",
				EnvVars: []string{"USER_INDEX"},
				Value:   "users",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write users as JSON lines to this file",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of users to generate",
				Value:   1,
			},
			&cli.StringFlag{
				Name:  "domain",
				Usage: "Email domain of generated users",
				Value: "example.com",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed; 0 picks one from the current time",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
