package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/typeahead"
	"github.com/letmevibethatforyou/typeahead/algolia"
	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/letmevibethatforyou/typeahead/lookup"
	"github.com/urfave/cli/v2"
)

const (
	defaultLimit    = 10
	defaultCacheTTL = time.Minute
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	app := &cli.App{
		Name:      "typeahead",
		Usage:     "Drive a debounced directory search from stdin",
		UsageText: "typeahead [flags] < keystrokes\n\nEach input line replaces the search term; a line reading /clear clears it.\nPublished states are written to stdout as JSON lines.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Search backend: memory or algolia",
				Value:   "memory",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON-lines file of users for the memory backend",
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index name",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   "users",
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Group ID the membership filter applies to",
			},
			&cli.StringFlag{
				Name:    "membership",
				Aliases: []string{"m"},
				Usage:   "any, members or non-members",
				Value:   "any",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "User ID never to return; repeatable",
			},
			&cli.BoolFlag{
				Name:  "include-disabled",
				Usage: "Also return disabled users",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results per lookup",
				Value:   defaultLimit,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Debounce delay",
				Value: typeahead.DefaultDelay,
			},
			&cli.IntFlag{
				Name:  "cache-size",
				Usage: "Number of lookups to cache; 0 disables the cache",
			},
			&cli.DurationFlag{
				Name:  "cache-ttl",
				Usage: "Lifetime of cached lookups",
				Value: defaultCacheTTL,
			},
			&cli.BoolFlag{
				Name:  "cancel-superseded",
				Usage: "Cancel in-flight lookups when the term changes",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	limit := c.Int("limit")
	if limit <= 0 {
		slog.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	membership, ok := directory.ParseMembership(c.String("membership"))
	if !ok {
		return fmt.Errorf("unknown membership %q", c.String("membership"))
	}
	scope := directory.Scope{
		GroupID:         strings.TrimSpace(c.String("group")),
		Membership:      membership,
		ExcludeIDs:      c.StringSlice("exclude"),
		IncludeDisabled: c.Bool("include-disabled"),
	}
	if scope.Membership != directory.AnyUser && scope.GroupID == "" {
		return fmt.Errorf("--membership %s requires --group", scope.Membership)
	}

	searcher, err := newSearcher(c)
	if err != nil {
		return err
	}

	search := directory.Search(searcher, limit)
	if size := c.Int("cache-size"); size > 0 {
		search = typeahead.Cached(search, size, c.Duration("cache-ttl"), directory.Scope.Key)
	}

	opts := []typeahead.Option{
		typeahead.WithDelay(c.Duration("delay")),
		typeahead.WithLogger(slog.Default()),
		typeahead.WithErrorHandler(func(term string, err error) {
			slog.WarnContext(ctx, "lookup failed", "term", term, "error", err)
		}),
	}
	if c.Bool("cancel-superseded") {
		opts = append(opts, typeahead.WithCancelSuperseded())
	}

	slog.InfoContext(ctx, "starting session",
		"backend", c.String("backend"),
		"group", scope.GroupID,
		"membership", scope.Membership.String(),
		"limit", limit,
		"delay", c.Duration("delay"),
	)

	session := typeahead.New(search, scope, opts...)
	return run(ctx, session, os.Stdin, os.Stdout)
}

func newSearcher(c *cli.Context) (lookup.Searcher, error) {
	ctx := c.Context

	switch backend := strings.ToLower(c.String("backend")); backend {
	case "memory":
		path := c.String("data")
		if path == "" {
			return nil, fmt.Errorf("--data is required for the memory backend")
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open data file: %w", err)
		}
		defer f.Close()

		index, err := loadUsers(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load users from %s: %w", path, err)
		}
		slog.InfoContext(ctx, "loaded users", "path", path, "count", index.Len())
		return index, nil

	case "algolia":
		var fetchSecrets algolia.FetchSecrets
		if arn := strings.TrimSpace(c.String("algolia-secret-arn")); arn != "" {
			slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", arn)
			cfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load AWS config: %w", err)
			}
			fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), arn)
		} else {
			fetchSecrets = algolia.EnvSecrets()
		}
		return algolia.NewSearcher(algolia.NewClient(fetchSecrets), strings.TrimSpace(c.String("index"))), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
