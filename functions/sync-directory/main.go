package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/typeahead/algolia"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sync-directory",
		Usage: "Sync directory table stream events to Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user-index",
				Usage:   "Index name (sort key) of directory user records",
				EnvVars: []string{"USER_INDEX"},
				Value:   "users",
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of the Secrets Manager secret holding Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
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

	logger := slog.Default()
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	env := c.String("env")
	secretARN := c.String("algolia-secret-arn")
	appID := c.String("algolia-app-id")
	apiKey := c.String("algolia-api-key")

	logger.InfoContext(ctx, "Starting directory sync", "user_index", c.String("user-index"), "environment", env)

	var fetchSecrets algolia.FetchSecrets
	switch {
	case env != "" || secretARN != "":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}
		client := secretsmanager.NewFromConfig(cfg)
		if env != "" {
			logger.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
			fetchSecrets = algolia.AWSSecrets(ctx, client, env)
		} else {
			logger.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "secret_arn", secretARN)
			fetchSecrets = algolia.AWSSecretsFromARN(ctx, client, secretARN)
		}
	case appID != "" && apiKey != "":
		logger.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = algolia.StaticSecrets(appID, apiKey)
	default:
		logger.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = algolia.EnvSecrets()
	}

	handler := NewHandler(c.String("user-index"), algolia.NewClient(fetchSecrets), logger)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		logger.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		logger.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
