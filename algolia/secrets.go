package algolia

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
)

// Secrets holds the Algolia application credentials. Secrets Manager
// entries use the JSON field names.
type Secrets struct {
	AppID  string `json:"app_id"`
	APIKey string `json:"api_key"`
}

func (s Secrets) validate() error {
	if s.AppID == "" {
		return errors.New("algolia: app ID is empty")
	}
	if s.APIKey == "" {
		return errors.New("algolia: API key is empty")
	}
	return nil
}

// FetchSecrets retrieves Algolia credentials.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns fixed credentials.
func StaticSecrets(appID, apiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{AppID: appID, APIKey: apiKey}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		s := Secrets{
			AppID:  os.Getenv("ALGOLIA_APP_ID"),
			APIKey: os.Getenv("ALGOLIA_API_KEY"),
		}
		if s.AppID == "" {
			return Secrets{}, errors.New("ALGOLIA_APP_ID environment variable is not set")
		}
		if s.APIKey == "" {
			return Secrets{}, errors.New("ALGOLIA_API_KEY environment variable is not set")
		}
		return s, nil
	}
}

// SecretsManagerClient is the subset of the Secrets Manager API used here.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets reads credentials from the secret "{env}/algolia".
func AWSSecrets(ctx context.Context, client SecretsManagerClient, env string) FetchSecrets {
	return AWSSecretsFromARN(ctx, client, fmt.Sprintf("%s/algolia", env))
}

// AWSSecretsFromARN reads credentials from the secret with the given ID or ARN.
func AWSSecretsFromARN(ctx context.Context, client SecretsManagerClient, secretID string) FetchSecrets {
	return func() (Secrets, error) {
		out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			return Secrets{}, errors.Wrapf(err, "failed to get secret %s from AWS Secrets Manager", secretID)
		}
		if out.SecretString == nil {
			return Secrets{}, errors.Newf("secret %s has no string value", secretID)
		}

		var s Secrets
		if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &s); err != nil {
			return Secrets{}, errors.Wrapf(err, "failed to unmarshal secret %s", secretID)
		}
		return s, nil
	}
}
