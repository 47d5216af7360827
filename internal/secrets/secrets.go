package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swapi-vault/movies-api/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/sirupsen/logrus"
)

// Loader reads a JSON key/value secret from AWS Secrets Manager
type Loader struct {
	api    secretsmanageriface.SecretsManagerAPI
	logger *logrus.Logger
}

// NewLoader creates a loader backed by a new AWS session
func NewLoader(awsCfg *config.AWSConfig, logger *logrus.Logger) (*Loader, error) {
	sessOpts := session.Options{
		Config: aws.Config{
			Region:                        aws.String(awsCfg.Region),
			CredentialsChainVerboseErrors: aws.Bool(true),
		},
		SharedConfigState: session.SharedConfigEnable,
	}
	if awsCfg.Profile != "" {
		sessOpts.Profile = awsCfg.Profile
	}

	sess, err := session.NewSessionWithOptions(sessOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewLoaderWithAPI(secretsmanager.New(sess), logger), nil
}

func NewLoaderWithAPI(api secretsmanageriface.SecretsManagerAPI, logger *logrus.Logger) *Loader {
	return &Loader{api: api, logger: logger}
}

// Load fetches the secret and decodes its string value as a flat JSON object
func (l *Loader) Load(ctx context.Context, name string) (map[string]string, error) {
	result, err := l.api.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve secret '%s': %w", name, err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("secret '%s' has no string value", name)
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(*result.SecretString), &values); err != nil {
		return nil, fmt.Errorf("secret '%s' is not a JSON object of strings: %w", name, err)
	}

	l.logger.WithFields(logrus.Fields{
		"secret_name": name,
		"keys":        len(values),
	}).Info("Successfully retrieved secret from Secrets Manager")

	return values, nil
}

// Apply loads the configured secret into cfg. It is a no-op when no secret name is set.
func Apply(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if cfg.AWS.SecretName == "" {
		return nil
	}

	loader, err := NewLoader(&cfg.AWS, logger)
	if err != nil {
		return err
	}
	return loader.ApplyTo(ctx, cfg)
}

func (l *Loader) ApplyTo(ctx context.Context, cfg *config.Config) error {
	values, err := l.Load(ctx, cfg.AWS.SecretName)
	if err != nil {
		return err
	}
	return cfg.ApplySecrets(values)
}
