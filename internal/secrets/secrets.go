// Package secrets resolves the completion API key at startup.
package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/mathtutor/apiserver/config"
)

// ResolveAPIKey returns the configured API key, falling back to AWS
// Secrets Manager when no key is set in the environment.
func ResolveAPIKey(ctx context.Context, cfg config.AIConfig) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(cfg.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", cfg.SecretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", cfg.SecretID)
	}
	return *out.SecretString, nil
}
