package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/herbal-board/internal/archive"
	appconfig "github.com/wolfman30/herbal-board/internal/config"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// LoadAWSConfig builds the SDK config, using static keys when both are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// S3Options points the client at AWS_ENDPOINT_OVERRIDE (LocalStack, MinIO)
// when set.
func S3Options(cfg *appconfig.Config) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}
}

// BuildArchive returns the snapshot store, or nil when no bucket is set.
func BuildArchive(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*archive.Store, error) {
	if cfg == nil || strings.TrimSpace(cfg.ExportBucket) == "" {
		return nil, nil
	}
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, S3Options(cfg))
	return archive.NewStore(client, cfg.ExportBucket, logger), nil
}
