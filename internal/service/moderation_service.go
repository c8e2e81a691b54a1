package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	cfg "github.com/individuals-mars/seller-admin/internal/config"
)

// moderationAPI is the part of the Rekognition client the screener needs.
type moderationAPI interface {
	DetectModerationLabels(ctx context.Context, in *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// ModerationService screens staged images with AWS Rekognition moderation
// labels. It is used as the staging.Screener of upload policies.
type ModerationService struct {
	client        moderationAPI
	minConfidence float32
}

// NewModerationService creates a new moderation screener.
func NewModerationService(ctx context.Context, c *cfg.AWSConfig) (*ModerationService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.RekognitionRegion)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &ModerationService{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: float32(c.MinConfidence),
	}, nil
}

// Screen rejects images carrying moderation labels. Rekognition only reads
// PNG and JPEG, other formats pass unscreened. When the service is
// unreachable the image is accepted and the failure logged.
func (m *ModerationService) Screen(ctx context.Context, data []byte) error {
	if mt := mimetype.Detect(data); !mt.Is("image/png") && !mt.Is("image/jpeg") {
		return nil
	}

	out, err := m.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: data},
		MinConfidence: aws.Float32(m.minConfidence),
	})
	if err != nil {
		log.Warn().Err(err).Msg("[MODERATION] DetectModerationLabels failed, accepting image")
		return nil
	}
	if len(out.ModerationLabels) == 0 {
		return nil
	}

	names := make([]string, 0, len(out.ModerationLabels))
	for _, l := range out.ModerationLabels {
		names = append(names, aws.ToString(l.Name))
	}
	log.Info().Strs("labels", names).Msg("[MODERATION] Image rejected")
	return fmt.Errorf("moderation labels: %s", strings.Join(names, ", "))
}
