package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	cfg "github.com/individuals-mars/seller-admin/internal/config"
	"github.com/individuals-mars/seller-admin/internal/models"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// objectStore is the part of the S3 client the logo storage needs.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Service stores shop logos in a public S3 bucket.
type S3Service struct {
	client    objectStore
	bucket    string
	region    string
	prefix    string
	publicURL string
}

// NewS3Service creates a new S3 service
func NewS3Service(ctx context.Context, c *cfg.S3Config) (*S3Service, error) {
	if c == nil {
		return nil, fmt.Errorf("S3 config is nil")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := c.PublicURL
	if publicURL == "" {
		if c.Endpoint != "" {
			publicURL = strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
		}
	}

	return &S3Service{
		client:    client,
		bucket:    c.Bucket,
		region:    c.Region,
		prefix:    c.Prefix,
		publicURL: publicURL,
	}, nil
}

// UploadLogo stores a logo and returns its public URL.
func (s *S3Service) UploadLogo(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read logo: %w", err)
	}

	key := s.objectKey(filename, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload logo to S3")
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("Successfully uploaded logo to S3")
	return s.GetObjectURL(key), nil
}

// RemoveLogo deletes a logo previously returned by UploadLogo. URLs outside
// the bucket are ignored.
func (s *S3Service) RemoveLogo(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete logo: %w", err)
	}
	log.Info().Str("key", key).Msg("Deleted logo from S3")
	return nil
}

func (s *S3Service) objectKey(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	}
	return path.Join(s.prefix, uuid.NewString()+ext)
}

// GetObjectURL returns the public URL of key.
func (s *S3Service) GetObjectURL(key string) string {
	return s.publicURL + "/" + key
}

// LogoUploader stores a logo file and returns a URL for it. RemoveLogo
// takes back an upload the backend never accepted.
type LogoUploader interface {
	UploadLogo(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	RemoveLogo(ctx context.Context, url string) error
}

// ShopGateway persists shops through the marketplace client. When logos
// is set, a staged logo is uploaded there and sent as the logotype URL;
// otherwise it travels as the "image" part of a multipart body.
type ShopGateway struct {
	client *marketplace.Client
	logos  LogoUploader
}

// NewShopGateway creates a new ShopGateway. logos may be nil.
func NewShopGateway(client *marketplace.Client, logos LogoUploader) *ShopGateway {
	return &ShopGateway{client: client, logos: logos}
}

func (g *ShopGateway) prepare(ctx context.Context, p models.ShopPayload, logo *marketplace.File) (models.ShopPayload, *marketplace.File, error) {
	if logo == nil || g.logos == nil {
		return p, logo, nil
	}
	url, err := g.logos.UploadLogo(ctx, logo.Filename, logo.ContentType, logo.Reader)
	if err != nil {
		return p, nil, &marketplace.Error{Kind: marketplace.ErrTransport, Message: "Failed to upload the logo", Err: err}
	}
	p.Logo = url
	return p, nil, nil
}

// discard removes a logo uploaded by prepare when the backend rejected the
// shop, so a retry does not leave the previous object behind.
func (g *ShopGateway) discard(ctx context.Context, uploaded, before string) {
	if g.logos == nil || uploaded == "" || uploaded == before {
		return
	}
	if err := g.logos.RemoveLogo(context.WithoutCancel(ctx), uploaded); err != nil {
		log.Warn().Err(err).Str("url", uploaded).Msg("[SHOP] Failed to remove orphaned logo")
	}
}

// CreateShop creates a shop.
func (g *ShopGateway) CreateShop(ctx context.Context, p models.ShopPayload, logo *marketplace.File, s marketplace.Session) (*models.Shop, error) {
	before := p.Logo
	p, logo, err := g.prepare(ctx, p, logo)
	if err != nil {
		return nil, err
	}
	shop, err := g.client.CreateShop(ctx, p, logo, s)
	if err != nil {
		g.discard(ctx, p.Logo, before)
		return nil, err
	}
	return shop, nil
}

// UpdateShop updates a shop.
func (g *ShopGateway) UpdateShop(ctx context.Context, id string, p models.ShopPayload, logo *marketplace.File, s marketplace.Session) (*models.Shop, error) {
	before := p.Logo
	p, logo, err := g.prepare(ctx, p, logo)
	if err != nil {
		return nil, err
	}
	shop, err := g.client.UpdateShop(ctx, id, p, logo, s)
	if err != nil {
		g.discard(ctx, p.Logo, before)
		return nil, err
	}
	return shop, nil
}
