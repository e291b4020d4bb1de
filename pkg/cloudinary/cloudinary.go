package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Service stores resume files in Cloudinary. The bucket maps to a folder.
type Service struct {
	client *cloudinary.Cloudinary
	tracer trace.Tracer
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		tracer: otel.Tracer("github.com/noah-isme/gcc-pulse-api/pkg/cloudinary"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload sends the file to Cloudinary and returns its secure URL.
func (s *Service) Upload(ctx context.Context, bucket, objectPath string, reader io.Reader) (string, error) {
	ctx, span := s.tracer.Start(ctx, "cloudinary.upload", trace.WithAttributes(
		attribute.String("storage.bucket", bucket),
	))
	defer span.End()

	folder, publicID := splitObjectPath(bucket, objectPath, s.now())
	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		err := fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// splitObjectPath turns bucket + "dir/name.pdf" into the folder and public id
// Cloudinary expects.
func splitObjectPath(bucket, objectPath string, now time.Time) (string, string) {
	dir, name := path.Split(strings.Trim(objectPath, "/"))
	folder := strings.Trim(path.Join(strings.Trim(bucket, "/"), dir), "/")
	return folder, buildPublicID(name, now)
}

func buildPublicID(name string, now time.Time) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		return fmt.Sprintf("upload-%d", now.Unix())
	}

	return base
}
