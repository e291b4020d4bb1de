package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config describes how to reach an S3 compatible store.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Region        string
	PublicBaseURL string
}

// MinIO stores resume files in MinIO or any S3 compatible service.
type MinIO struct {
	client  *minio.Client
	cfg     Config
	tracer  trace.Tracer
	logger  zerolog.Logger
	mu      sync.Mutex
	buckets map[string]bool
}

// NewMinIO creates a MinIO backed store.
func NewMinIO(cfg Config, logger zerolog.Logger) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIO{
		client:  client,
		cfg:     cfg,
		tracer:  otel.Tracer("github.com/noah-isme/gcc-pulse-api/pkg/objectstore"),
		logger:  logger.With().Str("component", "minio").Logger(),
		buckets: make(map[string]bool),
	}, nil
}

// Upload streams the object into bucket and returns its public URL.
func (m *MinIO) Upload(ctx context.Context, bucket, objectPath string, reader io.Reader) (string, error) {
	ctx, span := m.tracer.Start(ctx, "minio.upload", trace.WithAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.String("storage.object", objectPath),
	))
	defer span.End()

	if err := m.ensureBucket(ctx, bucket); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	key := strings.TrimPrefix(objectPath, "/")
	contentType, body, err := detectReader(reader)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}

	info, err := m.client.PutObject(ctx, bucket, key, body, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}

	m.logger.Info().Str("bucket", bucket).Str("object", key).Int64("size", info.Size).Msg("file uploaded to minio")
	return PublicURL(m.baseURL(), bucket, key), nil
}

func (m *MinIO) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] {
		return nil
	}

	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		m.logger.Info().Str("bucket", bucket).Msg("bucket created")
	}

	m.buckets[bucket] = true
	return nil
}

func (m *MinIO) baseURL() string {
	if m.cfg.PublicBaseURL != "" {
		return m.cfg.PublicBaseURL
	}
	scheme := "http"
	if m.cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + m.cfg.Endpoint
}

// PublicURL joins base, bucket and object key into an address clients can fetch.
func PublicURL(base, bucket, key string) string {
	escaped := make([]string, 0, 4)
	for _, segment := range strings.Split(strings.Trim(key, "/"), "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return strings.TrimRight(base, "/") + "/" + path.Join(bucket, strings.Join(escaped, "/"))
}

// detectReader reads the header needed for detection and returns a reader
// that replays it.
func detectReader(reader io.Reader) (string, io.Reader, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(reader, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	header = header[:n]
	return mimetype.Detect(header).String(), io.MultiReader(bytes.NewReader(header), reader), nil
}
