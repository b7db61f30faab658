// Package s3 provides an S3-backed implementation of the storage.Store interface.
// The ledger is kept as one JSON object; PutObject replaces it as a whole.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"

	"github.com/mmynk/subsplit/internal/models"
	"github.com/mmynk/subsplit/internal/storage"
)

// DefaultObjectKey is the object the ledger is stored under when none is configured.
const DefaultObjectKey = "subsplit/subscriptions_data.json"

// Ensure S3Store implements storage.Store
var _ storage.Store = (*S3Store)(nil)

// objectAPI is the subset of the S3 client used by the store.
type objectAPI interface {
	GetObjectWithContext(ctx aws.Context, input *awss3.GetObjectInput, opts ...request.Option) (*awss3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *awss3.PutObjectInput, opts ...request.Option) (*awss3.PutObjectOutput, error)
}

// Config holds the S3 connection settings.
type Config struct {
	Region    string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint (e.g. for MinIO). Optional.
	Endpoint string
}

// S3Store implements storage.Store on a single S3 object.
type S3Store struct {
	client objectAPI
	bucket string
	key    string
}

// New creates an S3Store. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func New(cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region is required")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return newWithClient(awss3.New(sess), cfg.Bucket, cfg.Key), nil
}

func newWithClient(client objectAPI, bucket, key string) *S3Store {
	if key == "" {
		key = DefaultObjectKey
	}
	return &S3Store{client: client, bucket: bucket, key: key}
}

// Load downloads the ledger object. A missing object yields an empty ledger.
func (s *S3Store) Load(ctx context.Context) (*models.Ledger, error) {
	out, err := s.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if isNotFound(err) {
		return models.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger object: %w", err)
	}

	ledger := models.NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger object: %w", err)
	}
	return ledger, nil
}

// Save uploads the ledger, replacing the previous object.
func (s *S3Store) Save(ctx context.Context, ledger *models.Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put ledger object: %w", err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no long-lived connections.
func (s *S3Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == awss3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
}
