package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// DefaultS3BaseURL is the global path-style S3 endpoint used for public URLs.
const DefaultS3BaseURL = "https://s3.amazonaws.com"

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements ObjectStore for AWS S3.
type S3Store struct {
	client     s3API
	bucket     string
	prefix     string
	baseURL    string
	disableACL bool
}

// S3Config holds S3 configuration.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // Overrides the URL returned for stored objects
	DisableACL      bool   // For buckets with object ownership enforced
}

// NewS3Store creates a new S3 storage adapter.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	// Use explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Store(s3.NewFromConfig(awsCfg, clientOpts...), cfg), nil
}

func newS3Store(client s3API, cfg S3Config) *S3Store {
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		base := DefaultS3BaseURL
		if cfg.Endpoint != "" {
			base = cfg.Endpoint
		}
		baseURL = joinURL(base, cfg.Bucket)
	}

	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		baseURL:    baseURL,
		disableACL: cfg.DisableACL,
	}
}

// Name returns the bucket name.
func (s *S3Store) Name() string {
	return s.bucket
}

// URL returns the public URL for a key.
func (s *S3Store) URL(key string) string {
	return joinURL(s.baseURL, joinKey(s.prefix, key))
}

// Put uploads an object to the bucket.
func (s *S3Store) Put(ctx context.Context, in output.PutObjectInput) (domain.StoredObject, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(joinKey(s.prefix, in.Key)),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
		ContentType:   aws.String(in.ContentType),
	}
	if in.ContentDisposition != "" {
		input.ContentDisposition = aws.String(in.ContentDisposition)
	}
	if in.Public && !s.disableACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return domain.StoredObject{}, err
	}

	return domain.StoredObject{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        int64(len(in.Body)),
	}, nil
}
