// Package bucket provides an S3-compatible object store backend for
// assetgate. It works against Cloudflare R2, AWS S3 and MinIO.
package bucket

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/sagarc03/assetgate"
)

// API is the subset of *s3.Client used by Store.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config describes how to reach the bucket.
type Config struct {
	Name            string `mapstructure:"name"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// NewClient builds an S3 client for cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
// The client makes a single attempt per call; retries belong to the CDN
// in front of assetgate.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint, func(e *aws.Endpoint) {
				e.HostnameImmutable = cfg.UsePathStyle
			})
		}
	}), nil
}

// Store reads objects from a single bucket.
type Store struct {
	client API
	bucket string
}

// NewStore creates a Store reading from bucket through client.
func NewStore(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Get fetches key. Missing keys return assetgate.ErrNotFound, every other
// failure is an *assetgate.StorageError.
func (s *Store) Get(ctx context.Context, key string) (*assetgate.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get %q: %w", key, assetgate.ErrNotFound)
		}
		return nil, &assetgate.StorageError{Kind: classify(err), Key: key, Err: err}
	}

	obj := &assetgate.Object{
		Key:  key,
		Body: out.Body,
		Size: out.ContentLength,
		ETag: unquote(aws.ToString(out.ETag)),
		Metadata: assetgate.HTTPMetadata{
			ContentType:        aws.ToString(out.ContentType),
			ContentLanguage:    aws.ToString(out.ContentLanguage),
			ContentDisposition: aws.ToString(out.ContentDisposition),
			ContentEncoding:    aws.ToString(out.ContentEncoding),
			CacheControl:       aws.ToString(out.CacheControl),
		},
	}
	if out.Expires != nil {
		obj.Metadata.Expires = *out.Expires
	}
	if out.LastModified != nil {
		obj.LastModified = *out.LastModified
	}

	return obj, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}

func classify(err error) assetgate.ErrorKind {
	if kind := assetgate.ClassifyError(err); kind != assetgate.KindUnknown {
		return kind
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return assetgate.KindTransport
	}

	return assetgate.KindUnknown
}

func unquote(etag string) string {
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		return etag[1 : len(etag)-1]
	}
	return etag
}
