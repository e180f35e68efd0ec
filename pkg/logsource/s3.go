package logsource

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/time/rate"
)

// S3Config configures an S3 log source.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
//
// For S3-compatible stores (Wasabi, MinIO, DigitalOcean Spaces), set
// Endpoint and typically ForcePathStyle.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string

	// Prefix narrows listing to keys under this prefix.
	Prefix string

	// Pattern is an optional doublestar glob applied to listed keys
	// ("worker-logs/**/*.log"). Empty matches every key under Prefix.
	Pattern string

	// Region is the AWS region. Defaults to us-east-1 for AWS S3 when
	// not resolvable from the environment; no default is applied when
	// Endpoint is set.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	// Leave empty for AWS S3.
	Endpoint string

	// Profile is the AWS profile name from shared config.
	Profile string

	// AccessKeyID and SecretAccessKey are explicit credentials. Both
	// must be set together; they take precedence over the default
	// credential chain.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs, required for most
	// S3-compatible stores.
	ForcePathStyle bool

	// RateLimit caps requests per second against the store. Zero
	// means unlimited.
	RateLimit float64
}

// Validate checks that required configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return &SourceError{Op: "config", Err: errors.New("bucket name is required")}
	}
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &SourceError{Op: "config", Err: errors.New("access key ID and secret access key must be provided together")}
	}
	return nil
}

// defaultAWSRegion is the fallback region for AWS S3 when none is
// resolvable.
const defaultAWSRegion = "us-east-1"

// s3API is the subset of the S3 client the source uses, split out so
// tests can stub it.
type s3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source retrieves logs from S3-compatible object storage.
type S3Source struct {
	client  s3API
	bucket  string
	prefix  string
	pattern string
	limiter *rate.Limiter // nil if unlimited
}

// NewS3Source creates an S3 log source with the given configuration.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &SourceError{Op: "configure", Name: cfg.Bucket, Err: err}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	src := &S3Source{
		client:  s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		pattern: cfg.Pattern,
	}
	if cfg.RateLimit > 0 {
		src.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return src, nil
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg S3Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	// Let the SDK resolve region from env/profile before defaulting.
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	if awsCfg.Region == "" && cfg.Endpoint == "" {
		awsCfg.Region = defaultAWSRegion
	}
	return awsCfg, nil
}

// Fetch lists keys under the prefix, filters them by pattern, and
// downloads each matching object. Keys are processed in listing order,
// which S3 guarantees is lexicographic.
func (s *S3Source) Fetch(ctx context.Context) ([]Log, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}

	var logs []Log
	for _, key := range keys {
		text, err := s.getObject(ctx, key)
		if err != nil {
			return nil, err
		}
		logs = append(logs, Log{Name: key, Text: text})
	}
	return logs, nil
}

// listKeys pages through the bucket listing, applying the key pattern.
func (s *S3Source) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var continuation *string

	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: continuation,
		}
		if s.prefix != "" {
			input.Prefix = aws.String(s.prefix)
		}

		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, s.wrapError("list", s.prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if s.matches(key) {
				keys = append(keys, key)
			}
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return keys, nil
		}
		continuation = out.NextContinuationToken
	}
}

// getObject downloads one object and validates its encoding.
func (s *S3Source) getObject(ctx context.Context, key string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", s.wrapError("get", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", &SourceError{Op: "get", Name: key, Err: err}
	}
	if err := checkEncoding(key, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// matches applies the optional key pattern.
func (s *S3Source) matches(key string) bool {
	if s.pattern == "" {
		return true
	}
	ok, err := doublestar.Match(s.pattern, key)
	return err == nil && ok
}

// wait blocks until the rate limiter allows a request. Returns
// immediately if rate limiting is disabled.
func (s *S3Source) wait(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}

// wrapError maps S3 errors onto the package sentinels.
func (s *S3Source) wrapError(op, name string, err error) error {
	wrapped := &SourceError{Op: op, Name: name, Err: err}

	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	var notFound *types.NotFound
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound), errors.As(err, &noSuchBucket):
		wrapped.Err = ErrNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			wrapped.Err = ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = ErrAccessDenied
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = ErrThrottled
		}
		return wrapped
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404"):
		wrapped.Err = ErrNotFound
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "403"):
		wrapped.Err = ErrAccessDenied
	case strings.Contains(msg, "SlowDown") || strings.Contains(msg, "429"):
		wrapped.Err = ErrThrottled
	}
	return wrapped
}

var _ Source = (*S3Source)(nil)
