package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures NewS3Sink. Empty credentials fall back to the
// default AWS credential chain. Endpoint selects an S3-compatible store and
// switches to path-style addressing.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Compress        bool
}

// S3Sink uploads each table as one object under Prefix.
type S3Sink struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	compress bool
}

// NewS3Sink builds an S3 client from opts and the environment.
func NewS3Sink(ctx context.Context, opts S3Options) (*S3Sink, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is empty")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SinkWithClient(client, opts), nil
}

// NewS3SinkWithClient wraps an existing client.
func NewS3SinkWithClient(client PutObjectAPI, opts S3Options) *S3Sink {
	return &S3Sink{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		compress: opts.Compress,
	}
}

// Name implements Sink.
func (s *S3Sink) Name() string {
	return "s3"
}

// Key returns the object key for t.
func (s *S3Sink) Key(t Table) string {
	return path.Join(s.prefix, FileName(t, s.compress))
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, t Table) error {
	var buf bytes.Buffer
	if err := encode(&buf, t, s.compress); err != nil {
		return err
	}

	contentType := "text/csv"
	if s.compress {
		contentType = "application/x-snappy-framed"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(t)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.Key(t), err)
	}
	return nil
}
