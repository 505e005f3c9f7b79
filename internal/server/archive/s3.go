// Package archive stores batch import reports in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
)

// Options configures the S3 client. RootUser/RootPassword are static
// credentials (MinIO style); when empty the default AWS credential chain is
// used. A BaseEndpoint switches to path-style addressing.
type Options struct {
	Bucket       string
	Prefix       string
	Region       string
	BaseEndpoint string
	RootUser     string
	RootPassword string
}

// PutObjectAPI is the part of *s3.Client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) PutObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archiver writes each report as a JSON object.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// New builds an S3Archiver from opts.
func New(ctx context.Context, opts Options) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.RootUser != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.RootUser, opts.RootPassword, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewWithClient builds an S3Archiver over an existing client.
func NewWithClient(client PutObjectAPI, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a report started at t.
func Key(prefix string, t time.Time) string {
	return path.Join(prefix, t.UTC().Format(time.RFC3339Nano)+".json")
}

// Store uploads r under Key(prefix, r.StartedAt).
func (a *S3Archiver) Store(ctx context.Context, r *models.ImportReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("archive: marshal report: %w", err)
	}

	key := Key(a.prefix, r.StartedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}
