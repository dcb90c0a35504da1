package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Params struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Client builds a path-style S3 client. Empty credentials fall back to
// the default AWS credential chain.
func NewS3Client(ctx context.Context, params S3Params) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(params.Region)}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// ObjectGetter is the part of the S3 client assets are read with.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Assets reads static files either from the local disk or, for locations
// of the form s3://bucket/key, from S3.
type Assets struct {
	client ObjectGetter
}

// NewAssets creates an asset reader. client may be nil when every location
// is local.
func NewAssets(client ObjectGetter) *Assets {
	return &Assets{client: client}
}

// ParseS3Location splits s3://bucket/key. ok is false for any other form.
func ParseS3Location(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Read returns the contents of location.
func (a *Assets) Read(ctx context.Context, location string) ([]byte, error) {
	bucket, key, ok := ParseS3Location(location)
	if !ok {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read asset %s: %w", location, err)
		}
		return data, nil
	}
	if a.client == nil {
		return nil, fmt.Errorf("no s3 client configured for %s", location)
	}
	return GetFile(ctx, a.client, bucket, key)
}

func GetFile(ctx context.Context, client ObjectGetter, bucket, key string) ([]byte, error) {
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return buf.Bytes(), nil
}
