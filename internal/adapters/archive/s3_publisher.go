package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const DefaultLinkTTL = 7 * 24 * time.Hour

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// LinkTTL es la vigencia del link prefirmado (por defecto la retención).
	LinkTTL time.Duration
}

// S3Publisher sube el archive a S3 y devuelve un GET prefirmado.
type S3Publisher struct {
	client  s3API
	presign presignAPI
	bucket  string
	prefix  string
	ttl     time.Duration
}

func NewS3Publisher(ctx context.Context, opts S3Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 publisher: bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for S3 publisher: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return newS3Publisher(client, s3.NewPresignClient(client), opts), nil
}

func newS3Publisher(client s3API, presign presignAPI, opts S3Options) *S3Publisher {
	ttl := opts.LinkTTL
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &S3Publisher{
		client:  client,
		presign: presign,
		bucket:  opts.Bucket,
		prefix:  opts.Prefix,
		ttl:     ttl,
	}
}

func (p *S3Publisher) key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

func (p *S3Publisher) Publish(ctx context.Context, name, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := p.key(name)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(p.bucket),
		Key:                aws.String(key),
		Body:               f,
		ContentLength:      aws.Int64(info.Size()),
		ContentType:        aws.String("application/zip"),
		ContentDisposition: aws.String("attachment; filename=" + name),
	})
	if err != nil {
		return "", fmt.Errorf("S3 PutObject %s/%s: %w", p.bucket, key, err)
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("S3 presign %s/%s: %w", p.bucket, key, err)
	}
	return req.URL, nil
}

func (p *S3Publisher) Remove(ctx context.Context, name string) error {
	key := p.key(name)
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("S3 DeleteObject %s/%s: %w", p.bucket, key, err)
	}
	return nil
}
