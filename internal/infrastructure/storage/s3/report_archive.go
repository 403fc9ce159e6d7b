package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// ReportArchive exports shift handover documents to S3.
// Objects are write-only from the console's point of view.
type ReportArchive struct {
	client       putObjectAPI
	bucket       string
	region       string
	endpoint     string
	usePathStyle bool
}

func NewReportArchive(ctx context.Context, cfg Config) (*ReportArchive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("s3 region is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if strings.TrimSpace(cfg.AccessKeyID) != "" && strings.TrimSpace(cfg.SecretAccessKey) != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
		options.UsePathStyle = cfg.UsePathStyle
	})

	return newReportArchive(client, cfg), nil
}

func newReportArchive(client putObjectAPI, cfg Config) *ReportArchive {
	return &ReportArchive{
		client:       client,
		bucket:       strings.TrimSpace(cfg.Bucket),
		region:       strings.TrimSpace(cfg.Region),
		endpoint:     strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		usePathStyle: cfg.UsePathStyle,
	}
}

// PutObject uploads the document and returns its object URL.
func (a *ReportArchive) PutObject(ctx context.Context, key, contentType string, body []byte) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if contentType == "" {
		contentType = "text/markdown; charset=utf-8"
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("put object failed: %w", err)
	}

	return a.objectURL(key), nil
}

func (a *ReportArchive) objectURL(key string) string {
	escapedKey := strings.ReplaceAll(url.PathEscape(key), "%2F", "/")

	if a.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, escapedKey)
	}
	if a.usePathStyle {
		return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, escapedKey)
	}

	host := strings.TrimPrefix(strings.TrimPrefix(a.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", a.bucket, host, escapedKey)
}
