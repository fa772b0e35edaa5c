package loadtest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads JSON reports to an S3 bucket so scheduled runs leave a
// durable trail.
type Publisher struct {
	Bucket string
	// Prefix is prepended to generated keys, e.g. "loadtests/".
	Prefix string

	client *s3.Client
}

// NewPublisher resolves AWS credentials from the default chain (env, shared
// config, instance role).
func NewPublisher(ctx context.Context, bucket, prefix string) (*Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Publisher{
		Bucket: bucket,
		Prefix: prefix,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Publish uploads the report under key, generating a timestamped key when
// key is empty. Returns the key used.
func (p *Publisher) Publish(ctx context.Context, rep *Report, key string) (string, error) {
	body, err := rep.JSON()
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if key == "" {
		key = fmt.Sprintf("%s%s-%s.json", p.Prefix, rep.Workload, time.Now().UTC().Format("20060102-150405"))
	}
	contentType := "application/json"
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &p.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload report to s3://%s/%s: %w", p.Bucket, key, err)
	}
	return key, nil
}
