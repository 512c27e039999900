package dataloader

import (
	"context"
	"database/sql"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Mock Services -------------

const testBucket = "landing-bucket"

type mockS3 struct {
	s3iface.S3API
	objects   map[string]bool
	sources   []string
	copied    []string
	deleted   []string
	copyErr   error
	deleteErr error
}

func newMockS3(keys ...string) *mockS3 {
	m := &mockS3{objects: make(map[string]bool)}
	for _, k := range keys {
		m.objects[testBucket+"/"+k] = true
	}
	return m
}

func (m *mockS3) has(key string) bool {
	return m.objects[testBucket+"/"+key]
}

func (m *mockS3) CopyObjectWithContext(ctx aws.Context, input *s3.CopyObjectInput, opts ...request.Option) (*s3.CopyObjectOutput, error) {
	if m.copyErr != nil {
		return nil, m.copyErr
	}
	m.sources = append(m.sources, aws.StringValue(input.CopySource))
	source, err := url.PathUnescape(aws.StringValue(input.CopySource))
	if err != nil {
		return nil, err
	}
	if !m.objects[source] {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	m.objects[aws.StringValue(input.Bucket)+"/"+aws.StringValue(input.Key)] = true
	m.copied = append(m.copied, aws.StringValue(input.Key))
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	delete(m.objects, aws.StringValue(input.Bucket)+"/"+aws.StringValue(input.Key))
	m.deleted = append(m.deleted, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type mockConnector struct {
	db    *sql.DB
	err   error
	calls int
}

func (c *mockConnector) Connect(ctx context.Context) (*sql.Conn, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.db.Conn(ctx)
}
