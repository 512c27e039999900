package dataloader

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Archiver moves processed objects into the date-partitioned history path.
type Archiver struct {
	S3Svc         s3iface.S3API
	Logger        log.Logger
	HistoryPrefix string
	Now           func() time.Time
}

// ArchiveKey returns history/{type}/year=YYYY/month=MM/day=DD/{basename}. The
// partition is the processing date, not the batch date of the file.
func ArchiveKey(historyPrefix string, fileType FileType, key string, processedAt time.Time) string {
	processedAt = processedAt.UTC()
	return fmt.Sprintf("%s/%s/year=%04d/month=%02d/day=%02d/%s",
		strings.TrimSuffix(historyPrefix, "/"),
		fileType,
		processedAt.Year(),
		int(processedAt.Month()),
		processedAt.Day(),
		path.Base(key))
}

// Archive copies the object to its history key and deletes the original. The two
// steps are not atomic; a failure after the copy leaves the object at both keys.
func (a *Archiver) Archive(ctx context.Context, bucket, key string, fileType FileType) (string, error) {
	target := ArchiveKey(a.HistoryPrefix, fileType, key, a.Now())
	level.Info(a.Logger).Log("msg", "moving file to history", "bucket", bucket, "key", key, "archive_key", target)

	_, err := a.S3Svc.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		CopySource: aws.String(copySource(bucket, key)),
		Key:        aws.String(target),
	})
	if err != nil {
		return "", fmt.Errorf("copy to %s: %w", target, err)
	}

	_, err = a.S3Svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		level.Warn(a.Logger).Log("msg", "object copied but original not deleted",
			"bucket", bucket,
			"key", key,
			"archive_key", target,
			"err", err)
		return "", fmt.Errorf("delete %s after copy: %w", key, err)
	}
	return target, nil
}

// CopySource must be URL encoded; slashes are kept as separators. PathEscape leaves
// "+" alone, which S3 may read as a space.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(s), "+", "%2B")
	}
	return bucket + "/" + strings.Join(segments, "/")
}
