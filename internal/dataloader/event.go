package dataloader

import (
	"net/url"

	"github.com/aws/aws-lambda-go/events"
)

// RecordsFromS3 turns bucket notification records into a batch. messageID ties the
// records to the queue message that carried them, if any.
func RecordsFromS3(in []events.S3EventRecord, messageID string) []ObjectRecord {
	out := make([]ObjectRecord, 0, len(in))
	for _, r := range in {
		out = append(out, ObjectRecord{
			Bucket:    r.S3.Bucket.Name,
			Key:       decodedKey(r.S3.Object),
			Region:    r.AWSRegion,
			MessageID: messageID,
		})
	}
	return out
}

// Notification keys are URL encoded ("inbox/my+file.csv").
func decodedKey(o events.S3Object) string {
	if o.URLDecodedKey != "" {
		return o.URLDecodedKey
	}
	key, err := url.QueryUnescape(o.Key)
	if err != nil {
		return o.Key
	}
	return key
}
