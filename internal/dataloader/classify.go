package dataloader

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// FileType is the staging category a file is loaded into.
type FileType int

const (
	Unknown FileType = iota
	Stores
	Transactions
)

// String returns the lower-case name used in history paths and logs.
func (t FileType) String() string {
	switch t {
	case Stores:
		return "stores"
	case Transactions:
		return "transactions"
	default:
		return "unknown"
	}
}

// ErrInvalidBatchDate is returned when the digits found in a filename are not a calendar date.
var ErrInvalidBatchDate = errors.New("invalid batch date in filename")

const batchDateLayout = "20060102"

// ClassifiedFile is the result of classifying an object key.
// Only Type is meaningful when Type is Unknown.
type ClassifiedFile struct {
	Type           FileType
	BatchDate      time.Time
	SourceFilename string
}

// Classify derives the file type and batch date from an object key. now supplies the
// processing date used when the filename carries no date.
func Classify(key string, now time.Time) (ClassifiedFile, error) {
	filename := strings.ToLower(path.Base(key))

	var fileType FileType
	switch {
	// "store" wins over "sale" when a name carries both
	case strings.Contains(filename, "store"):
		fileType = Stores
	case strings.Contains(filename, "sale"):
		fileType = Transactions
	default:
		return ClassifiedFile{Type: Unknown}, nil
	}

	batchDate, err := resolveBatchDate(filename, now)
	if err != nil {
		return ClassifiedFile{}, err
	}
	return ClassifiedFile{
		Type:           fileType,
		BatchDate:      batchDate,
		SourceFilename: filename,
	}, nil
}

func resolveBatchDate(filename string, now time.Time) (time.Time, error) {
	digits, ok := firstDigitRun(filename, len(batchDateLayout))
	if !ok {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(batchDateLayout, digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBatchDate, digits)
	}
	return date, nil
}

// firstDigitRun returns the first n consecutive ASCII digits in s.
func firstDigitRun(s string, n int) (string, bool) {
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			run = 0
			continue
		}
		run++
		if run == n {
			return s[i-n+1 : i+1], true
		}
	}
	return "", false
}
