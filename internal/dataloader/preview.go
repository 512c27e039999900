package dataloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var (
	storesColumns       = []string{"store_group", "store_token", "store_name", "source_filename", "batch_date"}
	transactionsColumns = []string{"store_token", "transaction_id", "receipt_token", "transaction_time", "amount", "source_id", "user_role", "source_filename", "batch_date"}
)

// Columns returns the target columns of a file type in load order.
func Columns(t FileType) []string {
	switch t {
	case Stores:
		return append([]string(nil), storesColumns...)
	case Transactions:
		return append([]string(nil), transactionsColumns...)
	default:
		return nil
	}
}

// MapRow maps the positional fields of one input row onto the target columns of file,
// mirroring the load statement. stagedPath stands in for METADATA$FILENAME and
// batch_date comes from file. A nil value is NULL.
func MapRow(file ClassifiedFile, stagedPath string, fields []string) ([]*string, error) {
	batchDate := file.BatchDate.Format("2006-01-02")
	switch file.Type {
	case Stores:
		if len(fields) < 3 {
			return nil, fmt.Errorf("stores row has %d fields, want 3", len(fields))
		}
		return []*string{&fields[0], &fields[1], &fields[2], &stagedPath, &batchDate}, nil
	case Transactions:
		if len(fields) != 6 && len(fields) != 7 {
			return nil, fmt.Errorf("transactions row has %d fields, want 6 or 7", len(fields))
		}
		row := []*string{&fields[0], &fields[1], &fields[2], &fields[3], &fields[4]}
		if len(fields) == 6 {
			row = append(row, nil, &fields[5])
		} else {
			row = append(row, &fields[5], &fields[6])
		}
		return append(row, &stagedPath, &batchDate), nil
	default:
		return nil, ErrUnknownFileType
	}
}

// Preview maps up to limit rows of a local delimited file the way a load would. Stores
// rows that do not map are counted in rejected and skipped; the first bad
// transactions row fails the whole preview.
func Preview(file ClassifiedFile, stagedPath string, r io.Reader, skipHeader bool, limit int) (rows [][]*string, rejected int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if skipHeader {
		if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, err
		}
	}
	for line := 1; limit <= 0 || len(rows) < limit; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rejected, err
		}
		row, err := MapRow(file, stagedPath, fields)
		if err != nil {
			if file.Type == Stores {
				rejected++
				continue
			}
			return nil, rejected, fmt.Errorf("row %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, rejected, nil
}
