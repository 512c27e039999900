package dataloader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnknownFileType is returned when a statement is requested for an Unknown file.
	ErrUnknownFileType = errors.New("no load statement for unknown file type")
	// ErrUnsafeKey is returned when an object path cannot be embedded in a statement.
	ErrUnsafeKey = errors.New("object path contains characters that cannot be quoted")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)*$`)

const (
	storesTable       = "RAW.STORES"
	transactionsTable = "RAW.SALES"
)

// LoadStatement is a bulk-load statement for one staged file.
type LoadStatement struct {
	Table string
	Text  string
}

// StatementBuilder renders COPY INTO statements against a named stage and file format.
type StatementBuilder struct {
	Stage      string
	FileFormat string
}

// NewStatementBuilder validates the stage and file-format identifiers.
func NewStatementBuilder(stage, fileFormat string) (*StatementBuilder, error) {
	if !identifierPattern.MatchString(stage) {
		return nil, fmt.Errorf("invalid stage identifier %q", stage)
	}
	if !identifierPattern.MatchString(fileFormat) {
		return nil, fmt.Errorf("invalid file format identifier %q", fileFormat)
	}
	return &StatementBuilder{Stage: stage, FileFormat: fileFormat}, nil
}

// Build produces the load statement for a classified file. stagedPath is the file's
// path relative to the stage root.
func (b *StatementBuilder) Build(file ClassifiedFile, stagedPath string) (LoadStatement, error) {
	if err := checkQuotable(stagedPath); err != nil {
		return LoadStatement{}, err
	}
	batchDate := QuoteLiteral(file.BatchDate.Format("2006-01-02"))
	files := QuoteLiteral(stagedPath)

	switch file.Type {
	case Stores:
		return LoadStatement{Table: storesTable, Text: b.buildStores(batchDate, files)}, nil
	case Transactions:
		return LoadStatement{Table: transactionsTable, Text: b.buildTransactions(batchDate, files)}, nil
	default:
		return LoadStatement{}, ErrUnknownFileType
	}
}

// Malformed store rows are skipped, the rest of the file still loads.
func (b *StatementBuilder) buildStores(batchDate, files string) string {
	var sb strings.Builder
	sb.WriteString("COPY INTO " + storesTable + " (" + strings.Join(storesColumns, ", ") + ")")
	sb.WriteString(" FROM (SELECT $1, $2, $3, METADATA$FILENAME, " + batchDate + " FROM @" + b.Stage + ")")
	sb.WriteString(" FILES = (" + files + ")")
	sb.WriteString(" FILE_FORMAT = (FORMAT_NAME = " + b.FileFormat + ")")
	sb.WriteString(" ON_ERROR = 'CONTINUE'")
	return sb.String()
}

// Sales files come in two layouts. Six-field rows carry user_role in $6 and no
// source_id; seven-field rows carry source_id in $6 and user_role in $7. Column
// count mismatch is tolerated so both layouts share one statement, any other
// structural error aborts the whole file.
func (b *StatementBuilder) buildTransactions(batchDate, files string) string {
	var sb strings.Builder
	sb.WriteString("COPY INTO " + transactionsTable + " (" + strings.Join(transactionsColumns, ", ") + ")")
	sb.WriteString(" FROM (SELECT $1, $2, $3, $4, $5,")
	sb.WriteString(" CASE WHEN $7 IS NULL THEN NULL ELSE $6 END,")
	sb.WriteString(" CASE WHEN $7 IS NULL THEN $6 ELSE $7 END,")
	sb.WriteString(" METADATA$FILENAME, " + batchDate + " FROM @" + b.Stage + ")")
	sb.WriteString(" FILES = (" + files + ")")
	sb.WriteString(" FILE_FORMAT = (FORMAT_NAME = " + b.FileFormat + " ERROR_ON_COLUMN_COUNT_MISMATCH = FALSE)")
	sb.WriteString(" ON_ERROR = 'ABORT_STATEMENT'")
	return sb.String()
}

// QuoteLiteral renders s as a single-quoted Snowflake string literal.
func QuoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `''`)
	return "'" + s + "'"
}

func checkQuotable(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafeKey)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q", ErrUnsafeKey, s)
		}
	}
	return nil
}
