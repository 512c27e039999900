package dataloader

import (
	"errors"
	"testing"
	"time"
)

var processingTime = time.Date(2025, 3, 15, 22, 30, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantType FileType
		wantDate string
		wantName string
	}{
		{
			name:     "stores-with-date",
			key:      "inbox/stores_20250110.csv",
			wantType: Stores,
			wantDate: "2025-01-10",
			wantName: "stores_20250110.csv",
		},
		{
			name:     "sales-with-date",
			key:      "inbox/sales_6col_20250203.csv",
			wantType: Transactions,
			wantDate: "2025-02-03",
			wantName: "sales_6col_20250203.csv",
		},
		{
			name:     "case-insensitive",
			key:      "inbox/Daily_STORE_List_20241231.CSV",
			wantType: Stores,
			wantDate: "2024-12-31",
			wantName: "daily_store_list_20241231.csv",
		},
		{
			name:     "store-wins-over-sale",
			key:      "inbox/store_sales_20250101.csv",
			wantType: Stores,
			wantDate: "2025-01-01",
			wantName: "store_sales_20250101.csv",
		},
		{
			name:     "sale-before-store-in-name-still-stores",
			key:      "inbox/sales_by_store_20250101.csv",
			wantType: Stores,
			wantDate: "2025-01-01",
			wantName: "sales_by_store_20250101.csv",
		},
		{
			name:     "no-date-uses-processing-date",
			key:      "inbox/sales.csv",
			wantType: Transactions,
			wantDate: "2025-03-15",
			wantName: "sales.csv",
		},
		{
			name:     "short-digit-run-ignored",
			key:      "inbox/stores_2025011.csv",
			wantType: Stores,
			wantDate: "2025-03-15",
			wantName: "stores_2025011.csv",
		},
		{
			name:     "longer-run-takes-first-eight",
			key:      "inbox/sales_20250110093000.csv",
			wantType: Transactions,
			wantDate: "2025-01-10",
			wantName: "sales_20250110093000.csv",
		},
		{
			name:     "date-only-from-basename",
			key:      "inbox/20240101/sales_v2.csv",
			wantType: Transactions,
			wantDate: "2025-03-15",
			wantName: "sales_v2.csv",
		},
		{
			name:     "first-run-wins",
			key:      "inbox/stores_20250110_20250111.csv",
			wantType: Stores,
			wantDate: "2025-01-10",
			wantName: "stores_20250110_20250111.csv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.key, processingTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("type want: %v, got: %v", tt.wantType, got.Type)
			}
			if d := got.BatchDate.Format("2006-01-02"); d != tt.wantDate {
				t.Errorf("batch date want: %s, got: %s", tt.wantDate, d)
			}
			if got.SourceFilename != tt.wantName {
				t.Errorf("filename want: %s, got: %s", tt.wantName, got.SourceFilename)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, key := range []string{"inbox/readme.txt", "inbox/inventory_20250110.csv", "inbox/99999999.csv"} {
		got, err := Classify(key, processingTime)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", key, err)
		}
		if got != (ClassifiedFile{Type: Unknown}) {
			t.Errorf("%s: want bare Unknown, got: %+v", key, got)
		}
	}
}

func TestClassifyInvalidDate(t *testing.T) {
	for _, key := range []string{"inbox/stores_20251301.csv", "inbox/sales_99999999.csv", "inbox/sales_20250230.csv"} {
		_, err := Classify(key, processingTime)
		if !errors.Is(err, ErrInvalidBatchDate) {
			t.Errorf("%s: want ErrInvalidBatchDate, got: %v", key, err)
		}
	}
}

func TestFileTypeString(t *testing.T) {
	if Stores.String() != "stores" || Transactions.String() != "transactions" || Unknown.String() != "unknown" {
		t.Errorf("unexpected names: %s %s %s", Stores, Transactions, Unknown)
	}
}
