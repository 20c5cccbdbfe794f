package report

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/lchcare/rpmbill/internal/model"
)

// WriteParquet writes report rows to a Parquet file at path.
func WriteParquet(path string, rows []model.BillingRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	w := parquet.NewGenericWriter[model.BillingRow](f)
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			f.Close()
			return fmt.Errorf("write report rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close report writer: %w", err)
	}
	return f.Close()
}

// ReadParquet reads report rows back from a Parquet file, used by dev
// tooling and tests.
func ReadParquet(path string) ([]model.BillingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat report file: %w", err)
	}

	rows, err := parquet.Read[model.BillingRow](f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read report rows: %w", err)
	}
	return rows, nil
}
