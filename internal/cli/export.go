package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/idelchi/mailusage/internal/usage"
)

// csvHeader lists the exported columns.
//
//nolint:gochecknoglobals // Config constant
var csvHeader = []string{"account", "email", "domain", "size_bytes", "size_human"}

// WriteCSV writes one row per record, without aggregate rows.
func WriteCSV(records []usage.UsageRecord, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{r.Account, r.Email, r.Domain, strconv.FormatInt(r.SizeBytes, 10), r.SizeHuman()}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ExportCSV writes records to a CSV file at path, replacing it if it exists.
func ExportCSV(path string, records []usage.UsageRecord) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %q: %w", path, cerr)
		}
	}()

	if err := WriteCSV(records, file); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}

	return nil
}
