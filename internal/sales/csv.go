package sales

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
)

// Frame converts records to a string-typed DataFrame in file column order.
func Frame(records []Record) dataframe.DataFrame {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header())
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return dataframe.LoadRecords(rows, stringOptions()...)
}

// WriteCSV writes records with a header row. The output loads back with Read.
func WriteCSV(w io.Writer, records []Record) error {
	if len(records) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header()); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}
	df := Frame(records)
	if df.Err != nil {
		return fmt.Errorf("build frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
