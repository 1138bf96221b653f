package database

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm"
)

// CsvConverter writes result rows of a query as CSV.
type CsvConverter struct {
	Headers      []string
	WriteHeaders bool
	TimeFormat   string
	Delimiter    rune

	rows            *sql.Rows
	rowPreProcessor CsvPreProcessorFunc
}

func NewCsvConverter(rows *sql.Rows) *CsvConverter {
	return &CsvConverter{
		rows:         rows,
		WriteHeaders: true,
		TimeFormat:   time.RFC3339Nano,
		Delimiter:    ',',
	}
}

// CsvPreProcessorFunc is called with each row before it gets written, returning
// false as first value skips the row.
type CsvPreProcessorFunc func(row []string, columnNames []string) (outputRow bool, processedRow []string)

func (c *CsvConverter) SetRowPreProcessor(processor CsvPreProcessorFunc) {
	c.rowPreProcessor = processor
}

func (c CsvConverter) WriteFile(csvFileName string) error {
	f, err := os.Create(csvFileName)
	if err != nil {
		return err
	}

	err = c.Write(f)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (c CsvConverter) Write(writer io.Writer) error {
	rows := c.rows

	csvWriter := csv.NewWriter(writer)
	if c.Delimiter != '\x00' {
		csvWriter.Comma = c.Delimiter
	}

	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}

	if c.WriteHeaders {
		headers := columnNames
		if len(c.Headers) > 0 {
			headers = c.Headers
		}

		if err = csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	count := len(columnNames)
	values := make([]any, count)
	valuePtrs := make([]any, count)
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err = rows.Scan(valuePtrs...); err != nil {
			return err
		}

		row := make([]string, count)
		for i, rawValue := range values {
			row[i] = c.formatValue(rawValue)
		}

		writeRow := true
		if c.rowPreProcessor != nil {
			writeRow, row = c.rowPreProcessor(row, columnNames)
		}

		if writeRow {
			if err = csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write data row to csv %w", err)
			}
		}
	}

	csvWriter.Flush()
	if err = csvWriter.Error(); err != nil {
		return err
	}

	return rows.Err()
}

func (c CsvConverter) formatValue(rawValue any) string {
	switch value := rawValue.(type) {
	case nil:
		return ""
	case []byte:
		return string(value)
	case time.Time:
		if c.TimeFormat != "" {
			return value.Format(c.TimeFormat)
		}
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// ExportCSV writes all rows of given table into CSV file.
func ExportCSV(db *gorm.DB, tableName string, csvFilePath string) error {
	model := GetModel(tableName)
	if model == nil {
		return fmt.Errorf("invalid table name %q", tableName)
	}

	rows, err := db.Model(model).Rows()
	if err != nil {
		return fmt.Errorf("failed to make query to table %s: %s", tableName, err)
	}
	defer rows.Close()

	return NewCsvConverter(rows).WriteFile(csvFilePath)
}
