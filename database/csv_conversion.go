package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/SirZenith/taskmon/database/data_model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var timeType = reflect.TypeOf(time.Time{})

// Layouts accepted for time columns, first one is what ExportCSV writes.
var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseCSVTime(text string) (time.Time, error) {
	var err error
	for _, layout := range csvTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// setFieldFromCSV parses CSV cell text into given field value.
func setFieldFromCSV(rValue reflect.Value, text string) error {
	if rValue.Type() == timeType {
		if text == "" {
			rValue.Set(reflect.Zero(timeType))
			return nil
		}

		t, err := parseCSVTime(text)
		if err != nil {
			return err
		}
		rValue.Set(reflect.ValueOf(t))
		return nil
	}

	switch rValue.Kind() {
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		rValue.SetInt(i)
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return err
		}
		rValue.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		rValue.SetFloat(f)
	case reflect.Bool:
		rValue.SetBool(text != "0" && text != "false" && text != "")
	case reflect.String:
		rValue.SetString(text)
	case reflect.Ptr:
		if rValue.IsNil() {
			rValue.Set(reflect.New(rValue.Type().Elem()))
		}
		return setFieldFromCSV(rValue.Elem(), text)
	default:
		return fmt.Errorf("unhandled type: %s", rValue.Kind())
	}

	return nil
}

// Maps each CSV header column to struct field index path of model.
func resolveCSVColumns(db *gorm.DB, model any, header []string) ([][]int, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model schema: %s", err)
	}

	indices := make([][]int, 0, len(header))
	for _, name := range header {
		field := stmt.Schema.LookUpField(name)
		if field == nil {
			return nil, fmt.Errorf("invalid field name %s", name)
		}
		indices = append(indices, field.StructField.Index)
	}

	return indices, nil
}

// ImportCSV reads CSV file written by ExportCSV and upserts every line into
// given table. Returns number of imported records.
func ImportCSV(db *gorm.DB, tableName string, csvFilePath string) (int, error) {
	if GetModel(tableName) == nil {
		return 0, fmt.Errorf("invalid table name %q", tableName)
	}

	file, err := os.Open(csvFilePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file %s: %s", csvFilePath, err)
	}
	defer file.Close()

	csvReader := csv.NewReader(file)

	header, err := csvReader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %s", err)
	}

	indices, err := resolveCSVColumns(db, GetModel(tableName), header)
	if err != nil {
		return 0, err
	}

	count := 0
	for lineNum := 2; ; lineNum++ {
		line, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return count, fmt.Errorf("failed to read line %d: %s", lineNum, err)
		}

		model := GetModel(tableName)
		rValue := reflect.ValueOf(model).Elem()

		for i, index := range indices {
			if err := setFieldFromCSV(rValue.FieldByIndex(index), line[i]); err != nil {
				return count, fmt.Errorf("failed to unmarshal line %d field %s: %s", lineNum, header[i], err)
			}
		}

		if entry, ok := model.(data_model.DataModel); ok {
			err = entry.Upsert(db)
		} else {
			err = db.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
		}

		if err != nil {
			return count, fmt.Errorf("failed to save line %d: %s", lineNum, err)
		}

		count++
	}

	return count, nil
}
