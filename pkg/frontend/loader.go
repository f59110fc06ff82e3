package frontend

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Row is one decoded CSV row, already typed against a table's property
// schema, in declared property order.
type Row []vector.Value

// Loader bulk-loads rows from an external source into a bound node or
// relationship table. Kept behind an interface per spec.md §6 — the bulk
// loader is a black box; this package provides the one minimal concrete
// implementation.
type Loader interface {
	LoadCSV(r io.Reader, schema []catalog.PropertySchema) ([]Row, error)
}

// CSVLoader decodes CSV rows using the standard library's encoding/csv;
// no third-party CSV package appears anywhere in the retrieved pack, so
// this is the one place this frontend intentionally stays on the standard
// library (see DESIGN.md).
type CSVLoader struct{}

// LoadCSV reads every record from r and converts each field positionally
// against schema's declared property types. The first record is skipped
// as a header row, matching Kuzu's own COPY FROM convention.
func (CSVLoader) LoadCSV(r io.Reader, schema []catalog.PropertySchema) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, dberrors.Internal("frontend: failed to read CSV header: " + err.Error())
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dberrors.Internal("frontend: CSV read error: " + err.Error())
		}
		if len(record) != len(schema) {
			return nil, dberrors.Internal("frontend: CSV row has wrong column count")
		}
		row := make(Row, len(schema))
		for i, field := range record {
			val, err := parseField(schema[i].Type, field)
			if err != nil {
				return nil, err
			}
			row[i] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseField(tag vector.TypeTag, field string) (vector.Value, error) {
	switch tag {
	case vector.TypeInt64:
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return vector.Value{}, dberrors.Internal("frontend: invalid INT64 field " + field)
		}
		return vector.Value{Tag: vector.TypeInt64, Int64: n}, nil
	case vector.TypeDouble:
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return vector.Value{}, dberrors.Internal("frontend: invalid DOUBLE field " + field)
		}
		return vector.Value{Tag: vector.TypeDouble, Double: f}, nil
	case vector.TypeBool:
		b, err := strconv.ParseBool(field)
		if err != nil {
			return vector.Value{}, dberrors.Internal("frontend: invalid BOOL field " + field)
		}
		return vector.Value{Tag: vector.TypeBool, Bool: b}, nil
	case vector.TypeString:
		return vector.Value{Tag: vector.TypeString, Str: field}, nil
	default:
		return vector.Value{}, dberrors.Internal("frontend: unsupported CSV column type")
	}
}
