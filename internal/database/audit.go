package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// AuditTableNames are the tables included in spreadsheet exports.
var AuditTableNames = []string{
	"booking_events",
}

// GetTableNames lists the journal tables an export may dump.
func (j *Journal) GetTableNames(_ context.Context) ([]string, error) {
	return slices.Clone(AuditTableNames), nil
}

// GetTableData dumps tableName in insertion order. Only AuditTableNames are accepted.
func (j *Journal) GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error) {
	if !slices.Contains(AuditTableNames, tableName) {
		return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	rows, err := j.QueryContext(ctx, "SELECT * FROM "+tableName+" ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()
	return scanMaps(rows)
}

// scanMaps reads every row into a column-keyed map; TEXT blobs come back as strings.
func scanMaps(rows *sql.Rows) ([]map[string]interface{}, []string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			if raw, ok := cells[i].([]byte); ok {
				row[name] = string(raw)
				continue
			}
			row[name] = cells[i]
		}
		out = append(out, row)
	}
	return out, columns, rows.Err()
}
