// Package report renders appointment data as XLSX workbooks for administrators.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"appointease/internal/models"

	"github.com/rs/zerolog"
)

// TableSource provides raw tables appended after the appointments sheet.
type TableSource interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error)
}

// AppointmentColumns is the header of the appointments sheet.
var AppointmentColumns = []string{
	"ID", "Date", "Start", "End", "Service", "Duration (min)", "Price",
	"User ID", "User", "Email", "Status", "Notes", "Created", "Updated",
}

// Exporter builds workbooks.
type Exporter struct {
	tables    TableSource
	newWriter func() SheetWriter
	logger    zerolog.Logger
}

// NewExporter creates an exporter. tables may be nil.
func NewExporter(tables TableSource, logger *zerolog.Logger) *Exporter {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "report").Logger()
	}
	return &Exporter{tables: tables, newWriter: NewExcelizeWriter, logger: l}
}

// Filename returns the download name for an export generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("appointments_%s.xlsx", t.Format("2006-01-02_1504"))
}

// Write renders appointments, followed by every source table, into out.
func (e *Exporter) Write(ctx context.Context, out io.Writer, list []models.AppointmentWithDetails) error {
	w := e.newWriter()
	defer w.Close()

	if err := w.AddSheet("appointments"); err != nil {
		return err
	}
	if err := w.WriteHeader(AppointmentColumns); err != nil {
		return err
	}
	for _, a := range list {
		row := []interface{}{
			a.ID,
			a.TimeSlot.Date,
			a.TimeSlot.StartTime,
			a.TimeSlot.EndTime,
			a.Service.Name,
			a.Service.DurationMinutes,
			a.Service.Price,
			a.UserID,
			a.UserName,
			a.UserEmail,
			string(a.Status),
			a.Notes,
			a.CreatedAt.Format(time.RFC3339),
			a.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write appointment %s: %w", a.ID, err)
		}
	}

	if e.tables != nil {
		if err := e.writeTables(ctx, w); err != nil {
			return err
		}
	}

	if err := w.Save(out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Info().Int("appointments", len(list)).Msg("workbook exported")
	return nil
}

func (e *Exporter) writeTables(ctx context.Context, w SheetWriter) error {
	tables, err := e.tables.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("get table names: %w", err)
	}

	for _, tableName := range tables {
		data, columns, err := e.tables.GetTableData(ctx, tableName)
		if err != nil {
			e.logger.Error().Err(err).Str("table", tableName).Msg("failed to get table data")
			continue
		}
		if err := w.AddSheet(tableName); err != nil {
			return err
		}
		if err := w.WriteHeader(columns); err != nil {
			return err
		}
		for _, row := range data {
			rowData := make([]interface{}, len(columns))
			for i, col := range columns {
				rowData[i] = row[col]
			}
			if err := w.WriteRow(rowData); err != nil {
				e.logger.Error().Err(err).Str("table", tableName).Msg("failed to write row")
			}
		}
		e.logger.Debug().Str("table", tableName).Int("rows", len(data)).Msg("exported table")
	}
	return nil
}
