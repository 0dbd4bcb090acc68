package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

var errNoSheet = errors.New("no active sheet")

// SheetWriter writes tabular data to a workbook, one sheet at a time.
type SheetWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter streams rows into an excelize workbook. Each sheet is
// flushed before the next one is started.
type ExcelizeWriter struct {
	file   *excelize.File
	stream *excelize.StreamWriter
	sheets int
	row    int
	bold   int
}

// NewExcelizeWriter creates a new workbook writer.
func NewExcelizeWriter() SheetWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

// AddSheet starts a new sheet. The workbook's default sheet is reused for the first one.
func (w *ExcelizeWriter) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if err := w.flush(); err != nil {
		return err
	}

	if w.sheets == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	stream, err := w.file.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("stream sheet %s: %w", name, err)
	}
	w.stream = stream
	w.sheets++
	w.row = 1
	return nil
}

// WriteHeader writes a bold header row and freezes everything above the next row.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.stream == nil {
		return errNoSheet
	}
	if w.bold == 0 {
		style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		w.bold = style
	}

	if err := w.stream.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      w.row,
		TopLeftCell: fmt.Sprintf("A%d", w.row+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	cells := make([]interface{}, len(columns))
	for i, c := range columns {
		cells[i] = c
	}
	return w.setRow(cells, excelize.RowOpts{StyleID: w.bold})
}

// WriteRow appends a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.stream == nil {
		return errNoSheet
	}
	return w.setRow(row)
}

func (w *ExcelizeWriter) setRow(values []interface{}, opts ...excelize.RowOpts) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, values, opts...); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *ExcelizeWriter) flush() error {
	if w.stream == nil {
		return nil
	}
	err := w.stream.Flush()
	w.stream = nil
	return err
}

// Save flushes the open sheet and writes the workbook to out.
func (w *ExcelizeWriter) Save(out io.Writer) error {
	if err := w.flush(); err != nil {
		return err
	}
	return w.file.Write(out)
}

func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}
