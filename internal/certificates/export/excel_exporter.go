package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"msc-cert/portal-backend/internal/certificates"
)

// ExcelOptions configures the register workbook.
type ExcelOptions struct {
	SheetName    string
	FreezeHeader bool
	AutoFilter   bool
	DateFormat   string
	HeaderStyle  *ExcelStyleConfig
	DataStyle    *ExcelStyleConfig
	MinWidth     float64
	MaxWidth     float64
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool
	FontSize  int
	FontColor string
	FillColor string
	Alignment string // left, center, right
	Border    bool
	WrapText  bool
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:    "Certificates",
		FreezeHeader: true,
		AutoFilter:   true,
		DateFormat:   "dd.mm.yyyy",
		MinWidth:     10,
		MaxWidth:     50,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "01434F",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize:  10,
			Alignment: "left",
			Border:    true,
		},
	}
}

type registerColumn struct {
	header string
	value  func(c *certificates.Certificate, today certificates.Date) interface{}
}

var registerColumns = []registerColumn{
	{"Certificate Number", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.CertificateNumber }},
	{"Company", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.CompanyName }},
	{"Standard", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.Standard.Display() }},
	{"Status", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.Status.Display() }},
	{"IAF Code", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.IAFCode }},
	{"Scope", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.ScopeActivity }},
	{"Address", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.Address }},
	{"First Issue", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.FirstIssueDate }},
	{"Expiry", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.ExpiryDate }},
	{"Next Maintenance", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.NextMaintenanceDate }},
	{"Last Maintenance", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.LastMaintenanceDate }},
	{"Days Until Expiry", func(c *certificates.Certificate, today certificates.Date) interface{} { return c.DaysUntilExpiry(today) }},
	{"Maintenance Due", func(c *certificates.Certificate, today certificates.Date) interface{} {
		if c.IsMaintenanceDue(today) {
			return "Yes"
		}
		return "No"
	}},
	{"Sites", func(c *certificates.Certificate, _ certificates.Date) interface{} { return len(c.Sites) }},
	{"Secure ID", func(c *certificates.Certificate, _ certificates.Date) interface{} { return c.SecureID.String() }},
}

// ExcelExporter writes the certificate register as an XLSX workbook.
type ExcelExporter struct {
	options ExcelOptions
}

func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	return &ExcelExporter{options: options}
}

// Export builds a workbook with one row per certificate.
func (e *ExcelExporter) Export(certs []certificates.Certificate, today certificates.Date) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := e.options.SheetName
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &sheetWriter{file: file, sheet: sheet, widths: map[int]float64{}}
	if err := e.writeHeader(w); err != nil {
		return nil, err
	}
	if err := e.writeRows(w, certs, today); err != nil {
		return nil, err
	}
	if err := e.finish(w, len(certs)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetWriter struct {
	file   *excelize.File
	sheet  string
	widths map[int]float64
}

func (e *ExcelExporter) writeHeader(w *sheetWriter) error {
	styleID, err := createStyle(w.file, e.options.HeaderStyle, nil)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range registerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.file.SetCellValue(w.sheet, cell, col.header); err != nil {
			return err
		}
		if styleID > 0 {
			if err := w.file.SetCellStyle(w.sheet, cell, cell, styleID); err != nil {
				return fmt.Errorf("failed to style header %s: %w", cell, err)
			}
		}
		w.track(i, col.header)
	}

	if e.options.FreezeHeader {
		return w.file.SetPanes(w.sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func (e *ExcelExporter) writeRows(w *sheetWriter, certs []certificates.Certificate, today certificates.Date) error {
	dataStyle, err := createStyle(w.file, e.options.DataStyle, nil)
	if err != nil {
		return fmt.Errorf("failed to create data style: %w", err)
	}
	dateStyle, err := createStyle(w.file, e.options.DataStyle, &e.options.DateFormat)
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for rowIdx := range certs {
		cert := &certs[rowIdx]
		for colIdx, col := range registerColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			isDate, err := w.set(cell, col.value(cert, today))
			if err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			style := dataStyle
			if isDate {
				style = dateStyle
			}
			if style > 0 {
				if err := w.file.SetCellStyle(w.sheet, cell, cell, style); err != nil {
					return fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			}
			w.track(colIdx, col.value(cert, today))
		}
	}
	return nil
}

func (e *ExcelExporter) finish(w *sheetWriter, rows int) error {
	lastCol, _ := excelize.ColumnNumberToName(len(registerColumns))
	if e.options.AutoFilter && rows > 0 {
		if err := w.file.AutoFilter(w.sheet, fmt.Sprintf("A1:%s%d", lastCol, rows+1), nil); err != nil {
			return fmt.Errorf("failed to apply auto filter: %w", err)
		}
	}

	for colIdx, width := range w.widths {
		if width < e.options.MinWidth {
			width = e.options.MinWidth
		}
		if e.options.MaxWidth > 0 && width > e.options.MaxWidth {
			width = e.options.MaxWidth
		}
		name, _ := excelize.ColumnNumberToName(colIdx + 1)
		if err := w.file.SetColWidth(w.sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// set writes a value and reports whether it is a date cell.
func (w *sheetWriter) set(cell string, val interface{}) (bool, error) {
	switch v := val.(type) {
	case certificates.Date:
		if v.IsZero() {
			return false, w.file.SetCellValue(w.sheet, cell, "")
		}
		return true, w.file.SetCellValue(w.sheet, cell, v.Time)
	case *certificates.Date:
		if v == nil || v.IsZero() {
			return false, w.file.SetCellValue(w.sheet, cell, "")
		}
		return true, w.file.SetCellValue(w.sheet, cell, v.Time)
	default:
		return false, w.file.SetCellValue(w.sheet, cell, v)
	}
}

// track keeps the widest estimate per column.
func (w *sheetWriter) track(col int, val interface{}) {
	var width float64
	switch v := val.(type) {
	case certificates.Date, *certificates.Date:
		width = 12
	default:
		width = float64(utf8.RuneCountInString(fmt.Sprintf("%v", v))) * 1.2
	}
	if width > w.widths[col] {
		w.widths[col] = width
	}
}

func createStyle(file *excelize.File, config *ExcelStyleConfig, numFmt *string) (int, error) {
	if config == nil && numFmt == nil {
		return 0, nil
	}
	style := &excelize.Style{}
	if numFmt != nil && *numFmt != "" {
		style.CustomNumFmt = numFmt
	}
	if config == nil {
		return file.NewStyle(style)
	}

	style.Font = &excelize.Font{
		Bold: config.FontBold,
		Size: float64(config.FontSize),
	}
	if config.FontColor != "" {
		style.Font.Color = config.FontColor
	}
	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}
	if config.Alignment != "" || config.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: config.Alignment,
			WrapText:   config.WrapText,
		}
	}
	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}
	return file.NewStyle(style)
}
