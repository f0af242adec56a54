package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"labcatalog/internal/domain"

	"github.com/xuri/excelize/v2"
)

// listSep separates list entries in one cell. Entries containing a comma or
// a double quote are quoted CSV style.
const listSep = ", "

// column one spreadsheet column bound to a record field
type column[T any] struct {
	header string
	width  float64
	get    func(*T) string
	set    func(*T, string)
}

func textColumn[T any](header string, width float64, field func(*T) *string) column[T] {
	return column[T]{
		header: header,
		width:  width,
		get:    func(r *T) string { return *field(r) },
		set:    func(r *T, v string) { *field(r) = v },
	}
}

func listColumn[T any](header string, width float64, field func(*T) *[]string) column[T] {
	return column[T]{
		header: header,
		width:  width,
		get:    func(r *T) string { return joinList(*field(r)) },
		set:    func(r *T, v string) { *field(r) = splitList(v) },
	}
}

func joinList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		if strings.ContainsAny(it, ",\"\n") {
			it = `"` + strings.ReplaceAll(it, `"`, `""`) + `"`
		}
		quoted[i] = it
	}
	return strings.Join(quoted, listSep)
}

// splitList parses a list cell written by joinList or typed by hand
// ("VOC,BTEX"). Cells that are not valid CSV fall back to a plain comma split.
func splitList(v string) []string {
	r := csv.NewReader(strings.NewReader(v))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return cleanList(strings.Split(v, ","))
	}
	var out []string
	for _, rec := range records {
		out = append(out, rec...)
	}
	return cleanList(out)
}

var compoundColumns = []column[domain.Compound]{
	textColumn("ID", 38, func(c *domain.Compound) *string { return &c.ID }),
	textColumn("Name", 30, func(c *domain.Compound) *string { return &c.Name }),
	textColumn("CAS", 15, func(c *domain.Compound) *string { return &c.CAS }),
	listColumn("Methods", 40, func(c *domain.Compound) *[]string { return &c.Methods }),
	listColumn("Panels", 30, func(c *domain.Compound) *[]string { return &c.Panels }),
}

var methodColumns = []column[domain.Method]{
	textColumn("ID", 38, func(m *domain.Method) *string { return &m.ID }),
	textColumn("Method", 25, func(m *domain.Method) *string { return &m.Name }),
	textColumn("Reporting Limit", 15, func(m *domain.Method) *string { return &m.ReportingLimit }),
	textColumn("Analytical Technique", 20, func(m *domain.Method) *string { return &m.AnalyticalTechnique }),
	textColumn("Media Option", 20, func(m *domain.Method) *string { return &m.MediaOption }),
	textColumn("Single Analyte", 15, func(m *domain.Method) *string { return &m.SingleAnalyte }),
	textColumn("Additional Analyte", 15, func(m *domain.Method) *string { return &m.AdditionalAnalyte }),
	textColumn("Panel Cost", 12, func(m *domain.Method) *string { return &m.PanelCost }),
	textColumn("Standard TAT", 12, func(m *domain.Method) *string { return &m.StandardTAT }),
	textColumn("Flow Rate", 12, func(m *domain.Method) *string { return &m.FlowRate }),
	textColumn("Sampling Criteria", 20, func(m *domain.Method) *string { return &m.SamplingCriteria }),
	textColumn("Air Volume", 12, func(m *domain.Method) *string { return &m.AirVolume }),
	textColumn("Shipping", 15, func(m *domain.Method) *string { return &m.Shipping }),
	textColumn("Stability", 15, func(m *domain.Method) *string { return &m.Stability }),
	textColumn("ALS Storage Policy", 20, func(m *domain.Method) *string { return &m.ALSStoragePolicy }),
	textColumn("ALS SOP", 15, func(m *domain.Method) *string { return &m.ALSSOP }),
	textColumn("Pricing Notes", 25, func(m *domain.Method) *string { return &m.PricingNotes }),
	textColumn("Notes", 30, func(m *domain.Method) *string { return &m.Notes }),
	textColumn("AIHA Accredited", 12, func(m *domain.Method) *string { return &m.AIHAAccredited }),
	textColumn("3 Sample Minimum", 12, func(m *domain.Method) *string { return &m.ThreeSampleMinimum }),
	textColumn("Combo", 12, func(m *domain.Method) *string { return &m.Combo }),
	listColumn("Panels", 30, func(m *domain.Method) *[]string { return &m.Panels }),
}

var panelColumns = []column[domain.Panel]{
	textColumn("ID", 38, func(p *domain.Panel) *string { return &p.ID }),
	textColumn("Name", 30, func(p *domain.Panel) *string { return &p.Name }),
	listColumn("Associated Panels", 40, func(p *domain.Panel) *[]string { return &p.AssociatedPanels }),
}

var noteColumns = []column[domain.Note]{
	textColumn("ID", 38, func(n *domain.Note) *string { return &n.ID }),
	textColumn("Compound", 25, func(n *domain.Note) *string { return &n.Compound }),
	textColumn("CAS", 15, func(n *domain.Note) *string { return &n.CAS }),
	textColumn("Method", 20, func(n *domain.Note) *string { return &n.Method }),
	textColumn("Notes", 40, func(n *domain.Note) *string { return &n.Notes }),
	{header: "Status", width: 12, get: func(n *domain.Note) string { return n.StatusLabel() }},
	textColumn("Corrective Actions", 40, func(n *domain.Note) *string { return &n.CorrectiveActions }),
	textColumn("Assigned To", 25, func(n *domain.Note) *string { return &n.AssignedTo }),
	{header: "Created At", width: 20, get: func(n *domain.Note) string { return n.CreatedAt.Format(time.DateTime) }},
	{header: "Updated At", width: 20, get: func(n *domain.Note) string {
		if n.UpdatedAt == nil {
			return ""
		}
		return n.UpdatedAt.Format(time.DateTime)
	}},
}

func headersOf[T any](cols []column[T]) ([]string, []float64) {
	headers := make([]string, len(cols))
	widths := make([]float64, len(cols))
	for i, c := range cols {
		headers[i], widths[i] = c.header, c.width
	}
	return headers, widths
}

func rowsOf[T any](cols []column[T], records []*T) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.get(r)
		}
		rows = append(rows, row)
	}
	return rows
}

// parsedRow a data row with its 1-based sheet row number
type parsedRow[T any] struct {
	line   int
	record *T
}

// parseRows maps cells onto records by header name (case-insensitive, any
// column order). Unknown headers are ignored; blank rows are skipped.
func parseRows[T any](cols []column[T], rows [][]string, required string) ([]parsedRow[T], error) {
	if len(rows) == 0 {
		return nil, domain.Validationf("sheet is empty")
	}
	byHeader := map[string]int{}
	for i, h := range rows[0] {
		byHeader[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := byHeader[strings.ToLower(required)]; !ok {
		return nil, domain.Validationf("missing required column %q", required)
	}

	var out []parsedRow[T]
	for n, row := range rows[1:] {
		rec := new(T)
		blank := true
		for _, c := range cols {
			if c.set == nil {
				continue
			}
			i, ok := byHeader[strings.ToLower(c.header)]
			if !ok || i >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[i])
			if v != "" {
				blank = false
			}
			c.set(rec, v)
		}
		if !blank {
			out = append(out, parsedRow[T]{line: n + 2, record: rec})
		}
	}
	return out, nil
}

// writeWorkbook renders one styled sheet: bold bordered header, column widths,
// frozen header row.
func writeWorkbook(sheetName string, headers []string, widths []float64, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; every exit path closes it explicitly.

	if _, err := f.NewSheet(sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}
	index, err := f.GetSheetIndex(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) && widths[col] > 0 {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheetName, name, name, widths[col]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellStr(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// readWorkbook returns the cell rows of the first sheet.
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Validationf("failed to parse Excel file: %v", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, domain.Validationf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, domain.Validationf("failed to read rows: %v", err)
	}
	return rows, nil
}
