// Package export renders the record collection as an .xlsx workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

const (
	SheetName = "Jobs"
	TableName = "JobListings"

	maxColWidth = 50
	urlColWidth = 10
	dateFormat  = `dd "of" mmmm yyyy`
)

type column struct {
	key   string
	value func(r *models.JobRecord) any
}

// URL is always the last column.
var columns = []column{
	{"title", func(r *models.JobRecord) any { return r.Title }},
	{"date_analyzed", func(r *models.JobRecord) any { return timeValue(r.DateAnalyzed) }},
	{"posted_time", func(r *models.JobRecord) any { return timeValue(r.PostedTime) }},
	{"experience_years_needed", func(r *models.JobRecord) any { return r.ExperienceYearsNeeded }},
	{"easy_apply", func(r *models.JobRecord) any { return r.EasyApply }},
	{"seniority_level", func(r *models.JobRecord) any { return r.SeniorityLevel }},
	{"employment_type", func(r *models.JobRecord) any { return r.EmploymentType }},
	{"job_function", func(r *models.JobRecord) any { return r.JobFunction }},
	{"industries", func(r *models.JobRecord) any { return r.Industries }},
	{"required_studies", func(r *models.JobRecord) any { return r.RequiredStudies }},
	{"technologies_required", func(r *models.JobRecord) any { return strings.Join(r.TechnologiesRequired, ", ") }},
	{"company", func(r *models.JobRecord) any { return r.Company }},
	{"location", func(r *models.JobRecord) any { return r.Location }},
	{"salary_offered", func(r *models.JobRecord) any { return salaryValue(r.SalaryOffered) }},
	{"job_id", func(r *models.JobRecord) any { return r.JobID }},
	{"title_language", func(r *models.JobRecord) any { return r.TitleLanguage }},
	{"description_language", func(r *models.JobRecord) any { return r.DescriptionLanguage }},
	{"source", func(r *models.JobRecord) any { return string(r.Source) }},
	{"url", func(r *models.JobRecord) any { return r.URL }},
}

// Header turns a snake_case key into a column title: "posted_time" is "Posted Time".
func Header(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// SortRecords orders records newest analysis first, then newest posting.
// The input slice is left untouched.
func SortRecords(records []models.JobRecord) []models.JobRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.JobRecord) int {
		if c := b.DateAnalyzed.Compare(a.DateAnalyzed.Time); c != 0 {
			return c
		}
		return b.PostedTime.Compare(a.PostedTime.Time)
	})
	return sorted
}

// WriteExcel writes records to a single-sheet workbook at path.
func WriteExcel(path string, records []models.JobRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	widths := make([]int, len(columns))
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = Header(col.key)
		widths[i] = utf8.RuneCountInString(header[i].(string))
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	sorted := SortRecords(records)
	for i := range sorted {
		row := i + 2
		if err := writeRow(f, row, &sorted[i], styles, widths); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(min(w+2, maxColWidth))
		if columns[i].key == "url" {
			width = urlColWidth
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if len(sorted) > 0 {
		stripes := true
		if err := f.AddTable(SheetName, &excelize.Table{
			Range:          fmt.Sprintf("A1:%s%d", lastCol, len(sorted)+1),
			Name:           TableName,
			StyleName:      "TableStyleMedium2",
			ShowRowStripes: &stripes,
		}); err != nil {
			return fmt.Errorf("add table: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

type styleSet struct {
	header int
	date   int
	link   int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	numFmt := dateFormat
	s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return s, fmt.Errorf("date style: %w", err)
	}
	s.link, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "0563C1", Underline: "single"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("link style: %w", err)
	}
	return s, nil
}

func writeRow(f *excelize.File, row int, rec *models.JobRecord, styles styleSet, widths []int) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		value := col.value(rec)

		switch col.key {
		case "url":
			if rec.URL == "" {
				continue
			}
			if err := f.SetCellValue(SheetName, cell, "Link"); err != nil {
				return err
			}
			if err := f.SetCellHyperLink(SheetName, cell, rec.URL, "External"); err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetName, cell, cell, styles.link); err != nil {
				return err
			}
			continue
		case "date_analyzed", "posted_time":
			if value == nil {
				continue
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetName, cell, cell, styles.date); err != nil {
				return err
			}
			//a formatted date is about as wide as its header
			continue
		}

		if err := f.SetCellValue(SheetName, cell, value); err != nil {
			return err
		}
		if n := utf8.RuneCountInString(fmt.Sprint(value)); n > widths[i] {
			widths[i] = n
		}
	}
	return nil
}

func timeValue(ts models.Timestamp) any {
	if ts.IsZero() {
		return nil
	}
	return ts.Time
}

func salaryValue(s models.Salary) any {
	if s.Text != "" {
		return s.Text
	}
	return s.Amount
}
