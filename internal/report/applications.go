package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Applications"

// Columns is the layout shared by export and import.
var Columns = []string{
	"ID", "Owner Name", "Email", "Phone", "Store Name", "Store Type", "Location",
	"Business Registration Number", "Tax ID", "ID Type", "ID Number",
	"ID Front URL", "ID Back URL", "Selfie With ID URL",
	"Business Certificate URL", "Utility Bill URL", "Bank Statement URL",
	"Status", "Rejection Reason", "Submitted At", "Reviewed At",
}

// importable columns that must be present for a row to be accepted
var requiredColumns = []string{
	"Owner Name", "Email", "Phone", "Store Name", "Store Type", "Location",
	"Business Registration Number", "Tax ID", "ID Type", "ID Number",
	"ID Front URL", "ID Back URL", "Selfie With ID URL",
	"Business Certificate URL", "Utility Bill URL",
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WriteApplications renders applications as a single-sheet workbook.
func WriteApplications(w io.Writer, apps []model.StoreApplication) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for i := range apps {
		a := &apps[i]
		submitted := a.SubmittedAt
		row := []interface{}{
			a.ID, a.OwnerName, a.Email, a.Phone, a.StoreName, string(a.StoreType), a.Location,
			a.BusinessRegistrationNumber, a.TaxID, string(a.IDType), a.IDNumber,
			a.IDFrontURL, a.IDBackURL, a.SelfieWithIDURL,
			a.BusinessCertificateURL, a.UtilityBillURL, a.BankStatementURL,
			string(a.VerificationStatus), a.RejectionReason, formatTime(&submitted), formatTime(a.ReviewedAt),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// ImportResult holds the rows that could be turned into pending applications.
type ImportResult struct {
	Applications []*model.StoreApplication
	Skipped      int
	Problems     []string
}

// ReadApplications parses a workbook in the export layout. Columns are matched
// by header name so extra or reordered columns are tolerated.
func ReadApplications(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := index[strings.ToLower(c)]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	get := func(row []string, column string) string {
		i, ok := index[strings.ToLower(column)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := &ImportResult{}
	seen := make(map[string]bool)
	now := time.Now().UTC()

	for n, row := range rows[1:] {
		line := n + 2

		missing := ""
		for _, c := range requiredColumns {
			if get(row, c) == "" {
				missing = c
				break
			}
		}
		if missing != "" {
			result.skip(fmt.Sprintf("row %d: %s is empty", line, missing))
			continue
		}

		email := strings.ToLower(get(row, "Email"))
		if seen[email] {
			result.skip(fmt.Sprintf("row %d: duplicate email %s", line, email))
			continue
		}

		storeType := model.StoreType(strings.ToLower(get(row, "Store Type")))
		idType := model.IDType(strings.ToLower(get(row, "ID Type")))
		if !storeType.Valid() || !idType.Valid() {
			result.skip(fmt.Sprintf("row %d: unknown store type or id type", line))
			continue
		}
		seen[email] = true

		submitted := now
		if raw := get(row, "Submitted At"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				submitted = t
			}
		}

		result.Applications = append(result.Applications, &model.StoreApplication{
			OwnerName:                  get(row, "Owner Name"),
			Email:                      email,
			Phone:                      get(row, "Phone"),
			StoreName:                  get(row, "Store Name"),
			StoreType:                  storeType,
			Location:                   get(row, "Location"),
			BusinessRegistrationNumber: get(row, "Business Registration Number"),
			TaxID:                      get(row, "Tax ID"),
			IDType:                     idType,
			IDNumber:                   get(row, "ID Number"),
			IDFrontURL:                 get(row, "ID Front URL"),
			IDBackURL:                  get(row, "ID Back URL"),
			SelfieWithIDURL:            get(row, "Selfie With ID URL"),
			BusinessCertificateURL:     get(row, "Business Certificate URL"),
			UtilityBillURL:             get(row, "Utility Bill URL"),
			BankStatementURL:           get(row, "Bank Statement URL"),
			VerificationStatus:         model.VerificationStatusPending,
			TermsAcceptedAt:            submitted,
			SubmittedAt:                submitted,
		})
	}
	return result, nil
}

func (r *ImportResult) skip(problem string) {
	r.Skipped++
	r.Problems = append(r.Problems, problem)
}

// Filename suggests a download name for an export of the given status.
func Filename(status model.VerificationStatus, at time.Time) string {
	label := string(status)
	if label == "" {
		label = "all"
	}
	return "store-applications-" + label + "-" + strconv.FormatInt(at.Unix(), 10) + ".xlsx"
}
