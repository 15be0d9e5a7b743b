package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet helpers shared by the two ingest paths. Uploaded files carry
// localized headers with naming variants; each logical column lists every
// header spelling seen in the field.

var usageHeaderAliases = map[string]string{
	"의뢰번호":  "request_number",
	"요청번호":  "request_number",
	"법인코드":  "branch_code",
	"설치법인":  "branch_code",
	"자재코드":  "material_code",
	"부품코드":  "material_code",
	"자재명":   "material_name",
	"부품명":   "material_name",
	"시리얼":   "serial",
	"시리얼번호": "serial",
	"수량":    "quantity",
	"사용일자":  "used_date",
	"사용일":   "used_date",
}

var productHeaderAliases = map[string]string{
	"고객번호":  "customer_number",
	"계약번호":  "customer_number",
	"모델명":   "model_name",
	"모델":    "model_name",
	"해지요청일": "termination_request_date",
	"해지일자":  "termination_request_date",
	"승인상태":  "approval_status",
	"승인여부":  "approval_status",
	"법인코드":  "branch_code",
	"설치법인":  "branch_code",
	"고객명":   "customer_name",
	"주소":    "customer_address",
	"설치주소":  "customer_address",
	"위약금":   "penalty_amount",
	"위약금액":  "penalty_amount",
}

// mapHeaders resolves a header row into column index -> logical field name.
// Unknown headers are ignored.
func mapHeaders(row []string, aliases map[string]string) map[int]string {
	columns := make(map[int]string)
	for i, cell := range row {
		header := strings.TrimSpace(cell)
		if field, ok := aliases[header]; ok {
			columns[i] = field
		}
	}
	return columns
}

// rowValues flattens one sheet row into logical field name -> trimmed value.
func rowValues(row []string, columns map[int]string) map[string]string {
	values := make(map[string]string, len(columns))
	for i, field := range columns {
		if i < len(row) {
			values[field] = strings.TrimSpace(row[i])
		}
	}
	return values
}

// parseCellDate handles the two forms dates arrive in: an Excel serial
// number, or a formatted string in one of the layouts branches use.
func parseCellDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t.Truncate(24 * time.Hour), true
	}

	layouts := []string{"2006-01-02", "2006.01.02", "2006/01/02", "01-02-06"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// firstSheetRows returns the rows of the workbook's first sheet.
func firstSheetRows(f *excelize.File) ([][]string, error) {
	sheet := f.GetSheetName(0)
	return f.GetRows(sheet)
}
