// Package check holds the typed result of one ABAP syntax check and the
// conversions from the raw RFC reply and to the canonical JSON text returned
// to the caller.
package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reply field names and the success sentinel are fixed constants of the
// Z_CHECK_ABAP_SYNTAX integration and must match the remote function exactly.
const (
	fieldSuccess = "EV_SUCCESS"
	fieldMessage = "EV_MESSAGE"
	fieldErrors  = "ET_ERRORS"

	rowLine    = "LINE"
	rowType    = "TYPE"
	rowMessage = "MESSAGE"

	// successSentinel is compared exactly and case-sensitively ("x" is not a match).
	successSentinel = "X"
)

// Finding is one line-level syntax issue reported by the remote check.
// Findings are only ever built from reply rows.
type Finding struct {
	Line    int    `json:"line"`
	Type    string `json:"type"` // "E" error, "W" warning, or a remote-supplied code
	Message string `json:"message"`
}

// Result is the outcome of one syntax check. HasErrors is always derived from
// the findings list by the constructor and is never set independently.
type Result struct {
	Success   bool      `json:"success"`
	HasErrors bool      `json:"has_errors"`
	Errors    []Finding `json:"errors"`
	Message   string    `json:"message"`
}

// newResult is the single place HasErrors is computed, so the two fields
// cannot drift apart.
func newResult(success bool, message string, findings []Finding) Result {
	if findings == nil {
		findings = []Finding{}
	}
	return Result{
		Success:   success,
		HasErrors: len(findings) > 0,
		Errors:    findings,
		Message:   message,
	}
}

// FromReply converts a raw RFC reply into a Result. Findings are sorted
// ascending by line; rows with equal line numbers keep their remote order.
func FromReply(reply map[string]any) Result {
	success := asString(reply[fieldSuccess]) == successSentinel
	message := asString(reply[fieldMessage])

	findings := findingsFromTable(reply[fieldErrors])
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})

	return newResult(success, message, findings)
}

// ToJSON renders the canonical serialized form: fixed field order (success,
// has_errors, errors, message), two-space indent, non-ASCII text verbatim.
func (r Result) ToJSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("result encode: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func findingsFromTable(table any) []Finding {
	var findings []Finding
	appendRow := func(row map[string]any) {
		findings = append(findings, Finding{
			Line:    asInt(row[rowLine]),
			Type:    stringOrDefault(row[rowType], "E"),
			Message: asString(row[rowMessage]),
		})
	}
	switch rows := table.(type) {
	case []map[string]any:
		for _, row := range rows {
			appendRow(row)
		}
	case []any:
		for _, r := range rows {
			if row, ok := r.(map[string]any); ok {
				appendRow(row)
			}
		}
	}
	return findings
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func stringOrDefault(v any, def string) string {
	if s := asString(v); s != "" {
		return s
	}
	return def
}

// asInt parses the LINE field. ABAP numeric fields arrive as ints from the
// RFC layer but NUMC columns come back as (possibly padded) strings; anything
// unparseable defaults to 0.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}
