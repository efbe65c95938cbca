package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// ErrorOutput is the JSON envelope for failures.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError writes err for the user.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	detail := describe(err)
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ErrorOutput{Error: detail})
	}

	var sb strings.Builder
	sb.WriteString("Error: " + detail.Message + "\n")
	if detail.Cause != "" {
		sb.WriteString("Cause: " + detail.Cause + "\n")
	}
	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, detail.Details[k])
		}
	}
	if detail.Suggestion != "" {
		sb.WriteString("\nSuggestion: " + detail.Suggestion + "\n")
	}
	_, werr := io.WriteString(w, sb.String())
	return werr
}

func describe(err error) ErrorDetail {
	var fe *zferr.ForgeError
	if !errors.As(err, &fe) {
		return ErrorDetail{Code: "GENERAL_ERROR", Message: err.Error(), ExitCode: zferr.ExitGeneral}
	}
	d := ErrorDetail{
		Code:       fe.Code,
		Message:    fe.Message,
		Details:    fe.Details,
		Suggestion: fe.Suggestion,
		ExitCode:   fe.ExitCode,
	}
	if fe.Cause != nil {
		d.Cause = fe.Cause.Error()
	}
	return d
}
