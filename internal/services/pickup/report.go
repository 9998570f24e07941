package pickup

import (
	"strings"
	"time"
)

// Report is the outcome of one pickup point refresh.
type Report struct {
	RunID        string    `json:"run_id"`
	Success      bool      `json:"success"`
	Partial      bool      `json:"partial"`
	Message      string    `json:"message"`
	Messages     []string  `json:"messages"`
	Errors       []string  `json:"errors"`
	Countries    int       `json:"countries"`
	FilesWritten int       `json:"files_written"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// unitResult is the outcome of one unit of refresh work: a country's
// configuration or one provider's pickup points. Exactly one of message and
// errText is set.
type unitResult struct {
	message string
	errText string
	file    string
}

func succeeded(message, file string) unitResult {
	return unitResult{message: message, file: file}
}

func failed(errText string) unitResult {
	return unitResult{errText: errText}
}

// merge folds unit results into a report. Success lines come first, then
// errors. The run fails only when nothing succeeded and something failed.
func merge(report *Report, results []unitResult) *Report {
	report.Messages = []string{}
	report.Errors = []string{}

	for _, r := range results {
		if r.errText != "" {
			report.Errors = append(report.Errors, r.errText)
			continue
		}
		if r.message != "" {
			report.Messages = append(report.Messages, r.message)
		}
		if r.file != "" {
			report.FilesWritten++
		}
	}

	lines := make([]string, 0, len(report.Messages)+len(report.Errors))
	lines = append(lines, report.Messages...)
	lines = append(lines, report.Errors...)
	report.Message = strings.TrimSpace(strings.Join(lines, "\n"))

	report.Success = !(len(report.Messages) == 0 && len(report.Errors) > 0)
	report.Partial = report.Success && len(report.Errors) > 0
	return report
}
