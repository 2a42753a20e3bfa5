package telemetry

import (
	"fmt"
	"sync"
)

// Report is a single call made against a RecorderAPI.
type Report struct {
	Level  string
	Id     string
	Params []any
}

// RecorderAPI implements API by keeping every report in memory, it is meant for
// asserting on reports in tests.
type RecorderAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorderAPI() *RecorderAPI {
	return &RecorderAPI{}
}

func (r *RecorderAPI) record(level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Reports returns a copy of every report with the given level.
func (r *RecorderAPI) Reports(level string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Level == level {
			out = append(out, report)
		}
	}
	return out
}

// Ids returns the ids of every report with the given level, formatted for readable diffs.
func (r *RecorderAPI) Ids(level string) []string {
	reports := r.Reports(level)
	ids := make([]string, len(reports))
	for i, report := range reports {
		ids[i] = fmt.Sprint(report.Id)
	}
	return ids
}
