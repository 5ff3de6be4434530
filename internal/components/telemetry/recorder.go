package telemetry

import (
	"fmt"
	"sync"
)

// Report is a single event captured by Recorder.
type Report struct {
	Level  string
	Id     string
	Params []any
}

// Recorder is an in-memory API used for asserting on what a component
// reported, it is safe for concurrent use.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) push(level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.push("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push("count", id, []any{count})
}

// Reports returns a copy of every report with the given level.
func (r *Recorder) Reports(level string) []Report {
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

func (r Report) String() string {
	return fmt.Sprintf("[%s] %s %v", r.Level, r.Id, r.Params)
}
