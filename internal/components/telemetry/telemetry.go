package telemetry

import (
	"fmt"
)

// API is how the portal client, the snapshot store and the service report what
// happens to them. SlogAPI writes to the process log and Recorder keeps reports
// in memory so tests can assert on them.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a failure that needs a fix rather than a retry, a
	// portal response that no longer decodes or a query the database rejects.
	//
	// `id` names the reporting operation in lowercase, `<component>.<operation>`
	// with dashes inside the operation, ex. `client.ensure-logged-in` or
	// `db.query`. Detail such as the endpoint or username goes into params.
	ReportBroken(id string, params ...any)

	// ReportWarning reports a failure the caller recovered from, a login retried
	// with a fresh session or a snapshot that could not be saved. `id` follows
	// ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports progress, only shown with --verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge reading such as the number of upcoming
	// assignments after a fetch. Readings are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with the namespace of the component holding it,
// `panda`, `service` or `snapshot`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
