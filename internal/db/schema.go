package db

import _ "embed"

//go:embed schema.sql
var Schema string

type SiteSnapshot struct {
	ID        int64
	Semester  string
	FetchedAt int64
	Payload   string
}

type AssignmentSnapshot struct {
	ID        int64
	FetchedAt int64
	Payload   string
}
