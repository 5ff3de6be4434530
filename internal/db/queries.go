package db

import "context"

const insertSiteSnapshot = `insert into site_snapshot(semester, fetched_at, payload) values (?, ?, ?)`

type InsertSiteSnapshotParams struct {
	Semester  string
	FetchedAt int64
	Payload   string
}

func (q *Queries) InsertSiteSnapshot(ctx context.Context, arg InsertSiteSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, insertSiteSnapshot, arg.Semester, arg.FetchedAt, arg.Payload)
	return err
}

const getLatestSiteSnapshot = `select id, semester, fetched_at, payload from site_snapshot
order by fetched_at desc, id desc
limit 1`

func (q *Queries) GetLatestSiteSnapshot(ctx context.Context) (SiteSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestSiteSnapshot)
	var i SiteSnapshot
	err := row.Scan(&i.ID, &i.Semester, &i.FetchedAt, &i.Payload)
	return i, err
}

const pruneSiteSnapshots = `delete from site_snapshot where id not in (
    select id from site_snapshot order by fetched_at desc, id desc limit ?
)`

func (q *Queries) PruneSiteSnapshots(ctx context.Context, keep int64) error {
	_, err := q.db.ExecContext(ctx, pruneSiteSnapshots, keep)
	return err
}

const insertAssignmentSnapshot = `insert into assignment_snapshot(fetched_at, payload) values (?, ?)`

type InsertAssignmentSnapshotParams struct {
	FetchedAt int64
	Payload   string
}

func (q *Queries) InsertAssignmentSnapshot(ctx context.Context, arg InsertAssignmentSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, insertAssignmentSnapshot, arg.FetchedAt, arg.Payload)
	return err
}

const getLatestAssignmentSnapshot = `select id, fetched_at, payload from assignment_snapshot
order by fetched_at desc, id desc
limit 1`

func (q *Queries) GetLatestAssignmentSnapshot(ctx context.Context) (AssignmentSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestAssignmentSnapshot)
	var i AssignmentSnapshot
	err := row.Scan(&i.ID, &i.FetchedAt, &i.Payload)
	return i, err
}

const pruneAssignmentSnapshots = `delete from assignment_snapshot where id not in (
    select id from assignment_snapshot order by fetched_at desc, id desc limit ?
)`

func (q *Queries) PruneAssignmentSnapshots(ctx context.Context, keep int64) error {
	_, err := q.db.ExecContext(ctx, pruneAssignmentSnapshots, keep)
	return err
}

const deleteAllSiteSnapshots = `delete from site_snapshot`

func (q *Queries) DeleteAllSiteSnapshots(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSiteSnapshots)
	return err
}

const deleteAllAssignmentSnapshots = `delete from assignment_snapshot`

func (q *Queries) DeleteAllAssignmentSnapshots(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllAssignmentSnapshots)
	return err
}
