package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pandassist/internal/components/assert"
	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
	"pandassist/internal/db"
	"pandassist/internal/scrapers/panda"
)

const (
	report_db_query      = "db.query"
	report_save_snapshot = "snapshot.save"
	report_load_snapshot = "snapshot.load"
)

// DefaultKeep is how many snapshots of each kind survive a save.
const DefaultKeep = 10

// Sites is the site list as it was fetched at a point in time.
type Sites struct {
	Semester  string
	FetchedAt time.Time
	Sites     []panda.Site
}

// Assignments is the upcoming assignment list as it was fetched at a point in time.
type Assignments struct {
	FetchedAt   time.Time
	Assignments []panda.Assignment
}

// Migrate creates the snapshot tables when they do not exist yet.
func Migrate(ctx context.Context, database *sql.DB) error {
	// remote libsql connections only take one statement per exec
	for _, statement := range strings.Split(db.Schema, ";") {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		_, err := database.ExecContext(ctx, statement)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type Store struct {
	db     *db.Queries
	makeTx db.MakeTx
	keep   int64

	time chrono.API
	tel  telemetry.API
}

func NewStore(database *sql.DB, clock chrono.API, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Store{
		db:     db.New(database),
		makeTx: db.NewMakeTx(database),
		keep:   DefaultKeep,
		time:   clock,
		tel:    telemetry.NewScopedAPI("snapshot", tel),
	}
}

// WithKeep returns a copy of the store that retains `keep` snapshots of each kind.
func (s Store) WithKeep(keep int) Store {
	if keep > 0 {
		s.keep = int64(keep)
	}
	return s
}

func (s Store) SaveSites(ctx context.Context, semester string, sites []panda.Site) error {
	if sites == nil {
		sites = []panda.Site{}
	}
	payload, err := json.Marshal(sites)
	if err != nil {
		s.tel.ReportBroken(report_save_snapshot, fmt.Errorf("encode sites: %w", err))
		return err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	param := db.InsertSiteSnapshotParams{
		Semester:  semester,
		FetchedAt: s.time.Now().UnixMilli(),
		Payload:   string(payload),
	}
	err = tx.InsertSiteSnapshot(ctx, param)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "InsertSiteSnapshot", param.Semester)
		return err
	}
	err = tx.PruneSiteSnapshots(ctx, s.keep)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "PruneSiteSnapshots", s.keep)
		return err
	}
	return commit()
}

// LatestSites returns the most recent site snapshot, the boolean is false when
// nothing was saved yet.
func (s Store) LatestSites(ctx context.Context) (Sites, bool, error) {
	row, err := s.db.GetLatestSiteSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Sites{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestSiteSnapshot")
		return Sites{}, false, err
	}

	var sites []panda.Site
	err = json.Unmarshal([]byte(row.Payload), &sites)
	if err != nil {
		s.tel.ReportBroken(report_load_snapshot, fmt.Errorf("decode sites %d: %w", row.ID, err))
		return Sites{}, false, err
	}
	return Sites{
		Semester:  row.Semester,
		FetchedAt: time.UnixMilli(row.FetchedAt).In(s.time.Location()),
		Sites:     sites,
	}, true, nil
}

func (s Store) SaveAssignments(ctx context.Context, assignments []panda.Assignment) error {
	if assignments == nil {
		assignments = []panda.Assignment{}
	}
	payload, err := json.Marshal(assignments)
	if err != nil {
		s.tel.ReportBroken(report_save_snapshot, fmt.Errorf("encode assignments: %w", err))
		return err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.InsertAssignmentSnapshot(ctx, db.InsertAssignmentSnapshotParams{
		FetchedAt: s.time.Now().UnixMilli(),
		Payload:   string(payload),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "InsertAssignmentSnapshot", len(assignments))
		return err
	}
	err = tx.PruneAssignmentSnapshots(ctx, s.keep)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "PruneAssignmentSnapshots", s.keep)
		return err
	}
	return commit()
}

// LatestAssignments returns the most recent assignment snapshot, the boolean
// is false when nothing was saved yet.
func (s Store) LatestAssignments(ctx context.Context) (Assignments, bool, error) {
	row, err := s.db.GetLatestAssignmentSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignments{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestAssignmentSnapshot")
		return Assignments{}, false, err
	}

	var assignments []panda.Assignment
	err = json.Unmarshal([]byte(row.Payload), &assignments)
	if err != nil {
		s.tel.ReportBroken(report_load_snapshot, fmt.Errorf("decode assignments %d: %w", row.ID, err))
		return Assignments{}, false, err
	}
	return Assignments{
		FetchedAt:   time.UnixMilli(row.FetchedAt).In(s.time.Location()),
		Assignments: assignments,
	}, true, nil
}

// Clear drops every snapshot.
func (s Store) Clear(ctx context.Context) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.DeleteAllSiteSnapshots(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteAllSiteSnapshots")
		return err
	}
	err = tx.DeleteAllAssignmentSnapshots(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteAllAssignmentSnapshots")
		return err
	}
	return commit()
}
