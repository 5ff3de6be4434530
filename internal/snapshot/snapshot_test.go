package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
	"pandassist/internal/scrapers/panda"
	"pandassist/pkg/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	database := testutil.OpenDB(t, testutil.DBParams{})

	err := Migrate(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	// migrating twice is harmless
	err = Migrate(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	return database
}

func storeAt(database *sql.DB, at time.Time) Store {
	return NewStore(database, chrono.FixedImpl{At: at}, &telemetry.Recorder{})
}

func TestSiteSnapshots(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0)
	store := storeAt(database, at)

	_, ok, err := store.LatestSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)

	sites := []panda.Site{
		{
			Id:          "2023-110-3100-000",
			Title:       "[2023後期]情報学展望",
			CreatedDate: time.UnixMilli(1680000000000),
			UserRoles:   []string{"access"},
			Props:       json.RawMessage(`{"term":"2023後期"}`),
		},
		{Id: "2023-110-3200-000", Title: "[2023後期]計算機科学"},
	}
	err = store.SaveSites(ctx, "2023後期", sites)
	if err != nil {
		t.Fatal(err)
	}

	latest, ok, err := store.LatestSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)
	require.Equal(t, "2023後期", latest.Semester)
	require.True(t, latest.FetchedAt.Equal(at))
	if diff := cmp.Diff(sites, latest.Sites); diff != "" {
		t.Fatalf("sites mismatch (-want +got):\n%s", diff)
	}

	// a later snapshot wins
	later := storeAt(database, at.Add(time.Hour))
	err = later.SaveSites(ctx, "2024前期", sites[:1])
	if err != nil {
		t.Fatal(err)
	}
	latest, _, err = store.LatestSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "2024前期", latest.Semester)
	require.Len(t, latest.Sites, 1)
}

func TestAssignmentSnapshots(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	store := storeAt(database, time.Unix(1_700_000_000, 0))

	site := &panda.Site{Id: "s1", Title: "情報学展望"}
	assignments := []panda.Assignment{
		{
			Id:          "a1",
			Context:     "s1",
			Title:       "第3回レポート",
			DueTime:     time.Unix(1_700_003_600, 0),
			Attachments: []panda.Attachment{{Name: "template.docx", Size: "10240"}},
			Properties:  json.RawMessage(`{"allow_submit":"true"}`),
			Site:        site,
		},
		{Id: "a2", Context: "s1", DueTime: time.Unix(1_700_007_200, 0), Site: site},
	}
	err := store.SaveAssignments(ctx, assignments)
	if err != nil {
		t.Fatal(err)
	}

	latest, ok, err := store.LatestAssignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)
	if diff := cmp.Diff(assignments, latest.Assignments); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}

	err = store.SaveAssignments(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	latest, ok, err = store.LatestAssignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)
	require.Empty(t, latest.Assignments)
}

func TestSnapshotsArePruned(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		store := storeAt(database, base.Add(time.Duration(i)*time.Minute)).WithKeep(2)
		err := store.SaveSites(ctx, "2023後期", nil)
		if err != nil {
			t.Fatal(err)
		}
		err = store.SaveAssignments(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	var sites, assignments int
	err := database.QueryRow("select count(*) from site_snapshot").Scan(&sites)
	if err != nil {
		t.Fatal(err)
	}
	err = database.QueryRow("select count(*) from assignment_snapshot").Scan(&assignments)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, sites)
	require.Equal(t, 2, assignments)

	latest, _, err := storeAt(database, base).LatestSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, latest.FetchedAt.Equal(base.Add(4*time.Minute)))
}

func TestClear(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	store := storeAt(database, time.Unix(1_700_000_000, 0))

	err := store.SaveSites(ctx, "2023後期", []panda.Site{{Id: "s1"}})
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveAssignments(ctx, []panda.Assignment{{Id: "a1"}})
	if err != nil {
		t.Fatal(err)
	}
	err = store.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := store.LatestSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
	_, ok, err = store.LatestAssignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
}
