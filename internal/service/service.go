package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"pandassist/internal/components/assert"
	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
	"pandassist/internal/scrapers/panda"
	"pandassist/internal/snapshot"
)

const (
	report_service_reauth         = "service.reauth"
	report_service_load_snapshot  = "service.load-snapshot"
	report_service_save_snapshot  = "service.save-snapshot"
	report_service_site_count     = "service.site-count"
	report_service_upcoming_count = "service.upcoming-count"
)

// PandaAPI is the part of the portal client the service uses, *panda.Client
// implements it.
//
// note: fault injection point
type PandaAPI interface {
	EnsureLoggedIn(ctx context.Context, user *panda.User, forceReauthenticate bool) error
	CheckLogin(ctx context.Context, user *panda.User) (bool, error)
	FetchAllSites(ctx context.Context, user *panda.User, keyword string) ([]panda.Site, error)
	FetchSite(ctx context.Context, user *panda.User, siteId string) (panda.Site, error)
	FetchAssignmentsForSite(ctx context.Context, user *panda.User, site panda.Site) ([]panda.Assignment, error)
	FetchAllAssignments(ctx context.Context, user *panda.User) ([]panda.Assignment, error)
	FetchAssignmentsForSites(ctx context.Context, user *panda.User, sites []panda.Site) ([]panda.Assignment, error)
	CurrentSemester() string
}

// SnapshotAPI persists what was last fetched, snapshot.Store implements it.
//
// note: fault injection point
type SnapshotAPI interface {
	SaveSites(ctx context.Context, semester string, sites []panda.Site) error
	LatestSites(ctx context.Context) (snapshot.Sites, bool, error)
	SaveAssignments(ctx context.Context, assignments []panda.Assignment) error
	LatestAssignments(ctx context.Context) (snapshot.Assignments, bool, error)
	Clear(ctx context.Context) error
}

type Options struct {
	// MaxAge is how long a snapshot is served without asking the portal again,
	// zero means 15 minutes.
	MaxAge time.Duration
}

// Service serves one user's sites and assignments, preferring recent snapshots
// over portal round trips. Calls are serialized since they share a session.
type Service struct {
	api    PandaAPI
	store  SnapshotAPI
	user   *panda.User
	maxAge time.Duration

	time chrono.API
	tel  telemetry.API

	mutex sync.Mutex
}

func NewService(
	api PandaAPI,
	store SnapshotAPI,
	user *panda.User,
	clock chrono.API,
	tel telemetry.API,
	opts Options,
) *Service {
	assert.NotNil(api)
	assert.NotNil(store)
	assert.NotNil(user)
	assert.NotNil(clock)
	assert.NotNil(tel)

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 15 * time.Minute
	}

	return &Service{
		api:    api,
		store:  store,
		user:   user,
		maxAge: maxAge,
		time:   clock,
		tel:    telemetry.NewScopedAPI("service", tel),
	}
}

// withReauth runs fn and, if the portal reports an expired session, forces one
// fresh login and runs it exactly once more.
func withReauth[T any](ctx context.Context, s *Service, op string, fn func() (T, error)) (T, error) {
	result, err := fn()
	var expired *panda.SessionExpiredError
	if !errors.As(err, &expired) {
		return result, err
	}

	s.tel.ReportWarning(report_service_reauth, err, op)
	err = s.api.EnsureLoggedIn(ctx, s.user, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn()
}

func (s *Service) fresh(fetchedAt time.Time) bool {
	return s.time.Now().Sub(fetchedAt) < s.maxAge
}

// Login authenticates the service's user, see panda.Client.EnsureLoggedIn.
func (s *Service) Login(ctx context.Context, force bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.api.EnsureLoggedIn(ctx, s.user, force)
}

// CheckLogin logs in from a fresh session and reports whether the credentials
// were accepted.
func (s *Service) CheckLogin(ctx context.Context) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.api.CheckLogin(ctx, s.user)
}

// ClearCache drops every snapshot, the next reads go to the portal.
func (s *Service) ClearCache(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.store.Clear(ctx)
}

// Sites returns the sites of the current semester. A snapshot of the same
// semester younger than MaxAge is served unless refresh is set.
func (s *Service) Sites(ctx context.Context, refresh bool) ([]panda.Site, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sites(ctx, refresh)
}

func (s *Service) sites(ctx context.Context, refresh bool) ([]panda.Site, error) {
	semester := s.api.CurrentSemester()
	if !refresh {
		cached, ok, err := s.store.LatestSites(ctx)
		if err != nil {
			s.tel.ReportWarning(report_service_load_snapshot, err)
		}
		if ok && cached.Semester == semester && s.fresh(cached.FetchedAt) {
			s.tel.ReportDebug("serving site snapshot", cached.FetchedAt)
			return cached.Sites, nil
		}
	}

	sites, err := withReauth(ctx, s, "sites", func() ([]panda.Site, error) {
		return s.api.FetchAllSites(ctx, s.user, semester)
	})
	if err != nil {
		return nil, err
	}

	err = s.store.SaveSites(ctx, semester, sites)
	if err != nil {
		s.tel.ReportWarning(report_service_save_snapshot, err, "sites")
	}
	s.tel.ReportCount(report_service_site_count, int64(len(sites)))
	return sites, nil
}

// SearchSites lists every site whose title contains keyword, it is never cached.
func (s *Service) SearchSites(ctx context.Context, keyword string) ([]panda.Site, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return withReauth(ctx, s, "search sites", func() ([]panda.Site, error) {
		return s.api.FetchAllSites(ctx, s.user, keyword)
	})
}

// Site looks up a single site, it is never cached.
func (s *Service) Site(ctx context.Context, siteId string) (panda.Site, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return withReauth(ctx, s, "site", func() (panda.Site, error) {
		return s.api.FetchSite(ctx, s.user, siteId)
	})
}

// Assignments returns the user's upcoming assignments soonest first. A snapshot younger
// than MaxAge is served unless refresh is set, minus whatever became due since.
func (s *Service) Assignments(ctx context.Context, refresh bool) ([]panda.Assignment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !refresh {
		cached, ok, err := s.store.LatestAssignments(ctx)
		if err != nil {
			s.tel.ReportWarning(report_service_load_snapshot, err)
		}
		if ok && s.fresh(cached.FetchedAt) {
			s.tel.ReportDebug("serving assignment snapshot", cached.FetchedAt)
			return Upcoming(cached.Assignments, s.time.Now()), nil
		}
	}

	assignments, err := withReauth(ctx, s, "assignments", func() ([]panda.Assignment, error) {
		return s.api.FetchAllAssignments(ctx, s.user)
	})
	if err != nil {
		return nil, err
	}

	err = s.store.SaveAssignments(ctx, assignments)
	if err != nil {
		s.tel.ReportWarning(report_service_save_snapshot, err, "assignments")
	}
	s.tel.ReportCount(report_service_upcoming_count, int64(len(assignments)))
	return Upcoming(assignments, s.time.Now()), nil
}

// SemesterAssignments gathers the upcoming assignments of every site of the
// current semester site by site, soonest first. It is never cached but the
// site list is.
func (s *Service) SemesterAssignments(ctx context.Context, refresh bool) ([]panda.Assignment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sites, err := s.sites(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return withReauth(ctx, s, "semester assignments", func() ([]panda.Assignment, error) {
		return s.api.FetchAssignmentsForSites(ctx, s.user, sites)
	})
}

// SiteAssignments lists a site's assignments, including the ones already due
// when all is set. It is never cached.
func (s *Service) SiteAssignments(ctx context.Context, siteId string, all bool) ([]panda.Assignment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	assignments, err := withReauth(ctx, s, "site assignments", func() ([]panda.Assignment, error) {
		site, err := s.api.FetchSite(ctx, s.user, siteId)
		if err != nil {
			return nil, err
		}
		return s.api.FetchAssignmentsForSite(ctx, s.user, site)
	})
	if err != nil {
		return nil, err
	}
	if all {
		return assignments, nil
	}
	return Upcoming(assignments, s.time.Now()), nil
}

// Upcoming keeps the assignments due strictly after now, soonest first.
func Upcoming(assignments []panda.Assignment, now time.Time) []panda.Assignment {
	out := make([]panda.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.DueTime.After(now) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b panda.Assignment) int {
		return a.DueTime.Compare(b.DueTime)
	})
	return out
}

// Added returns the assignments of current whose id does not appear in previous.
func Added(previous, current []panda.Assignment) []panda.Assignment {
	seen := make(map[string]bool, len(previous))
	for _, a := range previous {
		seen[a.Id] = true
	}
	var out []panda.Assignment
	for _, a := range current {
		if !seen[a.Id] {
			out = append(out, a)
		}
	}
	return out
}
