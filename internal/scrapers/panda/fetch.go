package panda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

func (c *Client) getJSON(ctx context.Context, user *User, op, endpoint string, out any) error {
	res, err := user.session.request(ctx).
		SetHeader("accept", "application/json").
		Get(endpoint)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	if res.StatusCode() == http.StatusForbidden {
		return &SessionExpiredError{Endpoint: endpoint}
	}
	if res.IsError() {
		return &TransientError{Op: op, StatusCode: res.StatusCode()}
	}

	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		c.tel.ReportBroken(report_client_get_json, fmt.Errorf("%s: %w", op, err), endpoint)
		return &ProtocolError{Reason: "decode " + op, Err: err}
	}
	return nil
}

// FetchAllSites lists every site the user belongs to whose title contains
// keyword, an empty keyword keeps all of them.
func (c *Client) FetchAllSites(ctx context.Context, user *User, keyword string) ([]Site, error) {
	err := c.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Sites []rawSite `json:"site_collection"`
	}
	err = c.getJSON(ctx, user, "fetch all sites", c.endpoint("/direct/site.json?_limit=1000"), &payload)
	if err != nil {
		return nil, err
	}

	sites := make([]Site, 0, len(payload.Sites))
	for _, raw := range payload.Sites {
		site, err := mapSite(raw)
		if err != nil {
			c.tel.ReportWarning(report_client_fetch_sites, err)
			return nil, err
		}
		if keyword != "" && !strings.Contains(site.Title, keyword) {
			continue
		}
		sites = append(sites, site)
	}

	c.tel.ReportDebug("fetched sites", len(payload.Sites), keyword, len(sites))
	return sites, nil
}

// FetchSite looks up a single site by id.
func (c *Client) FetchSite(ctx context.Context, user *User, siteId string) (Site, error) {
	err := c.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		return Site{}, err
	}
	return c.fetchSite(ctx, user, siteId)
}

func (c *Client) fetchSite(ctx context.Context, user *User, siteId string) (Site, error) {
	var raw rawSite
	endpoint := c.endpoint(fmt.Sprintf("/direct/site/%s.json", url.PathEscape(siteId)))
	err := c.getJSON(ctx, user, "fetch site "+siteId, endpoint, &raw)
	if err != nil {
		return Site{}, err
	}
	return mapSite(raw)
}

func (c *Client) fetchAssignmentCollection(ctx context.Context, user *User, op, endpoint string) ([]Assignment, error) {
	var payload struct {
		Assignments []rawAssignment `json:"assignment_collection"`
	}
	err := c.getJSON(ctx, user, op, endpoint, &payload)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, len(payload.Assignments))
	for i, raw := range payload.Assignments {
		assignments[i], err = mapAssignment(raw)
		if err != nil {
			c.tel.ReportWarning(report_client_fetch_assignment, err, endpoint)
			return nil, err
		}
	}
	return assignments, nil
}

// FetchAssignmentsForSite lists a site's assignments, each one points back at
// the given site.
func (c *Client) FetchAssignmentsForSite(ctx context.Context, user *User, site Site) ([]Assignment, error) {
	err := c.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		return nil, err
	}
	return c.fetchSiteAssignments(ctx, user, site)
}

func (c *Client) fetchSiteAssignments(ctx context.Context, user *User, site Site) ([]Assignment, error) {
	endpoint := c.endpoint(fmt.Sprintf("/direct/assignment/site/%s.json", url.PathEscape(site.Id)))
	assignments, err := c.fetchAssignmentCollection(ctx, user, "fetch assignments of "+site.Id, endpoint)
	if err != nil {
		return nil, err
	}
	owner := &site
	for i := range assignments {
		assignments[i].Site = owner
	}
	return assignments, nil
}

// FetchAllAssignments lists the user's assignments that are not yet due, each
// joined with the site it belongs to. The portal's order is kept.
func (c *Client) FetchAllAssignments(ctx context.Context, user *User) ([]Assignment, error) {
	err := c.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		return nil, err
	}

	assignments, err := c.fetchAssignmentCollection(
		ctx, user,
		"fetch all assignments",
		c.endpoint("/direct/assignment/my.json"),
	)
	if err != nil {
		return nil, err
	}

	upcoming := c.dropExpired(assignments)
	err = c.resolveSites(ctx, user, upcoming)
	if err != nil {
		return nil, err
	}
	return upcoming, nil
}

// FetchAssignmentsForSites gathers the assignments of several sites at once,
// the result only holds assignments that are not yet due, soonest first.
func (c *Client) FetchAssignmentsForSites(ctx context.Context, user *User, sites []Site) ([]Assignment, error) {
	err := c.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		return nil, err
	}

	perSite := make([][]Assignment, len(sites))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.maxConcurrency)
	for i, site := range sites {
		group.Go(func() error {
			assignments, err := c.fetchSiteAssignments(groupCtx, user, site)
			if err != nil {
				return err
			}
			perSite[i] = assignments
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return nil, err
	}

	var all []Assignment
	for _, assignments := range perSite {
		all = append(all, assignments...)
	}
	upcoming := c.dropExpired(all)
	slices.SortStableFunc(upcoming, func(a, b Assignment) int {
		return a.DueTime.Compare(b.DueTime)
	})
	return upcoming, nil
}

func (c *Client) dropExpired(assignments []Assignment) []Assignment {
	now := c.time.Now()
	upcoming := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.DueTime.After(now) {
			upcoming = append(upcoming, a)
		}
	}
	if dropped := len(assignments) - len(upcoming); dropped > 0 {
		c.tel.ReportDebug("dropped expired assignments", dropped)
	}
	return upcoming
}

// resolveSites fetches every distinct owning site once and points the
// assignments at them, the first failure cancels the remaining lookups.
func (c *Client) resolveSites(ctx context.Context, user *User, assignments []Assignment) error {
	var siteIds []string
	seen := map[string]bool{}
	for _, a := range assignments {
		if a.Context == "" {
			c.tel.ReportWarning(report_client_resolve_sites, "assignment has no owning site", a.Id)
			continue
		}
		if seen[a.Context] {
			continue
		}
		seen[a.Context] = true
		siteIds = append(siteIds, a.Context)
	}

	sites := make([]Site, len(siteIds))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.maxConcurrency)
	for i, siteId := range siteIds {
		group.Go(func() error {
			site, err := c.fetchSite(groupCtx, user, siteId)
			if err != nil {
				return fmt.Errorf("resolve site '%s': %w", siteId, err)
			}
			sites[i] = site
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return err
	}

	index := make(map[string]*Site, len(sites))
	for i := range sites {
		index[siteIds[i]] = &sites[i]
	}
	for i := range assignments {
		assignments[i].Site = index[assignments[i].Context]
	}
	c.tel.ReportDebug("resolved sites", len(siteIds))
	return nil
}
