package commands

import (
	"pandassist/internal/scrapers/panda"
	"pandassist/pkg/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	assignmentsSite    string
	assignmentsAll     bool
	assignmentsRefresh bool
	assignmentsBySite  bool
)

func init() {
	assignmentsCmd.Flags().StringVar(&assignmentsSite, "site", "", "Only list the assignments of this site.")
	assignmentsCmd.Flags().BoolVar(&assignmentsAll, "all", false, "Include assignments that are already due (with --site).")
	assignmentsCmd.Flags().BoolVar(&assignmentsRefresh, "refresh", false, "Ignore the cached snapshot.")
	assignmentsCmd.Flags().BoolVar(&assignmentsBySite, "by-site", false, "Collect the assignments site by site over this semester's sites.")
	assignmentsCmd.MarkFlagsMutuallyExclusive("site", "by-site")
	rootCmd.AddCommand(assignmentsCmd)
}

func renderAssignments(assignments []panda.Assignment, a *app) {
	now := a.clock.Now()
	t := newTable()
	t.AppendHeader(table.Row{"Due", "Remaining", "Site", "Title", "Status", "Files", "Instructions"})
	for _, assignment := range assignments {
		siteTitle := assignment.Context
		if assignment.Site != nil {
			siteTitle = assignment.Site.Title
		}
		t.AppendRow(table.Row{
			formatTime(assignment.DueTime, a.clock.Location()),
			formatRemaining(assignment.DueTime.Sub(now)),
			siteTitle,
			assignment.Title,
			assignment.Status,
			len(assignment.Attachments),
			text.Trim(htmlutil.PlainText(assignment.Instructions), 40),
		})
	}
	t.Render()
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments [--site <id> [--all] | --by-site] [--refresh]",
	Short: "Lists upcoming assignments, soonest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)
		ctx := cmd.Context()

		var assignments []panda.Assignment
		var err error
		switch {
		case assignmentsSite != "":
			assignments, err = a.service.SiteAssignments(ctx, assignmentsSite, assignmentsAll)
		case assignmentsBySite:
			assignments, err = a.service.SemesterAssignments(ctx, assignmentsRefresh)
		default:
			assignments, err = a.service.Assignments(ctx, assignmentsRefresh)
		}
		if err != nil {
			return err
		}

		renderAssignments(assignments, a)
		return nil
	},
}
