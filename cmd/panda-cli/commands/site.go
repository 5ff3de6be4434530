package commands

import (
	"strings"

	"pandassist/pkg/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(siteCmd)
}

var siteCmd = &cobra.Command{
	Use:   "site <id>",
	Short: "Shows the details of a single site.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)
		site, err := a.service.Site(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		loc := a.clock.Location()
		t := newTable()
		t.AppendRows([]table.Row{
			{"ID", site.Id},
			{"Title", site.Title},
			{"Type", site.Type},
			{"Contact", strings.TrimSpace(site.ContactName + " " + site.ContactEmail)},
			{"Published", site.Published},
			{"Created", formatTime(site.CreatedDate, loc)},
			{"Modified", formatTime(site.ModifiedDate, loc)},
			{"Roles", strings.Join(site.UserRoles, ", ")},
			{"Description", htmlutil.PlainText(site.Description)},
		})
		t.Render()
		return nil
	},
}
