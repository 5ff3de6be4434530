package commands

import (
	"fmt"
	"sort"

	"pandassist/internal/scrapers/panda"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	sitesKeyword string
	sitesCurrent bool
	sitesRefresh bool
)

func init() {
	sitesCmd.Flags().StringVarP(&sitesKeyword, "keyword", "k", "", "Only list sites whose title contains this keyword.")
	sitesCmd.Flags().BoolVar(&sitesCurrent, "current", false, "Only list sites of the current semester.")
	sitesCmd.Flags().BoolVar(&sitesRefresh, "refresh", false, "Ignore the cached snapshot (with --current).")
	sitesCmd.MarkFlagsMutuallyExclusive("keyword", "current")
	rootCmd.AddCommand(sitesCmd)
}

// suggest ranks site titles by their similarity to keyword, returning at most
// n titles that are reasonably close.
func suggest(keyword string, sites []panda.Site, n int) []string {
	type scored struct {
		title string
		score float64
	}
	var candidates []scored
	for _, site := range sites {
		score := matchr.JaroWinkler(keyword, site.Title, false)
		if score < 0.6 {
			continue
		}
		candidates = append(candidates, scored{title: site.Title, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var out []string
	for i := 0; i < len(candidates) && i < n; i++ {
		out = append(out, candidates[i].title)
	}
	return out
}

func renderSites(sites []panda.Site, a *app) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Title", "Type", "Created"})
	for _, site := range sites {
		t.AppendRow(table.Row{
			site.Id,
			site.Title,
			site.Type,
			formatTime(site.CreatedDate, a.clock.Location()),
		})
	}
	t.Render()
}

var sitesCmd = &cobra.Command{
	Use:   "sites [--keyword <keyword> | --current [--refresh]]",
	Short: "Lists the sites the account belongs to.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)
		ctx := cmd.Context()

		if sitesCurrent {
			sites, err := a.service.Sites(ctx, sitesRefresh)
			if err != nil {
				return err
			}
			renderSites(sites, a)
			return nil
		}

		sites, err := a.service.SearchSites(ctx, sitesKeyword)
		if err != nil {
			return err
		}
		if len(sites) > 0 || sitesKeyword == "" {
			renderSites(sites, a)
			return nil
		}

		fmt.Printf("no site title contains '%s'.\n", sitesKeyword)
		all, err := a.service.SearchSites(ctx, "")
		if err != nil {
			return err
		}
		suggestions := suggest(sitesKeyword, all, 3)
		if len(suggestions) > 0 {
			fmt.Println("did you mean:")
			for _, title := range suggestions {
				fmt.Printf("  %s\n", title)
			}
		}
		return nil
	},
}
