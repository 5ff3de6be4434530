package commands

import (
	"fmt"
	"time"

	"pandassist/internal/components/chrono"
	"pandassist/internal/scrapers/panda"

	"github.com/spf13/cobra"
)

var semesterAt string

func init() {
	semesterCmd.Flags().StringVar(&semesterAt, "at", "", "A date (YYYY-MM-DD) to compute the semester for instead of today.")
	rootCmd.AddCommand(semesterCmd)
}

var semesterCmd = &cobra.Command{
	Use:         "semester [--at <date>]",
	Short:       "Prints the keyword of the current semester, as used in site titles.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offlineAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return err
		}
		now := clock.Now()
		if semesterAt != "" {
			now, err = time.ParseInLocation(time.DateOnly, semesterAt, clock.Location())
			if err != nil {
				return fmt.Errorf("parse --at: %w", err)
			}
		}
		fmt.Println(panda.CurrentSemester(now))
		return nil
	},
}
