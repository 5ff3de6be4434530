package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginForce bool

func init() {
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Discard the current session and log in again, failing with the portal's message when rejected.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [--force]",
	Short: "Logs in to the portal and reports whether the credentials were accepted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)
		ctx := cmd.Context()

		if loginForce {
			err := a.service.Login(ctx, true)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", a.config.Username)
			return nil
		}

		ok, err := a.service.CheckLogin(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("the portal rejected the credentials of %s", a.config.Username)
		}
		fmt.Printf("logged in as %s\n", a.config.Username)
		return nil
	},
}
