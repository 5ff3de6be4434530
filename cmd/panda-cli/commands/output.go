package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"pandassist/internal/scrapers/panda"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// describe turns the client's error kinds into something a person can act on.
func describe(err error) string {
	var authErr *panda.AuthenticationError
	var expired *panda.SessionExpiredError
	var protocolErr *panda.ProtocolError
	var mappingErr *panda.MappingError
	var transient *panda.TransientError

	switch {
	case errors.As(err, &authErr):
		return fmt.Sprintf("login rejected: %s", authErr.Message)
	case errors.As(err, &expired):
		return "the portal session expired, run again or use 'login --force'"
	case errors.As(err, &protocolErr):
		return fmt.Sprintf("the portal answered in an unexpected way (%s), run with --dump-http to inspect it", protocolErr.Reason)
	case errors.As(err, &mappingErr):
		return fmt.Sprintf("the portal sent an incomplete %s: %s", mappingErr.Entity, err.Error())
	case errors.As(err, &transient):
		return fmt.Sprintf("the portal could not be reached, try again later: %s", err.Error())
	}
	return err.Error()
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// formatRemaining renders a duration as days and hours, ex. "3d 4h".
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "due"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
