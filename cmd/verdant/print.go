package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/offline"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
}

func millis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func printGroups(groups []models.Group, live bool) {
	source := "cached"
	if live {
		source = "live"
	}
	fmt.Fprintf(stdout, "%d group(s) (%s)\n", len(groups), source)
	w := table()
	fmt.Fprintln(w, "ID\tNAME\tJOIN CODE")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.ID, g.Name, g.JoinCode)
	}
	w.Flush()
}

func printSnapshot(s offline.Snapshot) {
	if s.Group == nil {
		fmt.Fprintf(stdout, "Group unavailable (%s)\n", s.State)
		return
	}
	fmt.Fprintf(stdout, "%s [%s, %s]", s.Group.Name, s.State, s.Phase)
	if s.Phase == offline.PhaseCached {
		fmt.Fprintf(stdout, " cached at %s", millis(s.CachedAt))
	}
	if s.IsAdmin {
		fmt.Fprint(stdout, " (admin)")
	}
	fmt.Fprintln(stdout)
	if len(s.Stale) > 0 {
		fmt.Fprintf(stdout, "Could not refresh: %v\n", s.Stale)
	}

	w := table()
	fmt.Fprintf(w, "\nMEMBERS (%d)\n", len(s.Members))
	for _, m := range s.Members {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", m.Name, m.Email, m.Role)
	}
	fmt.Fprintf(w, "\nEXPENSES (%d)\n", len(s.Expenses))
	for _, e := range s.Expenses {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%d reaction(s)\n", millis(e.Date), e.Title, e.Amount.StringFixed(2), e.Category, len(e.Reactions))
	}
	fmt.Fprintf(w, "\nGOALS (%d)\n", len(s.Goals))
	for _, g := range s.Goals {
		fmt.Fprintf(w, "  %s\t%s / %s %s\t%s\n", g.Title, g.CurrentAmount.StringFixed(2), g.TargetAmount.StringFixed(2), g.Currency, g.Status)
	}
	fmt.Fprintf(w, "\nMESSAGES (%d)\n", len(s.Messages))
	for _, m := range s.Messages {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", millis(m.CreatedAt), m.UserName, m.Content)
	}
	w.Flush()
}
