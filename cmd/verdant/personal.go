package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/quota"
	"github.com/mmynk/verdant/internal/reminders"
	"github.com/mmynk/verdant/internal/scan"
)

func cmdReminders(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		return listReminders(ctx, a, args)
	case "add":
		return addReminder(ctx, a, args)
	case "delete":
		return deleteReminders(ctx, a, args)
	case "run":
		return runReminders(ctx, a, args)
	}
	return fmt.Errorf("reminders: unknown subcommand %q", sub)
}

func listReminders(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reminders list", flag.ContinueOnError)
	n := fs.IntP("count", "n", reminders.DefaultUpcoming, "how many to show; -1 for all")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	list, err := a.store.ListReminders(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	upcoming := reminders.Upcoming(list, now, *n)
	if len(upcoming) == 0 {
		fmt.Fprintln(stdout, "No upcoming reminders")
		return nil
	}
	w := table()
	fmt.Fprintln(w, "ID\tDUE\tTITLE\tREPEAT")
	for _, r := range upcoming {
		repeat := "-"
		if r.IsRecurring {
			repeat = fmt.Sprintf("every %d day(s)", r.RepeatInterval)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.NextDue(now).Format(time.DateOnly), r.Title, repeat)
	}
	return w.Flush()
}

func addReminder(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reminders add", flag.ContinueOnError)
	title := fs.String("title", "", "what to be reminded of")
	due := fs.String("due", "", "due date, YYYY-MM-DD")
	every := fs.Int("every", 0, "repeat every N days")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("reminders add: --title is required")
	}
	at, err := time.ParseInLocation(time.DateOnly, *due, time.Local)
	if err != nil {
		return fmt.Errorf("reminders add: invalid --due %q", *due)
	}
	r := &models.Reminder{
		Title:          *title,
		Due:            at,
		IsRecurring:    *every > 0,
		RepeatInterval: *every,
	}
	if err := a.store.AddReminder(ctx, r); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added reminder %d\n", r.ID)
	return nil
}

func deleteReminders(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reminders delete", flag.ContinueOnError)
	rest, err := parseFlags(fs, args, -1)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errors.New("reminders delete: expected at least one ID")
	}
	ids := make([]int64, 0, len(rest))
	for _, s := range rest {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("reminders delete: invalid ID %q", s)
		}
		ids = append(ids, id)
	}
	return a.store.DeleteReminders(ctx, ids...)
}

func runReminders(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reminders run", flag.ContinueOnError)
	interval := fs.Duration("interval", reminders.DefaultInterval, "how often to check for due reminders")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}

	unsubscribe := a.store.Bus().Subscribe(events.Reminders, func() {
		fmt.Fprintln(stderr, "[info] reminders changed")
	})
	defer unsubscribe()

	s := reminders.NewScheduler(a.store, func(n reminders.Notification) {
		fmt.Fprintf(stdout, "%s  %s\n  %s\n", n.At.Format("2006-01-02 15:04"), n.Title, n.Body)
	}, reminders.WithInterval(*interval))
	s.Run(ctx)
	return nil
}

func cmdLedger(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	txs, err := a.store.ListTransactions(ctx)
	if err != nil {
		return err
	}
	w := table()
	fmt.Fprintln(w, "DATE\tTYPE\tTITLE\tAMOUNT\tCATEGORY\tMODE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", tx.Date.Format(time.DateOnly), tx.Type, tx.Title, tx.Amount.StringFixed(2), tx.Category, tx.PaymentMode)
	}
	return w.Flush()
}

func cmdScan(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	save := fs.Bool("save", false, "store the extracted expenses in the ledger")
	rest, err := parseFlags(fs, args, 1)
	if err != nil {
		return err
	}
	if a.cfg.ScanEndpoint == "" {
		return errors.New("scan: SCAN_ENDPOINT is not set")
	}
	data, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}

	limiter := quota.NewScanLimiter(a.store, quota.WithLimit(a.cfg.ScanDailyLimit))
	scanner := scan.NewScanner(scan.NewHTTPExtractor(a.cfg.ScanEndpoint, a.http), limiter, a.store, a.monitor.Online)

	res, err := scanner.Scan(ctx, scan.DataURL(data))
	if errors.Is(err, quota.ErrQuotaExceeded) {
		return fmt.Errorf("daily scan limit reached; resets at %s", limiter.ResetAt().Local().Format("15:04"))
	}
	if err != nil {
		return err
	}

	w := table()
	for _, tx := range res.Expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", tx.Date.Format(time.DateOnly), tx.Title, tx.Amount.StringFixed(2), tx.Category, tx.PaymentMode)
	}
	w.Flush()
	fmt.Fprintf(stdout, "%d scan(s) left today\n", res.Remaining)

	if !*save {
		return nil
	}
	n, err := scanner.Save(ctx, res.Expenses)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved %d expense(s)\n", n)
	return nil
}
