package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/scan"
)

// suggestCategory returns the predicted category for title, or "" to keep
// the server default.
func (a *app) suggestCategory(ctx context.Context, title string) string {
	names, err := a.store.CategoryNames(ctx)
	if err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()
	category, ok := scan.SuggestCategory(ctx, scan.NewHTTPPredictor(a.cfg.PredictEndpoint, a.http), title, names)
	if !ok {
		return ""
	}
	fmt.Fprintf(stderr, "[info] category: %s\n", category)
	return category
}

func cmdCategories(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("categories "+sub, flag.ContinueOnError)
	switch sub {
	case "list":
		if _, err := parseFlags(fs, args, 0); err != nil {
			return err
		}
		list, err := a.store.ListCategories(ctx)
		if err != nil {
			return err
		}
		w := table()
		fmt.Fprintln(w, "ID\tNAME\t")
		for _, c := range list {
			builtin := ""
			if models.IsDefaultCategory(c.Name) {
				builtin = "default"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, builtin)
		}
		return w.Flush()
	case "add":
		rest, err := parseFlags(fs, args, -1)
		if err != nil {
			return err
		}
		c, err := a.store.AddCategory(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added category %s (%d)\n", c.Name, c.ID)
		return nil
	case "delete":
		rest, err := parseFlags(fs, args, 1)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("categories delete: invalid ID %q", rest[0])
		}
		return a.store.DeleteCategory(ctx, id)
	}
	return fmt.Errorf("categories: unknown subcommand %q", sub)
}

func cmdSavings(ctx context.Context, a *app, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "show":
		return showSavings(ctx, a)
	case "history":
		return savingsHistory(ctx, a)
	case "deposit":
		return addSavings(ctx, a, models.SavingsDeposit, args)
	case "withdraw":
		return addSavings(ctx, a, models.SavingsWithdrawal, args)
	case "goal":
		return addSavings(ctx, a, models.SavingsGoalUpdate, args)
	}
	return fmt.Errorf("savings: unknown subcommand %q", sub)
}

func showSavings(ctx context.Context, a *app) error {
	st, err := a.store.Settings(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Emergency fund: %s of %s (%s%%)\n",
		st.EmergencyFundCurrent.StringFixed(2), st.EmergencyFundGoal.StringFixed(2),
		st.Progress().Mul(decimal.NewFromInt(100)).StringFixed(0))
	return nil
}

func savingsHistory(ctx context.Context, a *app) error {
	txs, err := a.store.ListSavings(ctx)
	if err != nil {
		return err
	}
	w := table()
	fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tNOTE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tx.Date.Format(time.DateOnly), tx.Type, tx.Amount.StringFixed(2), tx.Note)
	}
	return w.Flush()
}

func addSavings(ctx context.Context, a *app, typ models.SavingsType, args []string) error {
	fs := flag.NewFlagSet("savings "+string(typ), flag.ContinueOnError)
	note := fs.String("note", "", "optional note")
	rest, err := parseFlags(fs, args, 1)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(rest[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q", rest[0])
	}
	if _, err := a.store.AddSavings(ctx, &models.SavingsTransaction{Amount: amount, Type: typ, Note: *note}); err != nil {
		return err
	}
	return showSavings(ctx, a)
}

func cmdBudget(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ContinueOnError)
	name := fs.String("name", "", "your display name")
	rest, err := parseFlags(fs, args, -1)
	if err != nil {
		return err
	}
	st, err := a.store.Settings(ctx)
	if err != nil {
		return err
	}
	if len(rest) == 0 && *name == "" {
		fmt.Fprintf(stdout, "Monthly budget: %s\n", st.MonthlyBudget.StringFixed(2))
		return nil
	}
	if len(rest) > 1 {
		return errors.New("budget: expected at most one AMOUNT")
	}
	if len(rest) == 1 {
		if st.MonthlyBudget, err = decimal.NewFromString(rest[0]); err != nil {
			return fmt.Errorf("invalid amount %q", rest[0])
		}
	}
	if *name != "" {
		st.UserName = *name
	}
	return a.store.UpdateSettings(ctx, st)
}
