package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/offline"
	"github.com/mmynk/verdant/pkg/api"
)

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (at least 8 characters)")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if !a.monitor.Online() {
		return offline.ErrOffline
	}
	resp, err := a.client.Register(ctx, &api.RegisterRequest{Email: *email, DisplayName: *name, Password: *password})
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, resp); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Registered as %s\n", resp.User.DisplayName)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if !a.monitor.Online() {
		return offline.ErrOffline
	}
	resp, err := a.client.Login(ctx, &api.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, resp); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Signed in as %s\n", resp.User.DisplayName)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	a.session = nil
	return a.store.Delete(ctx, sessionKey)
}

func cmdGroups(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("groups", flag.ContinueOnError)
	wait := fs.Bool("wait", true, "wait for the background prefetch to finish")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	userID, err := a.user()
	if err != nil {
		return err
	}

	opts := a.options()
	prefetcher := offline.NewPrefetcher(a.client, a.cache(), opts)
	index := offline.NewGroupsIndex(userID, a.store, a.client, prefetcher, a.monitor, opts)

	res, err := index.Load(ctx)
	if err != nil {
		printNotice(offline.Notice{Kind: offline.NoticeError, Text: "Error fetching groups", Err: err})
	}
	printGroups(res.Groups, res.Live)

	if *wait && res.Prefetched != nil {
		select {
		case <-res.Prefetched:
		case <-ctx.Done():
		}
	}
	return nil
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	rest, err := parseFlags(fs, args, 1)
	if err != nil {
		return err
	}
	view, err := a.openView(ctx, rest[0])
	if err != nil {
		return err
	}
	defer view.Close()
	printSnapshot(view.Snapshot())
	return nil
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	rest, err := parseFlags(fs, args, 1)
	if err != nil {
		return err
	}
	view, err := a.openView(ctx, rest[0])
	if err != nil {
		return err
	}
	defer view.Close()

	printSnapshot(view.Snapshot())
	view.Watch(func(s offline.Snapshot) {
		if s.State == offline.StateReady {
			printSnapshot(s)
		}
	})
	a.monitor.Subscribe(func(online bool) {
		if online {
			printNotice(offline.Notice{Text: "Back online"})
		} else {
			printNotice(offline.Notice{Text: "Offline, showing cached data"})
		}
	})

	go a.monitor.Probe(ctx, a.cfg.ProbeInterval, a.check())
	listener := offline.Listen(ctx, view, offline.ClientSubscriber{Client: a.client}, 0)
	defer listener.Close()

	<-ctx.Done()
	return nil
}

func cmdExpense(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("expense", flag.ContinueOnError)
	title := fs.String("title", "", "what the expense was for")
	amount := fs.String("amount", "", "amount, e.g. 120.50")
	category := fs.String("category", "", "category (default: suggested, else General)")
	mode := fs.String("mode", string(models.PaymentCash), "payment mode: Cash, Card, Online or Other")
	del := fs.String("delete", "", "delete the expense with this ID instead")
	rest, err := parseFlags(fs, args, 1)
	if err != nil {
		return err
	}

	view, err := a.openView(ctx, rest[0])
	if err != nil {
		return err
	}
	defer view.Close()
	actions := offline.NewActions(view, a.client)

	if *del != "" {
		return actions.DeleteExpense(ctx, *del)
	}
	amt, err := decimal.NewFromString(strings.TrimSpace(*amount))
	if err != nil {
		return fmt.Errorf("invalid amount %q", *amount)
	}
	if *category == "" && a.cfg.PredictEndpoint != "" && a.monitor.Online() {
		*category = a.suggestCategory(ctx, *title)
	}
	e, err := actions.CreateExpense(ctx, *title, amt, *category, models.PaymentMode(*mode))
	if errors.Is(err, offline.ErrOffline) {
		return errors.New("adding expenses needs a connection")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %s (%s)\n", e.Title, e.ID)
	return nil
}

func cmdSay(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("say", flag.ContinueOnError)
	rest, err := parseFlags(fs, args, -1)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return errors.New("say: expected GROUP_ID and MESSAGE")
	}
	view, err := a.openView(ctx, rest[0])
	if err != nil {
		return err
	}
	defer view.Close()
	return offline.NewActions(view, a.client).SendMessage(ctx, strings.Join(rest[1:], " "))
}
