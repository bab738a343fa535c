package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jdmarquezdev/tribitr-web/pkg/localstore"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/orchestrator"
	"github.com/jdmarquezdev/tribitr-web/pkg/syncclient"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:  "syncctl",
		Usage: "drive a device's profile sync from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:3689", EnvVars: []string{"TRIBITR_SERVER"}, Usage: "sync server base URL"},
			&cli.StringFlag{Name: "db", Value: "tribitr-local.db", EnvVars: []string{"TRIBITR_LOCAL_DB"}, Usage: "local SQLite store"},
			&cli.StringFlag{Name: "profile", EnvVars: []string{"TRIBITR_PROFILE_ID"}, Usage: "profile ID"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"TRIBITR_SHARE_TOKEN"}, Usage: "share token"},
			&cli.DurationFlag{Name: "timeout", Value: orchestrator.DefaultTimeout, Usage: "per request timeout"},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "generate a new profile ID and share token",
				Action: func(c *cli.Context) error {
					fmt.Printf("TRIBITR_PROFILE_ID=%s\nTRIBITR_SHARE_TOKEN=%s\n",
						uuid.NewString(), strings.ReplaceAll(uuid.NewString(), "-", ""))
					return nil
				},
			},
			{
				Name:  "pull",
				Usage: "pull and merge the server copy",
				Action: func(c *cli.Context) error {
					return run(c, func(ctx context.Context, o *orchestrator.Orchestrator) error {
						return o.Focus(ctx)
					})
				},
			},
			{
				Name:  "push",
				Usage: "push the local copy",
				Action: func(c *cli.Context) error {
					return run(c, func(ctx context.Context, o *orchestrator.Orchestrator) error {
						return o.Push(ctx)
					})
				},
			},
			{
				Name:  "sync",
				Usage: "pull, merge and push whatever is left",
				Action: func(c *cli.Context) error {
					return run(c, func(ctx context.Context, o *orchestrator.Orchestrator) error {
						return o.SyncNow(ctx)
					})
				},
			},
			{
				Name:  "watch",
				Usage: "stay running and pull periodically until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: orchestrator.DefaultInterval, Usage: "pull interval"},
					&cli.Uint64Flag{Name: "retries", Value: 5, Usage: "activation attempts before giving up"},
				},
				Action: func(c *cli.Context) error {
					return watch(c, log)
				},
			},
			{
				Name:  "show",
				Usage: "print the local copy",
				Action: func(c *cli.Context) error {
					return run(c, func(ctx context.Context, o *orchestrator.Orchestrator) error {
						snap, err := o.Snapshot(ctx)
						if err != nil {
							return err
						}
						if snap == nil {
							return errors.New("no local copy, run pull first")
						}
						data, err := json.MarshalIndent(snap, "", "  ")
						if err != nil {
							return errors.WithStack(err)
						}
						fmt.Println(string(data))
						return nil
					})
				},
			},
			{
				Name:      "expose",
				Usage:     "record an exposure for an item and sync",
				ArgsUsage: "<item>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("item is required")
					}
					return edit(c, func(o *orchestrator.Orchestrator, snap *models.Snapshot) {
						if !snap.Item(id).RecordExposure(o.Now()) {
							log.Warn("exposure history is full", logger.Data{"item": id})
						}
					})
				},
			},
			{
				Name:      "note",
				Usage:     "set an item's notes and sync",
				ArgsUsage: "<item> <text>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("item is required")
					}
					notes := strings.Join(c.Args().Tail(), " ")
					return edit(c, func(o *orchestrator.Orchestrator, snap *models.Snapshot) {
						item := snap.Item(id)
						item.Notes = strings.TrimSpace(notes)
						item.UpdatedAt = o.Now()
					})
				},
			},
			{
				Name:      "hide",
				Usage:     "hide (or unhide) an item and sync",
				ArgsUsage: "<item>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unhide", Usage: "show the item again"},
				},
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("item is required")
					}
					hidden := !c.Bool("unhide")
					return edit(c, func(o *orchestrator.Orchestrator, snap *models.Snapshot) {
						item := snap.Item(id)
						item.Hidden = hidden
						item.UpdatedAt = o.Now()
					})
				},
			},
			{
				Name:      "theme",
				Usage:     "change the theme setting and sync",
				ArgsUsage: "<light|dark|system>",
				Action: func(c *cli.Context) error {
					theme := c.Args().First()
					if !models.IsValidTheme(theme) {
						return errors.Errorf("unknown theme %q", theme)
					}
					return edit(c, func(o *orchestrator.Orchestrator, snap *models.Snapshot) {
						snap.Settings.Theme = theme
						snap.UpdatedAt = o.Now()
					})
				},
			},
			{
				Name:  "delete",
				Usage: "delete the profile from the server and this device",
				Action: func(c *cli.Context) error {
					profileID, shareToken, err := identity(c)
					if err != nil {
						return err
					}
					client := syncclient.New(syncclient.Options{BaseURL: c.String("server"), Timeout: c.Duration("timeout")})
					if err := client.Delete(c.Context, shareToken, profileID); err != nil {
						return err
					}
					store, err := localstore.OpenSQLite(c.Context, c.String("db"))
					if err != nil {
						return err
					}
					defer store.Close()
					return store.Delete(c.Context, profileID)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("syncctl error")
	}
}

func identity(c *cli.Context) (string, string, error) {
	profileID := c.String("profile")
	shareToken := c.String("token")
	if !models.IsValidProfileID(profileID) {
		return "", "", errors.New("a valid --profile is required (see syncctl init)")
	}
	if !models.IsValidShareToken(shareToken) {
		return "", "", errors.New("a valid --token is required (see syncctl init)")
	}
	return profileID, shareToken, nil
}

func open(c *cli.Context, opts orchestrator.Options) (*orchestrator.Orchestrator, func(), error) {
	profileID, shareToken, err := identity(c)
	if err != nil {
		return nil, nil, err
	}

	store, err := localstore.OpenSQLite(c.Context, c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	client := syncclient.New(syncclient.Options{BaseURL: c.String("server"), Timeout: c.Duration("timeout")})
	opts.Timeout = c.Duration("timeout")
	o := orchestrator.New(profileID, shareToken, client, store, opts)

	return o, func() {
		o.Stop()
		store.Close()
	}, nil
}

// run opens an orchestrator, runs fn and reports the resulting status.
func run(c *cli.Context, fn func(ctx context.Context, o *orchestrator.Orchestrator) error) error {
	o, closeFn, err := open(c, orchestrator.Options{})
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := logger.New().WithContext(c.Context)
	if err := fn(ctx, o); err != nil {
		return err
	}
	report(o)
	return nil
}

// edit applies a local change and syncs it right away instead of waiting
// for the debounce, since the process is about to exit.
func edit(c *cli.Context, fn func(o *orchestrator.Orchestrator, snap *models.Snapshot)) error {
	return run(c, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		if _, err := o.Mutate(ctx, func(snap *models.Snapshot) { fn(o, snap) }); err != nil {
			return err
		}
		return o.SyncNow(ctx)
	})
}

func watch(c *cli.Context, log logger.Logger) error {
	o, closeFn, err := open(c, orchestrator.Options{Interval: c.Duration("interval")})
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := log.WithContext(c.Context)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.Uint64("retries")), ctx)

	err = backoff.RetryNotify(func() error {
		err := o.Activate(ctx)
		if errors.Is(err, orchestrator.ErrStopped) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		log.Err(err).Warn("activation failed, retrying", logger.Data{"wait": wait.String()})
	})
	if err != nil {
		return errors.Wrap(err, "activate")
	}
	report(o)

	log.Info("watching, interrupt to stop", logger.Data{"interval": c.Duration("interval").String()})
	<-signals.Setup()
	report(o)
	return nil
}

func report(o *orchestrator.Orchestrator) {
	status := o.Status()
	data := logger.Data{
		"revision": status.Revision,
		"pending":  status.Pending,
	}
	if status.LastSyncAt != nil {
		data["last_sync_at"] = status.LastSyncAt.Format(time.RFC3339)
	}
	log := logger.New()
	if status.CouldNotSync() {
		log.Err(status.Err).Warn("could not sync", data)
		return
	}
	log.Info("sync status", data)
}
