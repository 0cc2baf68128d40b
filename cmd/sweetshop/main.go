package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/georgemunganga/sweetshop/internal/app"
	"github.com/georgemunganga/sweetshop/internal/config"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const shopKey = "shop"

func newCLI() *cli.App {
	return &cli.App{
		Name:  "sweetshop",
		Usage: "browse and manage the sweet shop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "backend base URL", EnvVars: []string{"SWEETSHOP_API_URL"}},
			&cli.StringFlag{Name: "store", Usage: "credential store driver (sqlite, postgres, memory)"},
			&cli.StringFlag{Name: "store-dsn", Usage: "credential store path or connection string"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout"},
			&cli.StringFlag{Name: "log-level", Usage: "log level"},
			&cli.BoolFlag{Name: "log-json", Usage: "log as JSON"},
		},
		Before:   setup,
		After:    teardown,
		Commands: commands(),
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := c.String("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v := c.String("store"); v != "" {
		cfg.StoreDriver = v
	}
	if v := c.String("store-dsn"); v != "" {
		cfg.StoreDSN = v
	}
	if v := c.Duration("timeout"); v > 0 {
		cfg.RequestTimeout = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(c.App.ErrWriter)
	log.SetLevel(cfg.Level())
	if c.Bool("log-json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	shop, err := app.New(c.Context, cfg, app.Options{Logger: log})
	if err != nil {
		return err
	}
	shop.Session.Initialize(c.Context)
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[shopKey] = shop
	return nil
}

func teardown(c *cli.Context) error {
	if shop, ok := c.App.Metadata[shopKey].(*app.App); ok {
		return shop.Close()
	}
	return nil
}

func shopOf(c *cli.Context) *app.App {
	return c.App.Metadata[shopKey].(*app.App)
}
