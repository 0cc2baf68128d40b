package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/sweetshop/internal/app"
	"github.com/georgemunganga/sweetshop/internal/modules/auth"
	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/guard"
	"github.com/georgemunganga/sweetshop/internal/modules/inventory"
)

type action func(c *cli.Context, shop *app.App) error

// guarded runs fn only when the guard admits route.
func guarded(route string, fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		shop := shopOf(c)
		d, err := shop.Guard.Await(c.Context, route)
		if err != nil {
			return err
		}
		if d.State != guard.Allowed {
			return cli.Exit(fmt.Sprintf("%s is not available: go to %s", route, d.Redirect), 2)
		}
		return fn(c, shop)
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "login",
			Usage:     "log in with email and password",
			ArgsUsage: "EMAIL PASSWORD",
			Action:    guarded(guard.PathLogin, login),
		},
		{
			Name:      "register",
			Usage:     "create an account and log in",
			ArgsUsage: "NAME EMAIL PASSWORD",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "role", Value: "customer", Usage: "customer or admin"},
			},
			Action: func(c *cli.Context) error {
				return guarded("/register/"+c.String("role"), register)(c)
			},
		},
		{
			Name:   "logout",
			Usage:  "forget the stored login",
			Action: guarded(guard.PathHome, logout),
		},
		{
			Name:   "whoami",
			Usage:  "show the logged in user",
			Action: guarded(guard.PathCustomerDashboard, whoami),
		},
		{
			Name:  "list",
			Usage: "list sweets",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "text", Usage: "match name or category"},
				&cli.StringFlag{Name: "category", Usage: "exact category"},
				&cli.Float64Flag{Name: "min-price"},
				&cli.Float64Flag{Name: "max-price"},
				&cli.BoolFlag{Name: "remote", Usage: "search on the server instead of filtering locally"},
			},
			Action: guarded(guard.PathCustomerDashboard, list),
		},
		{
			Name:      "buy",
			Usage:     "purchase one or more sweets",
			ArgsUsage: "ID [ID...]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "qty", Value: 1, Usage: "quantity of each sweet"},
			},
			Action: guarded(guard.PathCustomerDashboard, buy),
		},
		{
			Name:   "stats",
			Usage:  "stock summary",
			Action: guarded(guard.PathAdminDashboard, stats),
		},
		{
			Name:      "add",
			Usage:     "add a sweet",
			ArgsUsage: "NAME CATEGORY PRICE [QUANTITY]",
			Action:    guarded(guard.PathAdminDashboard, add),
		},
		{
			Name:      "edit",
			Usage:     "change a sweet",
			ArgsUsage: "ID",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name"},
				&cli.StringFlag{Name: "category"},
				&cli.Float64Flag{Name: "price"},
				&cli.IntFlag{Name: "quantity"},
			},
			Action: guarded(guard.PathAdminDashboard, edit),
		},
		{
			Name:      "delete",
			Usage:     "remove a sweet",
			ArgsUsage: "ID",
			Action:    guarded(guard.PathAdminDashboard, remove),
		},
		{
			Name:      "restock",
			Usage:     "add stock to a sweet",
			ArgsUsage: "ID",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "qty", Value: 10},
			},
			Action: guarded(guard.PathAdminDashboard, restock),
		},
	}
}

func login(c *cli.Context, shop *app.App) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: sweetshop login EMAIL PASSWORD", 2)
	}
	u, err := shop.Session.Login(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(c.App.Writer, "Welcome back, %s. Next: %s\n", u.Name, guard.Dashboard(u.Role))
	return nil
}

func register(c *cli.Context, shop *app.App) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: sweetshop register [--role admin] NAME EMAIL PASSWORD", 2)
	}
	args := c.Args()
	u, err := shop.Session.Register(c.Context, args.Get(0), args.Get(1), args.Get(2), c.String("role"))
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(c.App.Writer, "Registered %s as %s. Next: %s\n", u.Email, u.Role, guard.Dashboard(u.Role))
	return nil
}

func logout(c *cli.Context, shop *app.App) error {
	shop.Session.Logout(c.Context)
	fmt.Fprintln(c.App.Writer, "Logged out.")
	return nil
}

func whoami(c *cli.Context, shop *app.App) error {
	u := shop.Session.Identity()
	fmt.Fprintf(c.App.Writer, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func list(c *cli.Context, shop *app.App) error {
	f := catalog.Filter{Text: c.String("text")}
	if c.IsSet("category") {
		v := c.String("category")
		f.Category = &v
	}
	if c.IsSet("min-price") {
		v := c.Float64("min-price")
		f.MinPrice = &v
	}
	if c.IsSet("max-price") {
		v := c.Float64("max-price")
		f.MaxPrice = &v
	}

	if c.Bool("remote") {
		items, err := shop.Inventory.Search(c.Context, f)
		if err != nil {
			return explain(err)
		}
		printItems(c.App.Writer, items)
		return nil
	}

	if err := f.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := shop.Inventory.Load(c.Context); err != nil {
		return explain(err)
	}
	var items []catalog.Item
	for it := range shop.Catalog.Project(f) {
		items = append(items, it)
	}
	printItems(c.App.Writer, items)
	return nil
}

// buy purchases every id concurrently. Each id has its own in-flight slot.
func buy(c *cli.Context, shop *app.App) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return cli.Exit("usage: sweetshop buy [--qty N] ID [ID...]", 2)
	}
	if err := shop.Inventory.Load(c.Context); err != nil {
		return explain(err)
	}

	qty := c.Int("qty")
	results := make([]catalog.Item, len(ids))
	errs := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			results[i], errs[i] = shop.Inventory.Purchase(c.Context, id, qty)
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		if errs[i] != nil {
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", id, explain(errs[i]))
			continue
		}
		fmt.Fprintf(c.App.Writer, "Bought %d %s, %d left\n", qty, results[i].Name, results[i].Quantity)
	}
	return errors.Join(errs...)
}

func stats(c *cli.Context, shop *app.App) error {
	if err := shop.Inventory.Load(c.Context); err != nil {
		return explain(err)
	}
	s := shop.Catalog.Stats()
	w := c.App.Writer
	fmt.Fprintf(w, "Total sweets:  %d\n", s.Total)
	fmt.Fprintf(w, "In stock:      %d\n", s.InStock)
	fmt.Fprintf(w, "Out of stock:  %d\n", s.OutOfStock)
	fmt.Fprintf(w, "Low stock:     %d\n", s.LowStock)
	fmt.Fprintf(w, "Categories:    %s\n", strings.Join(shop.Catalog.Categories(), ", "))
	return nil
}

func add(c *cli.Context, shop *app.App) error {
	args := c.Args()
	if args.Len() < 3 || args.Len() > 4 {
		return cli.Exit("usage: sweetshop add NAME CATEGORY PRICE [QUANTITY]", 2)
	}
	price, err := strconv.ParseFloat(args.Get(2), 64)
	if err != nil {
		return cli.Exit("price must be a number", 2)
	}
	qty := 0
	if args.Len() == 4 {
		if qty, err = strconv.Atoi(args.Get(3)); err != nil {
			return cli.Exit("quantity must be a whole number", 2)
		}
	}
	it, err := shop.Inventory.Create(c.Context, catalog.Draft{Name: args.Get(0), Category: args.Get(1), Price: price, Quantity: qty})
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(c.App.Writer, "Added %s (%s)\n", it.Name, it.ID)
	return nil
}

func edit(c *cli.Context, shop *app.App) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sweetshop edit ID [--name N] [--category C] [--price P] [--quantity Q]", 2)
	}
	var p catalog.Patch
	if c.IsSet("name") {
		v := c.String("name")
		p.Name = &v
	}
	if c.IsSet("category") {
		v := c.String("category")
		p.Category = &v
	}
	if c.IsSet("price") {
		v := c.Float64("price")
		p.Price = &v
	}
	if c.IsSet("quantity") {
		v := c.Int("quantity")
		p.Quantity = &v
	}
	it, err := shop.Inventory.Update(c.Context, c.Args().First(), p)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(c.App.Writer, "Updated %s\n", it.Name)
	return nil
}

func remove(c *cli.Context, shop *app.App) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sweetshop delete ID", 2)
	}
	if err := shop.Inventory.Remove(c.Context, c.Args().First()); err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.App.Writer, "Deleted.")
	return nil
}

func restock(c *cli.Context, shop *app.App) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sweetshop restock [--qty N] ID", 2)
	}
	if err := shop.Inventory.Load(c.Context); err != nil {
		return explain(err)
	}
	it, err := shop.Inventory.Restock(c.Context, c.Args().First(), c.Int("qty"))
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(c.App.Writer, "%s now has %d in stock\n", it.Name, it.Quantity)
	return nil
}

// explain turns a classified failure into a message for the terminal.
func explain(err error) error {
	var f *auth.Failure
	if errors.As(err, &f) {
		switch f.Reason {
		case auth.ReasonInvalidCredentials:
			return cli.Exit("Invalid email or password.", 1)
		case auth.ReasonNetwork:
			return cli.Exit("Could not reach the server, try again.", 1)
		}
		return cli.Exit(f.Message, 1)
	}

	var e *inventory.Error
	if !errors.As(err, &e) {
		return err
	}
	switch e.Kind {
	case inventory.KindBusy:
		return cli.Exit("That request is already in progress.", 1)
	case inventory.KindNetwork:
		return cli.Exit("Could not reach the server, try again.", 1)
	case inventory.KindStockConflict:
		return cli.Exit(e.Message+" (stock refreshed, try again)", 1)
	case inventory.KindAuthorization:
		return cli.Exit("Not allowed: "+e.Message, 1)
	}
	return cli.Exit(e.Message, 1)
}

func printItems(w io.Writer, items []catalog.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No sweets found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, it := range items {
		stock := strconv.Itoa(it.Quantity)
		switch {
		case it.Quantity == 0:
			stock = "out of stock"
		case it.Quantity <= catalog.LowStockThreshold:
			stock += " (low)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", it.ID, it.Name, it.Category, it.Price, stock)
	}
	tw.Flush()
}
