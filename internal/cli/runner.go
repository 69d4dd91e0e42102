package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/gomarket/internal/cart"
	"github.com/Makepad-fr/gomarket/internal/model"
	"github.com/Makepad-fr/gomarket/internal/store"
	"github.com/Makepad-fr/gomarket/internal/tui"
	"github.com/Makepad-fr/gomarket/internal/ui"
)

// Options carry what the root command resolved: the storage backend and
// logger every subcommand shares.
type Options struct {
	Store  store.KV
	Logger logrus.FieldLogger
	NewID  func() string // product IDs for `add` without -id; defaults to UUIDs
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp(ui.Stdout())
		return 2
	}
	if opt.Logger == nil {
		opt.Logger = logrus.StandardLogger()
	}
	if opt.NewID == nil {
		opt.NewID = uuid.NewString
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(ui.Stdout())
		return 0

	case "ls":
		return withCart(ctx, opt, func(ctx context.Context) int { return doList(ctx) })

	case "add":
		return withCart(ctx, opt, func(ctx context.Context) int { return doAdd(ctx, a, opt.NewID) })

	case "inc", "dec":
		if len(a) != 1 {
			ui.Fail(fmt.Sprintf("usage: gomarket %s <id>", cmd))
			return 2
		}
		return withCart(ctx, opt, func(ctx context.Context) int { return doStep(ctx, cmd, a[0]) })

	case "tui":
		_, s := cart.Provide(ctx, opt.Store, cart.WithLogger(opt.Logger))
		if err := tui.Run(ctx, s); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr())
	PrintHelp(ui.Stderr())
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `gomarket - a local shopping cart

Usage:
  gomarket [flags] <subcommand> [args]

Subcommands:
  ls                              List the cart
  add [-id ID] [-price P] [-image URL] <title...>
                                  Add a product, or one more of it if the ID is already in the cart
  inc <id>                        One more of a product
  dec <id>                        One less of a product (removes it at 1)
  tui                             Interactive cart

Examples:
  gomarket add -price 4.50 "Oat milk"
  gomarket add -id sku-42 -price 19.90 -image https://cdn.example.com/42.png "Lunch box"
  gomarket inc sku-42
  gomarket ls
`)
}

// withCart provides and loads the cart, then runs fn with a context that
// carries it.
func withCart(ctx context.Context, opt Options, fn func(ctx context.Context) int) int {
	ctx, s := cart.Provide(ctx, opt.Store, cart.WithLogger(opt.Logger))
	if err := s.Load(ctx); err != nil {
		if !errors.Is(err, cart.ErrCorruptState) {
			ui.Fail("load: " + err.Error())
			return 1
		}
		fmt.Fprintln(ui.Stderr(), ui.C(ui.Current().Muted, "Saved cart was unreadable; starting from an empty cart"))
	}
	return fn(ctx)
}

// -------------- subcommand impls ----------------

func doList(ctx context.Context) int {
	items := cart.MustUse(ctx).Products()
	t := ui.Current()

	var count int
	var total float64
	for _, it := range items {
		count += it.Quantity
		total += it.Subtotal()
	}

	header := fmt.Sprintf("%s  %s %d  %s %s",
		ui.C(t.Title, t.SymCart),
		ui.C(t.Qty, "items"), count,
		ui.C(t.Accent, "total"), ui.C(t.Price, ui.Money(total)),
	)

	var lines []string
	lines = append(lines, header, "")
	lines = append(lines, itemLines(items, total)...)
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `gomarket add -price 4.50 \"Oat milk\"`"))
	ui.Panel(ui.Stdout(), lines)
	return 0
}

func doAdd(ctx context.Context, args []string, newID func() string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(ui.Stderr())
	id := fs.String("id", "", "product ID (default: a new UUID)")
	price := fs.Float64("price", 0, "unit price")
	image := fs.String("image", "", "product image URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		ui.Fail("usage: gomarket add [-id ID] [-price P] [-image URL] <title...>")
		return 2
	}
	item := model.LineItem{
		ID:       strings.TrimSpace(*id),
		Title:    title,
		ImageURL: strings.TrimSpace(*image),
		Price:    *price,
		Quantity: 1,
	}
	if item.ID == "" {
		item.ID = newID()
	}
	if err := item.Validate(); err != nil {
		ui.Fail("add: " + err.Error())
		return 2
	}

	c := cart.MustUse(ctx)
	if err := c.AddToCart(ctx, item); err != nil {
		ui.Fail("save: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("added %s (%s), %d in cart", title, item.ID, quantityOf(c.Products(), item.ID)))
	return 0
}

func doStep(ctx context.Context, cmd, id string) int {
	c := cart.MustUse(ctx)
	known := quantityOf(c.Products(), id) > 0

	op, verb := c.Increment, "incremented"
	if cmd == "dec" {
		op, verb = c.Decrement, "decremented"
	}
	if err := op(ctx, id); err != nil {
		ui.Fail("save: " + err.Error())
		return 1
	}
	if !known {
		ui.Fail("no product with id " + id)
		fmt.Fprintln(ui.Stderr(), ui.C(ui.Current().Muted, "Hint: run `gomarket ls` to see product IDs"))
		return 1
	}

	if n := quantityOf(c.Products(), id); n > 0 {
		ui.OK(fmt.Sprintf("%s %s, %d in cart", verb, id, n))
	} else {
		ui.OK("removed " + id)
	}
	return 0
}

// -------------- rendering helpers --------------

func quantityOf(items []model.LineItem, id string) int {
	for _, it := range items {
		if it.ID == id {
			return it.Quantity
		}
	}
	return 0
}

func itemLines(items []model.LineItem, total float64) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "cart is empty")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		out = append(out, fmt.Sprintf("%s %s %s %s  %s  %s",
			ui.Dim(idx),
			ui.C(t.Qty, fmt.Sprintf("%3dx", it.Quantity)),
			ui.Truncate(it.Title, 40),
			ui.C(t.Muted, "["+it.ID+"]"),
			ui.C(t.Price, ui.Money(it.Subtotal())),
			ui.C(t.Muted, ui.ShareBar(it.Subtotal(), total, 12)),
		))
	}
	return out
}
