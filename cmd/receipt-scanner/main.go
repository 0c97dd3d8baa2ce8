package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ilhamije/receipt-scanner/internal/bootstrap"
	"github.com/ilhamije/receipt-scanner/internal/config"
	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.cmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("RECEIPT_SCANNER")); err != nil {
		switch {
		case errors.Is(err, ff.ErrHelp):
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.cmd))
		case errors.Is(err, ff.ErrNoExec):
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.cmd))
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

type rootCommand struct {
	cmd        *ff.Command
	flags      *ff.FlagSet
	configPath *string
}

// filterFlags are shared by list and export.
type filterFlags struct {
	vendor         *string
	category       *string
	year           *int
	month          *int
	minAmount      *string
	maxAmount      *string
	includeDeleted *bool
}

func registerFilterFlags(fs *ff.FlagSet) *filterFlags {
	return &filterFlags{
		vendor:         fs.StringLong("vendor", "", "substring match on vendor name"),
		category:       fs.StringLong("category", "", "exact category match"),
		year:           fs.IntLong("year", 0, "expense year (0 means any)"),
		month:          fs.IntLong("month", 0, "expense month 1-12 (0 means any)"),
		minAmount:      fs.StringLong("min-amount", "", "minimum amount, inclusive"),
		maxAmount:      fs.StringLong("max-amount", "", "maximum amount, inclusive"),
		includeDeleted: fs.BoolLong("include-deleted", "include soft-deleted receipts"),
	}
}

func (f *filterFlags) build() (domain.Filter, error) {
	filter := domain.Filter{
		Vendor:         *f.vendor,
		Category:       *f.category,
		Year:           *f.year,
		Month:          *f.month,
		IncludeDeleted: *f.includeDeleted,
	}
	if *f.minAmount != "" {
		v, err := strconv.ParseFloat(*f.minAmount, 64)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("parse --min-amount: %w", err)
		}
		filter.MinAmount = &v
	}
	if *f.maxAmount != "" {
		v, err := strconv.ParseFloat(*f.maxAmount, 64)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("parse --max-amount: %w", err)
		}
		filter.MaxAmount = &v
	}
	return filter, filter.Validate()
}

func newRootCommand() *rootCommand {
	flags := ff.NewFlagSet("receipt-scanner")
	root := &rootCommand{
		flags:      flags,
		configPath: flags.StringLong("config", "", "path to YAML config file"),
	}
	root.cmd = &ff.Command{
		Name:      "receipt-scanner",
		Usage:     "receipt-scanner [FLAGS] SUBCOMMAND ...",
		ShortHelp: "client for the receipts extraction backend",
		Flags:     flags,
		Subcommands: []*ff.Command{
			root.listCommand(),
			root.showCommand(),
			root.uploadCommand(),
			root.editCommand(),
			root.deleteCommand(),
			root.exportCommand(),
		},
	}
	return root
}

// withApp loads config, boots the app, runs fn, and tears down. The optional
// metrics listener lives for the duration of the command.
func (r *rootCommand) withApp(ctx context.Context, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load(*r.configPath)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.MetricsAddr != "" {
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: app.Metrics.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Warn("metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	return fn(ctx, app)
}

func (r *rootCommand) listCommand() *ff.Command {
	fs := ff.NewFlagSet("list").SetParent(r.flags)
	filters := registerFilterFlags(fs)
	page := fs.IntLong("page", 0, "zero-based page to fetch")
	showAll := fs.BoolLong("all", "show records that failed extraction too")

	return &ff.Command{
		Name:      "list",
		Usage:     "receipt-scanner list [FLAGS]",
		ShortHelp: "list receipts matching a filter",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}
			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.List.SetFilter(ctx, filter); err != nil {
					return err
				}
				if *page > 0 {
					if err := app.List.SetPage(ctx, *page); err != nil {
						return err
					}
				}
				return printList(app, *showAll)
			})
		},
	}
}

func printList(app *bootstrap.App, showAll bool) error {
	snap := app.List.Snapshot()
	if snap.Err != nil {
		return snap.Err
	}
	records := snap.VisibleRecords()
	if showAll {
		records = snap.Records
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tVENDOR\tCATEGORY\tAMOUNT")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			formatDate(rec.ExpenseDate),
			orDash(rec.Vendor),
			orDash(rec.Category),
			formatAmount(rec.Amount, rec.Currency),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("page %d, %d total", snap.Page+1, snap.Total)
	if snap.HasNext() {
		fmt.Printf(", more available (--page %d)", snap.Page+1)
	}
	fmt.Println()
	return nil
}

func (r *rootCommand) showCommand() *ff.Command {
	fs := ff.NewFlagSet("show").SetParent(r.flags)
	return &ff.Command{
		Name:      "show",
		Usage:     "receipt-scanner show ID",
		ShortHelp: "show one receipt in full",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("show expects exactly one receipt id")
			}
			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				rec, err := app.Detail.Fetch(ctx, args[0])
				if err != nil {
					return err
				}
				printReceipt(rec)
				return nil
			})
		},
	}
}

func printReceipt(rec domain.Receipt) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", rec.ID)
	fmt.Fprintf(w, "Vendor\t%s\n", orDash(rec.Vendor))
	fmt.Fprintf(w, "Amount\t%s\n", formatAmount(rec.Amount, rec.Currency))
	fmt.Fprintf(w, "Category\t%s\n", orDash(rec.Category))
	fmt.Fprintf(w, "Date\t%s\n", formatDate(rec.ExpenseDate))
	if pm := rec.PaymentMethod(); pm != "" {
		fmt.Fprintf(w, "Payment\t%s\n", pm)
	}
	if subtotal, ok := rec.Subtotal(); ok {
		fmt.Fprintf(w, "Subtotal\t%.2f\n", subtotal)
	}
	if tax, ok := rec.Tax(); ok {
		fmt.Fprintf(w, "Tax\t%.2f\n", tax)
	}
	if rec.Deleted {
		fmt.Fprintf(w, "Deleted\tyes\n")
	}
	if msg := rec.ExtractionError(); msg != "" {
		fmt.Fprintf(w, "Extraction error\t%s\n", msg)
	}
	w.Flush()

	if len(rec.Items) > 0 {
		fmt.Println()
		iw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(iw, "QTY\tITEM\tCATEGORY\tUNIT\tTOTAL")
		for _, it := range rec.Items {
			fmt.Fprintf(iw, "%d\t%s\t%s\t%s\t%s\n",
				it.Quantity,
				it.Name,
				valueOrDash(it.Category),
				formatAmount(it.UnitPrice, ""),
				formatAmount(it.TotalPrice, ""),
			)
		}
		iw.Flush()
	}
}

func (r *rootCommand) uploadCommand() *ff.Command {
	fs := ff.NewFlagSet("upload").SetParent(r.flags)
	return &ff.Command{
		Name:      "upload",
		Usage:     "receipt-scanner upload FILE",
		ShortHelp: "upload a receipt image or PDF for extraction",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("upload expects exactly one file path")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				rec, err := app.Mutation.Upload(ctx, f.Name(), f)
				if err != nil {
					return err
				}
				fmt.Println("uploaded:")
				printReceipt(rec)
				return nil
			})
		},
	}
}

func (r *rootCommand) editCommand() *ff.Command {
	fs := ff.NewFlagSet("edit").SetParent(r.flags)
	// String flags so an explicit "0" is distinguishable from "not given".
	vendor := fs.StringLong("vendor", "", "new vendor name")
	amount := fs.StringLong("amount", "", "new total amount")
	currency := fs.StringLong("currency", "", "new ISO 4217 currency code")
	category := fs.StringLong("category", "", "new category")
	date := fs.StringLong("date", "", "new expense date, YYYY-MM-DD")

	return &ff.Command{
		Name:      "edit",
		Usage:     "receipt-scanner edit ID [FLAGS]",
		ShortHelp: "update fields of a receipt",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("edit expects exactly one receipt id")
			}
			var patch domain.ReceiptPatch
			if *vendor != "" {
				patch.SetVendor(*vendor)
			}
			if *amount != "" {
				v, err := strconv.ParseFloat(*amount, 64)
				if err != nil {
					return fmt.Errorf("parse --amount: %w", err)
				}
				patch.SetAmount(v)
			}
			if *currency != "" {
				patch.SetCurrency(strings.ToUpper(*currency))
			}
			if *category != "" {
				patch.SetCategory(*category)
			}
			if *date != "" {
				t, err := time.Parse("2006-01-02", *date)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
				patch.SetExpenseDate(t)
			}
			if patch.IsEmpty() {
				return errors.New("edit needs at least one field flag")
			}

			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				rec, err := app.Mutation.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				fmt.Println("updated:")
				printReceipt(rec)
				return nil
			})
		},
	}
}

func (r *rootCommand) deleteCommand() *ff.Command {
	fs := ff.NewFlagSet("delete").SetParent(r.flags)
	return &ff.Command{
		Name:      "delete",
		Usage:     "receipt-scanner delete ID",
		ShortHelp: "soft-delete a receipt",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("delete expects exactly one receipt id")
			}
			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Mutation.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (r *rootCommand) exportCommand() *ff.Command {
	fs := ff.NewFlagSet("export").SetParent(r.flags)
	filters := registerFilterFlags(fs)
	output := fs.StringLong("output", "receipts.xlsx", "output file path")

	return &ff.Command{
		Name:      "export",
		Usage:     "receipt-scanner export [FLAGS]",
		ShortHelp: "export receipts matching a filter to an XLSX workbook",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}
			return r.withApp(ctx, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.List.SetFilter(ctx, filter); err != nil {
					return err
				}

				// Walk every page so the workbook covers the whole filter
				// result, not just the first page.
				var records []domain.Receipt
				for {
					snap := app.List.Snapshot()
					if snap.Err != nil {
						return snap.Err
					}
					records = append(records, snap.VisibleRecords()...)
					if !snap.HasNext() {
						break
					}
					if err := app.List.SetPage(ctx, snap.Page+1); err != nil {
						return err
					}
				}

				data, err := app.Export.ReceiptsXLSX(records)
				if err != nil {
					return err
				}
				if err := os.WriteFile(*output, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %d receipts to %s\n", len(records), *output)
				return nil
			})
		},
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatAmount(v *float64, currency string) string {
	if v == nil {
		return "-"
	}
	if currency == "" {
		return strconv.FormatFloat(*v, 'f', 2, 64)
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(*v, 'f', 2, 64), currency)
}
