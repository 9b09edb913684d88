/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command catalogctl inspects and maintains a book catalog deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/suparena/bookcatalog"
	"github.com/suparena/bookcatalog/activitylog"
	"github.com/suparena/bookcatalog/app"
	"github.com/suparena/bookcatalog/books"
	"github.com/suparena/bookcatalog/config"
	"github.com/suparena/bookcatalog/logging"
	"github.com/suparena/bookcatalog/storagemodels"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "", "Path to a YAML configuration file")
	envFlag     = flag.String("env-file", "", "Path to a dotenv file (default .env)")
)

const usage = `usage: catalogctl [flags] <command> [args]

commands:
  config                      print the effective configuration
  migrate                     create the relational tables
  reviews <bookID>            list a book's reviews   (-limit, -cursor)
  stats <bookID>              print a book's rating statistics
  book <bookID>               print a book with its first page of reviews
  search                      search books            (-title, -author, -from, -to, -page, -limit, -sort, -order)
  activity                    list activity           (-user | -action, -limit, -cursor)
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag || *vFlag {
		info := bookcatalog.GetVersionInfo()
		fmt.Printf("bookcatalog catalogctl version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "catalogctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, command string, args []string) error {
	cfg, err := config.Load(*configFlag, *envFlag)
	if err != nil {
		return err
	}

	if command == "config" {
		return printConfig(out, cfg)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	if command == "migrate" {
		return migrate(ctx, cfg, logger)
	}

	a, err := app.Open(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "reviews":
		return listReviews(ctx, out, a, args)
	case "stats":
		id, err := oneArg("stats", args)
		if err != nil {
			return err
		}
		stats, err := a.Reviews.GetBookStats(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, stats)
	case "book":
		id, err := oneArg("book", args)
		if err != nil {
			return err
		}
		details, err := a.Books.FindOne(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, details)
	case "search":
		return search(ctx, out, a, args)
	case "activity":
		return listActivity(ctx, out, a, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func oneArg(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s takes exactly one argument", command)
	}
	return args[0], nil
}

func printJSON(out io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printConfig(out io.Writer, cfg *config.Config) error {
	redacted := *cfg
	if redacted.DynamoDB.SecretKey != "" {
		redacted.DynamoDB.SecretKey = "***"
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(redacted); err != nil {
		return err
	}
	return enc.Close()
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	driver := books.DriverSQLite
	if cfg.Database.Kind == config.DatabasePostgres {
		driver = books.DriverPostgres
	}
	db, err := books.OpenDB(driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := books.NewBunRepository(db).Init(ctx); err != nil {
		return err
	}
	logger.Info("books table ready")
	return nil
}

func pageFlags(fs *flag.FlagSet) *storagemodels.PageRequest {
	req := &storagemodels.PageRequest{}
	fs.IntVar(&req.Limit, "limit", 0, "Page size (1-100, 0 for the default)")
	fs.StringVar(&req.Cursor, "cursor", "", "Continuation token from a previous page")
	return req
}

func listReviews(ctx context.Context, out io.Writer, a *app.App, args []string) error {
	fs := flag.NewFlagSet("reviews", flag.ContinueOnError)
	req := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg("reviews", fs.Args())
	if err != nil {
		return err
	}
	page, err := a.Reviews.GetReviews(ctx, id, *req)
	if err != nil {
		return err
	}
	return printJSON(out, page)
}

func search(ctx context.Context, out io.Writer, a *app.App, args []string) error {
	var p books.SearchParams
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.StringVar(&p.Title, "title", "", "Title contains")
	fs.StringVar(&p.Author, "author", "", "Author contains")
	fs.StringVar(&p.FromDate, "from", "", "Earliest publication date")
	fs.StringVar(&p.ToDate, "to", "", "Latest publication date")
	fs.IntVar(&p.Page, "page", 0, "Page number, from 1")
	fs.IntVar(&p.Limit, "limit", 0, "Page size (1-100)")
	fs.StringVar(&p.SortBy, "sort", "", "Sort field: id, title, author, publicationDate, createdAt")
	fs.StringVar(&p.SortOrder, "order", "", "ASC or DESC")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := a.Books.Search(ctx, p)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func listActivity(ctx context.Context, out io.Writer, a *app.App, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	user := fs.String("user", "", "List one user's activity")
	action := fs.String("action", "", "List one action, e.g. CREATE_BOOK")
	req := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		page *storagemodels.Envelope[activitylog.Entry]
		err  error
	)
	switch {
	case *user != "":
		page, err = a.Activity.GetUserActivityLogs(ctx, *user, *req)
	case *action != "":
		page, err = a.Activity.GetActivityLogsByAction(ctx, *action, *req)
	default:
		page, err = a.Activity.GetRecentActivityLogs(ctx, *req)
	}
	if err != nil {
		return err
	}
	return printJSON(out, page)
}
