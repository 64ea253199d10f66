package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/dividends"
	"github.com/ternarybob/sectorscan/internal/services/enrich"
	"github.com/ternarybob/sectorscan/internal/services/ingest"
	"github.com/ternarybob/sectorscan/internal/services/report"
	"github.com/ternarybob/sectorscan/internal/services/returns"
	"github.com/ternarybob/sectorscan/internal/services/scheduler"
	"github.com/ternarybob/sectorscan/internal/services/screener"
	"github.com/ternarybob/sectorscan/internal/services/sectors"
	"github.com/ternarybob/sectorscan/internal/storage"
	"github.com/ternarybob/sectorscan/internal/yahoo"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

const usage = `Usage: sectorscan [flags] <command>

Commands:
  ingest    Load exchange listing files into the listing store
  enrich    Fetch company metadata for unprocessed listings
  screen    Rank the selected universe against sector benchmark ETFs
  report    Print the flat candidate report with finviz links
  sectors   Print per-sector summaries and performance tables
  serve     Run the screen pipeline on the configured cron schedule

Flags (all commands):
`

var (
	configFiles  configPaths
	periodFlag   = flag.String("period", "", "Lookback period (overrides config)")
	maxPriceFlag = flag.Float64("max-price", -1, "Price cap, 0 disables (overrides config)")
	outperfFlag  = flag.Bool("outperforming", false, "report/sectors: only candidates beating their ETF")
	dividendFlag = flag.Bool("dividends", false, "report/sectors: only candidates that pay a dividend")
	symbolsFlag  = flag.String("symbols", "", "screen/sectors: comma-separated symbols instead of the stored universe")
	limitFlag    = flag.Int("limit", 0, "enrich: max listings to process this run, 0 = all")
	forceFlag    = flag.Bool("force", false, "screen: refresh dividend status even if already checked today")
	showVersion  = flag.Bool("version", false, "Print version information")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("SectorScan version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	command := flag.Arg(0)
	if command == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("sectorscan.toml"); err == nil {
			configFiles = append(configFiles, "sectorscan.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *periodFlag, *maxPriceFlag)

	logger = common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("period", config.Screen.Period).
		Msg("Resolved configuration")

	if err := run(command); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("Command failed")
		os.Exit(1)
	}
}

// app bundles the wired services for one command invocation.
type app struct {
	storage   interfaces.StorageManager
	sectorMap models.SectorMap
	ingest    *ingest.Service
	enrich    *enrich.Service
	screener  *screener.Service
	sectors   *sectors.Service
	report    *report.Service
	returns   *returns.Service
	clock     common.Clock
}

func newApp() (*app, error) {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	source := yahoo.NewClient(
		yahoo.WithBaseURL(config.Provider.BaseURL),
		yahoo.WithHTTPClient(&http.Client{Timeout: config.Provider.RequestTimeout}),
		yahoo.WithRateLimit(config.Provider.RateLimit),
		yahoo.WithLogger(logger),
	)

	clock := common.SystemClock()
	sectorMap := models.DefaultSectorMap().Merge(config.Screen.SectorETFs)

	returnsSvc := returns.NewService(source, storageManager.ReturnCacheStorage(), storageManager.HistoryStorage(), clock, logger)
	dividendsSvc := dividends.NewService(source, storageManager.TickerStorage(), clock, logger)

	return &app{
		storage:   storageManager,
		sectorMap: sectorMap,
		ingest:    ingest.NewService(storageManager.ListingStorage(), clock, logger),
		enrich:    enrich.NewService(source, storageManager.ListingStorage(), storageManager.TickerStorage(), clock, logger),
		screener:  screener.NewService(storageManager.TickerStorage(), storageManager.CandidateStorage(), returnsSvc, dividendsSvc, sectorMap, config.Screen.MaxPrice, *forceFlag, clock, logger),
		sectors:   sectors.NewService(sectorMap, logger),
		report:    report.NewService(storageManager.CandidateStorage(), returnsSvc, logger),
		returns:   returnsSvc,
		clock:     clock,
	}, nil
}

func run(command string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.storage.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "ingest":
		return runIngest(ctx, application)
	case "enrich":
		return runEnrich(ctx, application)
	case "screen":
		return runScreen(ctx, application)
	case "report":
		return runReport(ctx, application)
	case "sectors":
		return runSectors(ctx, application)
	case "serve":
		return runServe(ctx, application)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIngest(ctx context.Context, app *app) error {
	count, err := app.ingest.Run(ctx, config.Ingest.NasdaqFile, config.Ingest.OtherFile)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d listings\n", count)
	return nil
}

func runEnrich(ctx context.Context, app *app) error {
	result, err := app.enrich.Run(ctx, *limitFlag)
	if err != nil {
		return err
	}
	fmt.Printf("Enriched %d symbols (%d failed, will retry)\n", result.Processed, result.Failed)
	return nil
}

func runScreen(ctx context.Context, app *app) error {
	symbols, err := screenUniverse(ctx, app)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to screen; run ingest and enrich first or pass -symbols")
	}

	rows, err := app.screener.Rank(ctx, symbols, config.Screen.Period)
	if err != nil {
		return err
	}

	printCandidates(rows)
	return nil
}

// screenUniverse resolves the symbol list for a screen run: an explicit
// -symbols flag wins, otherwise the stored universe filtered by the screen
// config.
func screenUniverse(ctx context.Context, app *app) ([]string, error) {
	if *symbolsFlag != "" {
		return splitSymbols(*symbolsFlag), nil
	}

	tickers, err := app.storage.TickerStorage().List(ctx, &interfaces.TickerListOptions{
		MinMarketCap:   config.Screen.MinMarketCap,
		OptionableOnly: config.Screen.OptionableOnly,
		Limit:          config.Screen.Limit,
	})
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		symbols = append(symbols, t.Symbol)
	}
	return symbols, nil
}

func runReport(ctx context.Context, app *app) error {
	rep, err := app.report.Build(ctx, candidateFilter())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSECTOR\tETF\tRETURN%\tETF%\tDIFF%\tPRICE\tETF PRICE\tDIV\tDAYS")
	for _, row := range rep.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
			row.Symbol, row.Sector, row.SectorETF,
			row.ReturnPct, row.ETFReturnPct, row.DiffPct,
			formatPrice(row.TickerPrice), formatPrice(row.ETFPrice),
			formatBool(row.HasDividend), formatDays(row.DaysUntilDividend))
	}
	w.Flush()

	if len(rep.Links) > 0 {
		fmt.Println()
		for _, link := range rep.Links {
			fmt.Println(link)
		}
	}
	return nil
}

func runSectors(ctx context.Context, app *app) error {
	candidates, err := app.storage.CandidateStorage().List(ctx, models.CandidateFilter{})
	if err != nil {
		return err
	}

	summaries := app.sectors.Aggregate(candidates, candidateFilter())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTOR\tETF\tCOUNT\tAVG RETURN%\tDIV COUNT\tAVG DAYS TO DIV\tSYMBOLS")
	for _, sum := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%d\t%s\t%s\n",
			sum.Sector, sum.SectorETF, sum.Count, sum.AvgReturnPct,
			sum.DividendCount, formatAvgDays(sum.AvgDaysToDividend),
			strings.Join(sum.Symbols, ","))
	}
	w.Flush()

	symbols := app.sectorMap.ETFs()
	if *symbolsFlag != "" {
		symbols = splitSymbols(*symbolsFlag)
	}
	printPerformance(ctx, app, symbols)
	return nil
}

func printPerformance(ctx context.Context, app *app, symbols []string) {
	table := sectors.PerformanceTable(ctx, app.returns, app.clock, symbols)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "SYMBOL")
	for _, win := range sectors.PerformanceWindows {
		fmt.Fprintf(w, "\t%s%%", strings.ToUpper(win.Name))
	}
	fmt.Fprintln(w, "\tYTD%")
	for _, row := range table {
		fmt.Fprint(w, row.Symbol)
		for _, win := range sectors.PerformanceWindows {
			fmt.Fprintf(w, "\t%s", formatChange(row.Changes[win.Name]))
		}
		fmt.Fprintf(w, "\t%s\n", formatChange(row.Changes["YTD"]))
	}
	w.Flush()
}

func runServe(ctx context.Context, app *app) error {
	if !config.Schedule.Enabled {
		return fmt.Errorf("schedule is disabled; set [schedule] enabled = true")
	}

	sched := scheduler.NewService(func() error {
		symbols, err := screenUniverse(ctx, app)
		if err != nil {
			return err
		}
		_, err = app.screener.Rank(ctx, symbols, config.Screen.Period)
		return err
	}, logger)

	if err := sched.Start(config.Schedule.Spec); err != nil {
		return err
	}
	defer sched.Stop()

	logger.Info().Str("cron_spec", config.Schedule.Spec).Msg("Waiting for scheduled runs, Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

func candidateFilter() models.CandidateFilter {
	return models.CandidateFilter{
		OnlyOutperforming: *outperfFlag,
		OnlyWithDividends: *dividendFlag,
	}
}

func printCandidates(rows []models.CandidateRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSECTOR\tETF\tRETURN%\tETF%\tOUTPERF\tDIV\tDAYS")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\t%s\n",
			row.Symbol, row.Sector, row.SectorETF,
			row.ReturnPct, row.ETFReturnPct,
			formatBool(row.Outperforming), formatBool(row.HasDividend),
			formatDays(row.DaysUntilDividend))
	}
	w.Flush()
}

func splitSymbols(list string) []string {
	parts := strings.Split(list, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatChange(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatDays(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatAvgDays(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
