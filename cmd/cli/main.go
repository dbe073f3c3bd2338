package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"renewables-pnl/internal/analysis"
	"renewables-pnl/internal/config"
	"renewables-pnl/internal/data"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/normalize"
	"renewables-pnl/internal/refresh"
	"renewables-pnl/internal/service"
	"renewables-pnl/internal/settlement"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "settle":
		cmdSettle(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "merge":
		cmdMerge(os.Args[2:])
	case "worst":
		cmdWorst(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli settle --config config.yaml --data payload.json --kind timeseries [--hub hub.json] --out results/ledger.csv")
	fmt.Println("  cli import --report wind_report.xlsx --asset BKII --ppa-price 27.5 --out results/history.json")
	fmt.Println("  cli merge  --config config.yaml --history results/history.json")
	fmt.Println("  cli worst  --config config.yaml --data payload.json --kind vendor [--hub hub.json] [--now 2026-03-10] [--top 10]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --kind is timeseries (raw API body) or vendor (saved vendor batch)")
	fmt.Println("  - --hub is a saved Grid Status location query used to reconcile hub prices")
	fmt.Println("  - merge fills only dates the configured snapshot store does not already hold")
}

type settleFlags struct {
	cfgPath  *string
	dataPath *string
	kind     *string
	hubPath  *string
	hubName  *string
	market   *string
}

func addSettleFlags(fs *flag.FlagSet) settleFlags {
	return settleFlags{
		cfgPath:  fs.String("config", "", "Path to YAML config"),
		dataPath: fs.String("data", "", "Path to a saved source payload"),
		kind:     fs.String("kind", "timeseries", "Payload kind: timeseries | vendor"),
		hubPath:  fs.String("hub", "", "Optional: Grid Status JSON with hub prices"),
		hubName:  fs.String("hub-location", "", "Optional: hub name the --hub prices belong to (default: their location)"),
		market:   fs.String("market", "", "Optional: market timezone of the payload (default: config timezone)"),
	}
}

// settleFile loads the config and a saved payload and runs the settlement pipeline on it.
func settleFile(f settleFlags) (*config.Config, *service.Service, *settlement.Result, normalize.Stats) {
	if *f.cfgPath == "" || *f.dataPath == "" {
		fmt.Println("--config and --data are required")
		os.Exit(2)
	}
	cfg, err := config.Load(*f.cfgPath)
	if err != nil {
		panic(err)
	}
	// The CLI never touches the configured snapshot store.
	cfg.Storage.Kind = "memory"
	cfg.Storage.ClickHouseAddr = ""
	logger.InitLoggerTo(os.Stderr, cfg.LogLevel)

	tz := *f.market
	if tz == "" {
		tz = cfg.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		panic(err)
	}

	var collected refresh.Collected
	switch *f.kind {
	case "timeseries":
		raw, err := os.ReadFile(*f.dataPath)
		if err != nil {
			panic(err)
		}
		collected.Records, collected.Stats = normalize.DecodeTimeSeries(raw, "file", loc)
	case "vendor":
		batch, err := data.LoadVendorBatchJSON(*f.dataPath)
		if err != nil {
			panic(err)
		}
		collected.Records, collected.Stats = normalize.Vendor(batch, "file", loc)
	default:
		panic(fmt.Errorf("unsupported payload kind: %q", *f.kind))
	}
	if collected.Stats.PayloadError != "" {
		panic(fmt.Errorf("%w: %s", refresh.ErrPayload, collected.Stats.PayloadError))
	}

	if *f.hubPath != "" {
		resp, err := data.LoadGridStatusJSON(*f.hubPath)
		if err != nil {
			panic(err)
		}
		collected.Prices = normalize.GridStatusPrices(resp, "")
		if *f.hubName != "" {
			for i := range collected.Prices {
				collected.Prices[i].Location = *f.hubName
			}
		}
	}

	svc, err := service.New(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	res, err := svc.Pipeline().Process(collected)
	if err != nil {
		panic(err)
	}
	return cfg, svc, res, collected.Stats
}

func cmdSettle(args []string) {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	f := addSettleFlags(fs)
	outPath := fs.String("out", "results/ledger.csv", "Output CSV path")
	_ = fs.Parse(args)

	_, svc, res, stats := settleFile(f)
	defer svc.Close()

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := settlement.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d rows to %s (dropped %d, empty %d)\n", len(res.Ledger), *outPath, stats.Dropped, stats.Empty)
	fmt.Printf("Total PnL=$%.2f (excluding %s: $%.2f)\n",
		res.TotalPnL, model.UnknownAsset, res.TotalPnL-res.ByAsset[model.UnknownAsset])
	keys := make([]string, 0, len(res.ByAsset))
	for k := range res.ByAsset {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-12s $%.2f\n", k, res.ByAsset[k])
	}
	fmt.Printf("Hub prices: %v\n", res.HubSources)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	reportPath := fs.String("report", "", "Path to the monthly wind units report (.xlsx)")
	asset := fs.String("asset", "", "Asset key the report belongs to")
	ppaPrice := fs.Float64("ppa-price", 0, "Fixed PPA price ($/MWh) used when the report omits the fixed leg")
	outPath := fs.String("out", "results/history.json", "Output JSON path")
	_ = fs.Parse(args)

	if *reportPath == "" || *asset == "" {
		fmt.Println("--report and --asset are required")
		os.Exit(2)
	}

	histories, stats, err := data.LoadWindReport(data.WindReport{Path: *reportPath, Asset: *asset, PPAPrice: *ppaPrice})
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := data.SaveHistoryJSON(*outPath, filepath.Base(*reportPath), histories); err != nil {
		panic(err)
	}

	h := histories[*asset]
	fmt.Printf("Imported %d days (%d five-minute rows, %d skipped) into %s\n", stats.Days, stats.FiveMinRows, stats.Skipped, *outPath)
	fmt.Printf("Total PnL=$%.2f Volume=%.1f MWh\n", h.Totals().PnL, h.Totals().VolumeMWh)
}

func cmdMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	historyPath := fs.String("history", "", "History file (.json or .xlsx) to merge")
	asset := fs.String("asset", "", "Asset key, required for .xlsx reports")
	ppaPrice := fs.Float64("ppa-price", 0, "Fixed PPA price for .xlsx reports")
	_ = fs.Parse(args)

	if *cfgPath == "" || *historyPath == "" {
		fmt.Println("--config and --history are required")
		os.Exit(2)
	}
	if err := config.LoadEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.LoadUnchecked(*cfgPath)
	if err != nil {
		panic(err)
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	logger.InitLoggerTo(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	svc, err := service.New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer svc.Close()
	if err := svc.Coordinator.Restore(ctx); err != nil {
		panic(err)
	}

	histories, err := service.LoadHistorical(config.HistoricalImport{Asset: *asset, Path: *historyPath, PPAPrice: *ppaPrice})
	if err != nil {
		panic(err)
	}
	prev := svc.State.Snapshot().Combined
	snap := svc.Coordinator.ApplyHistorical(ctx, histories)

	fmt.Printf("Merged %d asset histories into %s store (key %s)\n", len(histories), cfg.Storage.Kind, cfg.Storage.Key)
	fmt.Printf("Combined PnL $%.2f -> $%.2f, days %d -> %d\n",
		prev.Totals().PnL, snap.Combined.Totals().PnL, len(prev.Daily), len(snap.Combined.Daily))
}

func cmdWorst(args []string) {
	fs := flag.NewFlagSet("worst", flag.ExitOnError)
	f := addSettleFlags(fs)
	nowStr := fs.String("now", "", "Optional: evaluate as of this local date (YYYY-MM-DD); default today")
	top := fs.Int("top", 0, "Optional: number of entries to print (default: config top_k)")
	_ = fs.Parse(args)

	cfg, svc, res, _ := settleFile(f)
	defer svc.Close()

	a := svc.WorstAsset()
	now := time.Now()
	if *nowStr != "" {
		d, err := time.ParseInLocation(model.DayLayout, *nowStr, a.Location)
		if err != nil {
			panic(fmt.Errorf("--now must be YYYY-MM-DD: %w", err))
		}
		now = d.Add(12 * time.Hour)
	}
	k := *top
	if k <= 0 {
		k = cfg.WorstBasis.TopK
	}

	list := analysis.WorstBasis{Asset: a, MaxEntries: cfg.WorstBasis.MaxEntries}.Build(res.Results, now)
	entries := analysis.TopK(list, k)

	fmt.Printf("Worst basis intervals for %s on %s\n", a.Key, list.Date)
	fmt.Printf("%-4s %-20s %-10s %-10s %-12s\n", "rank", "interval", "basis", "volume", "impact$")
	for i, e := range entries {
		fmt.Printf("%-4d %-20s %-10.2f %-10.3f %-12.2f\n",
			i+1, a.In(e.IntervalStart).Format("2006-01-02 15:04"), e.Basis, e.VolumeMWh, e.BasisPnLImpact)
	}
	fmt.Printf("Recoverable by excluding these %d intervals: $%.2f\n", len(entries), analysis.RecoverableImpact(entries))
	if len(entries) == 0 {
		fmt.Println("(no intervals with volume for that day)")
	}
}
