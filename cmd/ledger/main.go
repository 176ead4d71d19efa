package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/ledger-replay/internal/config"
	"github.com/sheikh-saqib/ledger-replay/internal/events"
	"github.com/sheikh-saqib/ledger-replay/internal/events/kafka"
	"github.com/sheikh-saqib/ledger-replay/internal/events/redis"
	"github.com/sheikh-saqib/ledger-replay/internal/ingest/csvreader"
	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/ledger"
	"github.com/sheikh-saqib/ledger-replay/internal/logging"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
	"github.com/sheikh-saqib/ledger-replay/internal/report"
	"github.com/sheikh-saqib/ledger-replay/internal/storage/memory"
	"github.com/sheikh-saqib/ledger-replay/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	flags := flag.NewFlagSet("ledger", flag.ContinueOnError)
	flags.SetOutput(stderr)
	format := flags.String("format", string(cfg.Report), "report format: csv or table")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: ledger [-format csv|table] <transactions.csv>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	reportFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	path := flags.Arg(0)
	accounts, err := replay(ctx, path, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	out := bufio.NewWriter(stdout)
	if err := report.Write(out, reportFormat, accounts); err != nil {
		fmt.Fprintf(stderr, "error: write report: %v\n", err)
		return 1
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintf(stderr, "error: write report: %v\n", err)
		return 1
	}

	if err := export(ctx, cfg.Sinks, accounts, logger); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func replay(ctx context.Context, path string, logger *zap.Logger) ([]models.ClientAccount, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := csvreader.NewReader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l := ledger.NewLedger(memory.NewMemoryDepositStore(), logger.With(zap.String("input", path)))
	if _, err := l.Process(ctx, reader); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stats := l.Stats()
	logger.Info("replay complete",
		zap.String("input", path),
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
	)
	return l.Accounts(), nil
}

type namedSink struct {
	name string
	sink interfaces.SnapshotSink
}

// export sends the accounts to every configured sink under a fresh run id.
func export(ctx context.Context, cfg config.SinkConfig, accounts []models.ClientAccount, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sinks, closeSinks, err := openSinks(ctx, cfg)
	defer closeSinks()
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		return nil
	}

	runID := uuid.NewString()
	for _, s := range sinks {
		if err := s.sink.Export(ctx, runID, accounts); err != nil {
			return fmt.Errorf("export to %s: %w", s.name, err)
		}
		logger.Info("snapshot exported", zap.String("sink", s.name), zap.String("run_id", runID), zap.Int("accounts", len(accounts)))
	}
	return nil
}

func openSinks(ctx context.Context, cfg config.SinkConfig) ([]namedSink, func(), error) {
	var (
		sinks   []namedSink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, db.Close)

		store := postgres.NewSnapshotStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, closeAll, fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, namedSink{name: "postgres", sink: store})
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers)
		closers = append(closers, pub.Close)
		sinks = append(sinks, namedSink{name: "kafka", sink: events.NewSink(pub, cfg.KafkaTopic)})
	}

	if cfg.RedisAddr != "" {
		pub := redis.NewPublisher(cfg.RedisAddr, cfg.RedisPassword)
		closers = append(closers, pub.Close)
		sinks = append(sinks, namedSink{name: "redis", sink: events.NewSink(pub, cfg.RedisChannel)})
	}

	return sinks, closeAll, nil
}
