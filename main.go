package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/asaidimu/go-sieve/config"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/record"
	"github.com/asaidimu/go-sieve/core/search"
	"github.com/asaidimu/go-sieve/core/sorting"
	"github.com/asaidimu/go-sieve/core/worker"
	"github.com/asaidimu/go-sieve/metrics"
	"github.com/asaidimu/go-sieve/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

const seedSQL = `
CREATE TABLE screener (
	symbol TEXT,
	name TEXT,
	sector TEXT,
	price REAL,
	marketCap REAL,
	sma50 REAL,
	grahamNumber REAL,
	earningsDate DATETIME
);
INSERT INTO screener VALUES
	('AAPL', 'Apple Inc', 'Technology', 189.5, 2.9e12, 180.2, 25.1, '2024-03-12 00:00:00'),
	('MSFT', 'Microsoft Corp', 'Technology', 415.1, 3.1e12, 400.0, 120.4, '2024-04-25 00:00:00'),
	('F', 'Ford Motor', 'Consumer Cyclical', 12.1, 4.8e10, 12.9, 18.3, '2024-03-14 00:00:00'),
	('JNJ', 'Johnson & Johnson', 'Healthcare', 158.3, 3.8e11, 155.7, 140.2, NULL);
`

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("SIEVE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			log.Printf("Error closing database connection: %v", cErr)
		}
	}()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, seedSQL); err != nil {
		log.Fatalf("Failed to seed screener table: %v", err)
	}

	rows, err := sqlite.NewLoader(db, logger).LoadRecords(ctx, "screener")
	if err != nil {
		log.Fatalf("Failed to load screener rows: %v", err)
	}
	fmt.Printf("Loaded %d screener rows.\n", len(rows))

	registry := prometheus.NewRegistry()
	host, err := worker.NewHost(logger, &worker.HostOptions{
		MaxInFlight: cfg.Host.MaxInFlight,
		Evaluator:   &filter.EvaluatorOptions{RankField: cfg.Filter.RankField},
		Matcher:     &search.MatcherOptions{Threshold: cfg.Search.Threshold},
		Metrics:     metrics.New(registry),
	})
	if err != nil {
		log.Fatalf("Failed to start host: %v", err)
	}
	defer host.Close()

	host.RegisterSubscription(worker.RegisterSubscriptionOptions{
		Event: worker.RuleWarning,
		Callback: func(ctx context.Context, event worker.Event) error {
			fmt.Printf("Rule warning for request %s: %s %s\n", event.RequestID, event.Warning.Code, event.Warning.Detail)
			return nil
		},
	})

	// Filter through the wire format, the way a caller on another thread would.
	payload, err := worker.Marshal(worker.FilterRequest{
		StockScreenerData: rows,
		RuleOfList: []filter.Rule{
			{Name: "sector", Value: []string{"Technology", "Healthcare"}},
			{Name: "sma50", Value: []string{"Price above SMA50"}},
			{Name: "price", Condition: filter.ConditionUnder, Value: "400"},
		},
	})
	if err != nil {
		log.Fatalf("Failed to encode filter request: %v", err)
	}
	message, err := worker.Marshal(worker.Envelope{Unit: worker.UnitFilter, ID: "filter-1", Payload: payload})
	if err != nil {
		log.Fatalf("Failed to encode envelope: %v", err)
	}
	fmt.Printf("Filter reply: %s\n", <-host.Post(ctx, message))

	sorted, err := host.Sort(ctx, &worker.SortRequest{
		RawData:    rows,
		SortOrders: sorting.State{"price": sorting.OrderAsc},
	})
	if err != nil {
		log.Fatalf("Sort request failed: %v", err)
	}
	fmt.Printf("Sorted by price (%s):", sorted.SortOrders["price"])
	printSymbols(sorted.SortedData)

	found, err := host.Search(ctx, &worker.SearchRequest{RawData: rows, InputValue: "micro"})
	if err != nil {
		log.Fatalf("Search request failed: %v", err)
	}
	fmt.Print("Search 'micro':")
	printSymbols(found.Output)

	families, err := registry.Gather()
	if err != nil {
		log.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		fmt.Printf("Metric %s: %d series\n", mf.GetName(), len(mf.GetMetric()))
	}
}

func printSymbols(records []record.Record) {
	for _, r := range records {
		fmt.Printf(" %s", r.Get("symbol"))
	}
	fmt.Println()
}
