// Command dbdiff compares the schema and row counts of two Postgres databases.
//
//	dbdiff -source "$PROD_DB" -target "$STAGING_DB" [-schema public] [-json]
//
// The exit status is 1 when the databases differ.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"vastra/internal/dbdiff"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	source := flag.String("source", os.Getenv("DBDIFF_SOURCE"), "source database DSN")
	target := flag.String("target", os.Getenv("DBDIFF_TARGET"), "target database DSN")
	schema := flag.String("schema", "public", "schema to compare")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar().With("run", uuid.NewString())
	defer logger.Sync()

	if *source == "" || *target == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	src, err := snapshot(ctx, *source, *schema)
	if err != nil {
		logger.Fatalw("load source", "error", err)
	}
	dst, err := snapshot(ctx, *target, *schema)
	if err != nil {
		logger.Fatalw("load target", "error", err)
	}
	logger.Infow("snapshots loaded", "schema", *schema, "source_tables", len(src), "target_tables", len(dst))

	report := dbdiff.Diff(src, dst)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Fatal(err)
		}
	} else {
		printReport(os.Stdout, report)
	}

	if !report.Empty() {
		os.Exit(1)
	}
}

func snapshot(ctx context.Context, dsn, schema string) (dbdiff.Snapshot, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return dbdiff.Load(ctx, pool, schema)
}

func printReport(w io.Writer, r dbdiff.Report) {
	if r.Empty() {
		fmt.Fprintln(w, "no differences")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, t := range r.MissingInTarget {
		fmt.Fprintf(tw, "missing in target\t%s\n", t)
	}
	for _, t := range r.MissingInSource {
		fmt.Fprintf(tw, "missing in source\t%s\n", t)
	}
	for _, c := range r.Columns {
		fmt.Fprintf(tw, "column\t%s.%s\t%s\t%s\n", c.Table, c.Column, orDash(c.Source), orDash(c.Target))
	}
	for _, c := range r.Counts {
		fmt.Fprintf(tw, "rows\t%s\t%d\t%d\t%+d\n", c.Table, c.Source, c.Target, c.Delta)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
