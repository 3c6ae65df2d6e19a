package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/maltedev/offer-resolver/internal/api"
	"github.com/maltedev/offer-resolver/internal/app"
	"github.com/maltedev/offer-resolver/internal/config"
	"github.com/maltedev/offer-resolver/internal/logger"
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/resolver"
	"github.com/spf13/cobra"
)

type options struct {
	appID     string
	secret    string
	asJSON    bool
	debug     bool
	timeout   time.Duration
	noBrowser bool
	workers   int
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "resolve <url> [url...]",
		Short: "Resolve marketplace product links into captions",
		Long: `Resolves a Shopee, Magalu, Mercado Livre or Amazon product link (short links included)
into a normalized product record and prints its caption.

Example:
  resolve https://amzn.to/3xyz
  resolve --json --debug https://produto.mercadolivre.com.br/MLB-123
  resolve --app-id 123 --secret s3cr3t https://shopee.com.br/product/1/2
  resolve --workers 2 https://amzn.to/a https://amzn.to/b https://amzn.to/c`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.timeout > 0 {
				cfg.Resolver.Deadline = opts.timeout
			}
			if opts.noBrowser {
				cfg.Browser.Enabled = false
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, "text")

			a, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			return run(cmd.Context(), cmd.OutOrStdout(), a.Resolver, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.appID, "app-id", "", "Shopee affiliate app id (overrides SHOPEE_APP_ID)")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Shopee affiliate secret (overrides SHOPEE_SECRET)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full record as JSON")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Include extraction attempts")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall resolution deadline (default from RESOLVER_DEADLINE)")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Skip the rendered page strategy")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", resolver.DefaultBatchWorkers, "Concurrent resolutions when several URLs are given")
	cmd.MarkFlagsRequiredTogether("app-id", "secret")

	return cmd
}

// run resolves the URLs and prints one block per URL in input order. Captions are printed
// even when a resolution ends with a terminal error; the first such error is returned.
func run(ctx context.Context, out io.Writer, r api.Resolver, opts *options, urls []string) error {
	var creds *models.Credentials
	if opts.appID != "" {
		creds = &models.Credentials{AppID: opts.appID, Secret: opts.secret}
	}

	var results []resolver.BatchResult
	if len(urls) == 1 {
		rec, err := r.Resolve(ctx, models.ProductQuery{RawURL: urls[0], Credentials: creds})
		results = []resolver.BatchResult{{Record: rec, Err: err}}
	} else {
		queries := make([]models.ProductQuery, len(urls))
		for i, u := range urls {
			queries[i] = models.ProductQuery{RawURL: u, Credentials: creds}
		}
		results = r.ResolveBatch(ctx, queries, opts.workers)
	}

	if opts.asJSON {
		return printJSON(out, results, opts.debug)
	}

	var firstErr error
	for i, res := range results {
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
		if res.Record == nil {
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		printCaption(out, res.Record, opts.debug)
	}
	return firstErr
}

func printCaption(out io.Writer, rec *models.ProductRecord, debug bool) {
	fmt.Fprintln(out, rec.Caption)
	if !debug {
		return
	}
	fmt.Fprintf(out, "\nstatus: %s\n", rec.Status)
	for _, a := range rec.Attempts {
		fmt.Fprintf(out, "  %-14s %-8s %6dms %s\n", a.Strategy, a.Outcome, a.Duration.Milliseconds(), a.Reason)
	}
}

func printJSON(out io.Writer, results []resolver.BatchResult, debug bool) error {
	var firstErr error
	resps := make([]api.ResolveResponse, 0, len(results))
	for _, res := range results {
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
		if res.Record == nil {
			continue
		}
		resp := api.ResolveResponse{ProductRecord: res.Record}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		if debug {
			resp.Attempts = res.Record.Attempts
		}
		resps = append(resps, resp)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	var err error
	if len(resps) == 1 {
		err = enc.Encode(resps[0])
	} else {
		err = enc.Encode(resps)
	}
	if err != nil {
		return err
	}
	return firstErr
}
