package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"torn_tools/internal/app"
	"torn_tools/internal/dom"
	"torn_tools/internal/lease"
	"torn_tools/internal/search"

	"github.com/rs/zerolog/log"
)

// openInput opens the named file, or stdin for "-" or an empty name
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// createOutput creates the named file, or returns stdout for an empty name
func createOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func runLease(ctx context.Context, config *app.Config, args []string) error {
	fs := flag.NewFlagSet("lease", flag.ContinueOnError)
	pageURL := fs.String("url", "https://www.torn.com/properties.php#/p=options&tab=offerExtension", "URL the page was saved from")
	target := fs.Int("target", config.LeaseTargetDays, "Target lease length in days")
	rate := fs.Int64("rate", config.LeaseRatePerDay, "Cost per additional day")
	outFile := fs.String("out", "", "Write the filled page to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()

	result, err := lease.Autofill(in, *pageURL, *target, *rate)
	if err != nil {
		return err
	}

	plan := result.Plan
	fmt.Printf("Days remaining: %d\n", plan.DaysRemaining)
	if !plan.NeedsExtension {
		fmt.Printf("Lease already at or above %d days, no extension needed\n", plan.TargetDays)
		return nil
	}
	fmt.Printf("Additional days: %d\n", plan.AdditionalDays)
	fmt.Printf("Cost: %s\n", lease.FormatMoney(plan.Cost))

	if *outFile == "" {
		return nil
	}
	out, err := createOutput(*outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := dom.Render(out, result.Page); err != nil {
		return fmt.Errorf("failed to write filled page: %w", err)
	}
	log.Info().
		Str("path", *outFile).
		Msg("Wrote filled lease extension page")
	return nil
}

func runSearch(ctx context.Context, config *app.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	federalJail := fs.Bool("federal-jail", false, "Hide users in federal jail")
	traveling := fs.Bool("traveling", false, "Hide traveling users")
	rip := fs.Bool("rip", false, "Hide dead users")
	attackButtons := fs.Bool("attack-buttons", true, "Show attack buttons")
	save := fs.Bool("save", false, "Remember the filter toggles")
	outFile := fs.String("out", "", "Write the result table to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := search.LoadFilterState(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to load filter state: %w", err)
	}

	// Only flags given on the command line override the saved toggles
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "federal-jail":
			state.FederalJail = *federalJail
		case "traveling":
			state.Traveling = *traveling
		case "rip":
			state.RIP = *rip
		case "attack-buttons":
			state.ShowAttackButtons = *attackButtons
		}
	})

	if *save {
		if err := search.SaveFilterState(ctx, store, state); err != nil {
			return err
		}
	}

	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()

	doc, err := dom.Parse(in)
	if err != nil {
		return err
	}
	if !search.IsUserListPage(doc) {
		return errors.New("page is not a user search result list")
	}

	users := search.Apply(search.ParseUsers(doc), state)

	out, err := createOutput(*outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	return search.RenderTable(out, users, state)
}
