package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simp-lee/advocates/internal/client"
	"github.com/simp-lee/advocates/internal/config"
	"github.com/simp-lee/advocates/internal/domain"
)

type searchOptions struct {
	server      string
	keyword     string
	sortBy      string
	sortDir     string
	all         bool
	interactive bool
	timeout     time.Duration
	debounce    time.Duration
	pageSize    int
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	o := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a running directory server",
		Long: `Search a running directory server and print the matching advocates.

With --interactive, every input line becomes the new keyword. Lines starting
with ":" are commands: ":sort <column>" toggles sorting, ":more" reveals the
next page and ":quit" exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := loadClientConfig(cmd, root.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				cc.Debounce = o.debounce.String()
			}
			if cmd.Flags().Changed("page-size") {
				cc.PageSize = o.pageSize
			}
			if o.interactive {
				return runInteractive(cmd, o, cc)
			}
			return runSearch(cmd, o, cc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.server, "server", "http://localhost:8080", "base URL of the directory server")
	f.StringVarP(&o.keyword, "keyword", "k", "", "search keyword")
	f.StringVar(&o.sortBy, "sort-by", "", "column to sort by")
	f.StringVar(&o.sortDir, "sort-dir", "asc", "sort direction (asc or desc)")
	f.BoolVar(&o.all, "all", false, "print every match instead of the first page")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "read keywords and commands from stdin")
	f.DurationVar(&o.timeout, "timeout", 15*time.Second, "give up waiting for results after this long")
	f.DurationVar(&o.debounce, "debounce", client.DefaultDebounce, "quiet period after typing before searching")
	f.IntVar(&o.pageSize, "page-size", 0, "rows revealed per page, 0 for all")
	return cmd
}

// loadClientConfig returns the client timings from the config file. A missing
// default config file falls back to built-in defaults.
func loadClientConfig(cmd *cobra.Command, path string) (config.ClientConfig, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg.Client, nil
	}
	if cmd.Flags().Changed("config") {
		return config.ClientConfig{}, fmt.Errorf("load config: %w", err)
	}
	return config.Default().Client, nil
}

// stateFeed wakes a waiter whenever the session state changes. It never
// blocks the session.
type stateFeed chan struct{}

func (f stateFeed) notify(client.State) {
	select {
	case f <- struct{}{}:
	default:
	}
}

func newSession(cmd *cobra.Command, o *searchOptions, cc config.ClientConfig, feed stateFeed) *client.Session {
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.NewSession(client.NewHTTPFetcher(o.server, nil), client.Options{
		Initial: domain.SearchQuery{
			Keyword: o.keyword,
			Sort: domain.SortSpec{
				Key:       o.sortBy,
				Direction: domain.ParseSortDirection(strings.ToLower(strings.TrimSpace(o.sortDir))),
			},
		},
		Debounce:    cc.DebounceDuration(),
		LoaderGrace: cc.LoaderGraceDuration(),
		PageSize:    cc.PageSize,
		Logger:      log,
		OnChange:    feed.notify,
	})
}

// awaitSettled blocks until the latest fetch of sess has succeeded or failed.
func awaitSettled(ctx context.Context, sess *client.Session, feed stateFeed) (client.State, error) {
	for {
		st := sess.State()
		if st.Status == client.StatusLoaded || st.Status == client.StatusErrored {
			return st, nil
		}
		select {
		case <-feed:
		case <-ctx.Done():
			return st, fmt.Errorf("waiting for results: %w", ctx.Err())
		}
	}
}

func runSearch(cmd *cobra.Command, o *searchOptions, cc config.ClientConfig) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	feed := make(stateFeed, 1)
	sess := newSession(cmd, o, cc, feed)
	defer sess.Close()

	sess.Dispatch(client.Mounted{})
	st, err := awaitSettled(ctx, sess, feed)
	if err != nil {
		return err
	}
	if st.Status == client.StatusErrored {
		return errors.New(st.Err)
	}

	if o.all {
		for st.HasMore() {
			sess.Dispatch(client.LoadMoreRequested{})
			st = sess.State()
		}
	}

	out := cmd.OutOrStdout()
	if err := printState(out, st); err != nil {
		return err
	}
	if st.HasMore() {
		_, err = fmt.Fprintf(out, "showing %d of %d, pass --all for everything\n", st.Visible, len(st.Rows))
	}
	return err
}

func runInteractive(cmd *cobra.Command, o *searchOptions, cc config.ClientConfig) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	out := cmd.OutOrStdout()

	feed := make(stateFeed, 1)
	sess := newSession(cmd, o, cc, feed)
	defer sess.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		printed     client.State
		havePrinted bool
		pending     bool
		changeSeq   uint64
	)
	show := func(st client.State) error {
		if havePrinted && st.Seq == printed.Seq && st.Status == printed.Status &&
			st.Visible == printed.Visible && st.ShowLoader == printed.ShowLoader {
			return nil
		}
		printed, havePrinted = st, true
		switch {
		case st.Status == client.StatusLoading && st.ShowLoader:
			_, err := fmt.Fprintln(out, "Loading results...")
			return err
		case st.Status == client.StatusLoaded || st.Status == client.StatusErrored:
			if err := printState(out, st); err != nil {
				return err
			}
			if st.HasMore() {
				_, err := fmt.Fprintf(out, "showing %d of %d, :more for the next page\n", st.Visible, len(st.Rows))
				return err
			}
		}
		return nil
	}

	sess.Dispatch(client.Mounted{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-feed:
			if err := show(sess.State()); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				// Flush a keyword still inside its debounce window.
				st := sess.State()
				if pending && st.Seq == changeSeq {
					sess.Dispatch(client.DebounceElapsed{Gen: st.DebounceGen})
				}
				waitCtx, cancel := context.WithTimeout(ctx, o.timeout)
				st, err := awaitSettled(waitCtx, sess, feed)
				cancel()
				if err != nil {
					return err
				}
				return show(st)
			}

			switch ev, quit := parseLine(line); {
			case quit:
				return nil
			case ev != nil:
				sess.Dispatch(ev)
				if _, ok := ev.(client.KeywordChanged); ok {
					pending, changeSeq = true, sess.State().Seq
				}
			}
		}
	}
}

// parseLine maps one interactive input line to a session event.
func parseLine(line string) (ev client.Event, quit bool) {
	cmd, isCmd := strings.CutPrefix(strings.TrimSpace(line), ":")
	if !isCmd {
		return client.KeywordChanged{Keyword: line}, false
	}
	name, arg, _ := strings.Cut(cmd, " ")
	switch name {
	case "quit", "q":
		return nil, true
	case "more":
		return client.LoadMoreRequested{}, false
	case "sort":
		if key := strings.TrimSpace(arg); key != "" {
			return client.SortClicked{Key: key}, false
		}
	}
	return nil, false
}

// printState writes the visible rows of st as an aligned table.
func printState(w io.Writer, st client.State) error {
	if st.Status == client.StatusErrored {
		_, err := fmt.Fprintln(w, st.Err)
		return err
	}
	rows := st.VisibleRows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No advocates found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIRST NAME\tLAST NAME\tCITY\tDEGREE\tSPECIALTIES\tEXPERIENCE\tPHONE")
	for _, a := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			a.FirstName, a.LastName, a.City, a.Degree,
			strings.Join(a.Specialties, ", "),
			a.YearsOfExperience,
			strconv.FormatInt(a.PhoneNumber, 10),
		)
	}
	return tw.Flush()
}
