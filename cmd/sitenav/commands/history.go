package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitenav/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	DB     string `name:"db" required:"" env:"SITENAV_HISTORY_DB" type:"path" help:"SQLite database written by 'watch --history-db'"`
	Limit  int    `short:"n" default:"20" help:"Number of events to show, newest first"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	if _, err := os.Stat(h.DB); errors.Is(err, fs.ErrNotExist) {
		return ferrors.NewError(ferrors.CategoryNotFound, "history database not found").
			UserAction().
			WithContext("path", h.DB).
			Build()
	}
	store, err := eventstore.NewSQLiteStore(h.DB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	history, err := eventstore.History(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}
	return writeOutput(g.out(), h.Format, history, func(w io.Writer) error {
		return writeHistoryText(w, history)
	})
}

func writeHistoryText(w io.Writer, history []eventstore.ReloadSummary) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No reload events recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tTRIGGER\tRELOAD\tDETAILS")
	for _, s := range history {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Timestamp.Local().Format(time.DateTime),
			s.Type,
			s.Trigger,
			shortHash(s.ReloadID),
			details(s))
	}
	return tw.Flush()
}

func details(s eventstore.ReloadSummary) string {
	switch s.Type {
	case eventstore.TypeConfigLoaded:
		return fmt.Sprintf("%s: %d pages, %d entries, %s, %dms",
			s.SiteName, s.NavLeaves, s.NavNodes, shortHash(s.Fingerprint), s.DurationMS)
	case eventstore.TypeConfigUnchanged:
		return "unchanged " + shortHash(s.Fingerprint)
	case eventstore.TypeReloadFailed:
		msg, _, _ := strings.Cut(s.Error, "\n")
		return msg
	default:
		return ""
	}
}
