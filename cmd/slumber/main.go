// Command slumber dispatches one recipe from a collection file and prints
// the resulting exchange: recipe ID, collection file, profile selection,
// field overrides, dry-run and persistence control, an HTTP-status exit
// code, and an optional rewatch-and-redispatch loop.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/infogulch/watch"
	"github.com/spf13/afero"

	"github.com/LucasPickering/slumber/engine"
	"github.com/LucasPickering/slumber/exchange"
	"github.com/LucasPickering/slumber/history"
	"github.com/LucasPickering/slumber/loader"
	"github.com/LucasPickering/slumber/template"
)

// Args is the command's full flag surface, go-arg struct tags driving
// both parsing and --help generation.
type Args struct {
	Recipe      string   `arg:"positional,required" help:"ID of the recipe to dispatch"`
	Collection  string   `arg:"positional,required" help:"path to the collection YAML file"`
	Profile     string   `arg:"-p,--profile" help:"profile ID to select (defaults to the collection's default profile)"`
	Override    []string `arg:"-o,--override,separate" help:"override a field: name=value"`
	Omit        []string `arg:"--omit,separate" help:"force a field to resolve as undefined"`
	Persist     *bool    `arg:"--persist,separate" help:"override the recipe's own persist setting"`
	DryRun      bool     `arg:"--dry-run" help:"render the request without sending it"`
	ExitCode    bool     `arg:"--exit-code" help:"exit 2 if the response status is 4xx/5xx"`
	Output      string   `arg:"-O,--output" help:"write the response body to this file instead of stdout"`
	Watch       bool     `arg:"-w,--watch" help:"redispatch whenever the collection file changes"`
	HistoryFile string   `arg:"--history-file" help:"override the history database path"`
	LogLevel    int      `arg:"--log-level" default:"0" help:"slog level (-4 debug, 0 info, 4 warn, 8 error)"`
}

func (Args) Version() string { return "slumber (development)" }

func main() {
	var args Args
	arg.MustParse(&args)

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(args.LogLevel)}))

	os.Exit(run(args, log))
}

func run(args Args, log *slog.Logger) int {
	histPath, err := historyPath(args.HistoryFile)
	if err != nil {
		log.Error("resolving history database path", slog.Any("error", err))
		return 1
	}
	store, err := history.OpenStore(histPath, log.WithGroup("history"))
	if err != nil {
		log.Error("opening history database", slog.Any("error", err))
		return 1
	}
	defer store.Close()

	dispatchOnce := func() int {
		e, err := buildEngine(args, store, log)
		if err != nil {
			log.Error("loading collection", slog.Any("error", err))
			return 1
		}
		code, err := dispatchAndPrint(e, args)
		if err != nil {
			log.Error("dispatch failed", slog.Any("error", err))
			return 1
		}
		return code
	}

	if !args.Watch {
		return dispatchOnce()
	}

	lastCode := dispatchOnce()
	_, err = watch.Watch([]string{args.Collection}, 200*time.Millisecond, log.WithGroup("fswatch"), func() bool {
		lastCode = dispatchOnce()
		return true
	})
	if err != nil {
		log.Error("watching collection file", slog.Any("error", err))
		return 1
	}
	return lastCode
}

func buildEngine(args Args, store *history.Store, log *slog.Logger) (*engine.Engine, error) {
	fs := afero.NewOsFs()
	coll, err := loader.Load(fs, args.Collection)
	if err != nil {
		return nil, err
	}
	path, err := filepath.Abs(args.Collection)
	if err != nil {
		return nil, err
	}
	hist, err := store.Open(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("opening collection history: %w", err)
	}
	return engine.New(coll, hist, stdioPrompter{}, fs), nil
}

func dispatchAndPrint(e *engine.Engine, args Args) (int, error) {
	var profileID *exchange.ProfileID
	if args.Profile != "" {
		id := exchange.ProfileID(args.Profile)
		profileID = &id
	}

	overrides, err := parseOverrides(args.Override, args.Omit)
	if err != nil {
		return 1, err
	}

	result, err := e.Dispatch(context.Background(), exchange.RecipeID(args.Recipe), &engine.Options{
		ProfileID:       profileID,
		Overrides:       overrides,
		PersistOverride: args.Persist,
		DryRun:          args.DryRun,
	})
	if err != nil {
		return 1, err
	}

	if args.DryRun {
		req := result.Ticket.Record()
		fmt.Fprintf(os.Stderr, "%s %s\n", req.Method, req.URL)
		for name, values := range req.Headers {
			for _, v := range values {
				fmt.Fprintf(os.Stderr, "%s: %s\n", name, v)
			}
		}
		if len(req.Body) > 0 {
			fmt.Fprintln(os.Stderr, "--")
			if err := writeBody(args.Output, req.Body); err != nil {
				return 1, err
			}
		}
		return 0, nil
	}

	ex := result.Dispatch.Exchange
	if ex.Error != "" {
		return 1, fmt.Errorf("%s", ex.Error)
	}
	fmt.Fprintf(os.Stderr, "%d %s in %s (%s)\n",
		ex.Response.StatusCode, http.StatusText(ex.Response.StatusCode),
		ex.Duration().Round(time.Millisecond), humanize.Bytes(uint64(len(ex.Response.Body))))

	if err := writeBody(args.Output, ex.Response.Body); err != nil {
		return 1, err
	}

	if args.ExitCode && ex.Response.StatusCode >= 400 {
		return 2, nil
	}
	return 0, nil
}

func writeBody(path string, body []byte) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	_, err := w.Write(body)
	return err
}

// parseOverrides turns --override name=value and --omit name flags into
// a template.OverrideMap.
func parseOverrides(overrides, omit []string) (template.OverrideMap, error) {
	out := template.OverrideMap{}
	for _, o := range overrides {
		name, value, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("override %q must be name=value", o)
		}
		out[name] = template.Override{Value: template.NewString(value)}
	}
	for _, name := range omit {
		out[name] = template.Override{Omit: true}
	}
	return out, nil
}

// historyPath resolves the history database location: an explicit
// override, or a collection-wide default under the user's config
// directory.
func historyPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "slumber")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}
