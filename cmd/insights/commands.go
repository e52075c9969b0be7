package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/profile-insights/internal/adapters"
	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/comparison"
	"github.com/ZanzyTHEbar/profile-insights/internal/config"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/monitoring"
	"github.com/ZanzyTHEbar/profile-insights/internal/render"
	"github.com/ZanzyTHEbar/profile-insights/internal/tui"
)

const (
	exitFailure    = 1
	exitValidation = 2
)

// deps are built once the global flags are parsed
type deps struct {
	client   *adapters.Client
	analyzer *analysis.Analyzer
	logger   *monitoring.Logger
	timeout  time.Duration
}

func newApp(cfg *config.Config, out, errOut io.Writer) *cli.App {
	rt := &deps{analyzer: analysis.NewAnalyzer()}

	return &cli.App{
		Name:      "insights",
		Usage:     "Derived analytics and comparisons for developer profiles",
		Version:   fmt.Sprintf("%s (built %s)", version, buildDate),
		Writer:    out,
		ErrWriter: errOut,
		// Exit codes are handled in main so tests can run the app in-process.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "analytics service base URL",
				Value: cfg.Analytics.BaseURL,
			},
			&cli.StringFlag{
				Name:  "api-prefix",
				Usage: "analytics service API prefix",
				Value: cfg.Analytics.APIPrefix,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for each analytics request",
				Value: cfg.Analytics.Timeout,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level written to stderr (debug, info, warn, error)",
				Value: "error",
			},
		},
		Before: func(c *cli.Context) error {
			rt.timeout = c.Duration("timeout")
			rt.logger = monitoring.NewLoggerWithWriter(c.App.ErrWriter, monitoring.ParseLevel(c.String("log-level")))
			rt.client = adapters.NewClient(c.String("base-url"), c.String("api-prefix"),
				adapters.WithTimeout(rt.timeout),
				adapters.WithObserver(rt.logger.UpstreamLogger),
			)
			return nil
		},
		Commands: []*cli.Command{
			profileCommand(rt),
			compareCommand(rt),
			healthCommand(rt),
			tuiCommand(rt),
		},
	}
}

func profileCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Analyze one profile",
		ArgsUsage: "<username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Usage: "repository order: stars, forks, recent or name", Value: string(analysis.SortByStars)},
			&cli.StringFlag{Name: "language", Usage: "only list repositories in this language", Value: analysis.AllLanguages},
			&cli.IntFlag{Name: "limit", Usage: "maximum repositories to list", Value: 10},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fail(errors.NewValidationError("profile takes exactly one username"))
			}
			sortKey, err := analysis.ParseSortKey(c.String("sort"))
			if err != nil {
				return fail(errors.NewValidationError(err.Error()))
			}

			start := time.Now()
			profile, err := rt.client.FetchProfile(c.Context, c.Args().First())
			if err != nil {
				return fail(err)
			}

			insights := rt.analyzer.Analyze(profile, analysis.ViewOptions{
				Sort:           sortKey,
				LanguageFilter: strings.TrimSpace(c.String("language")),
			})
			rt.logger.InsightLogger(profile.Username, insights.RepositoryCount, len(insights.Languages), time.Since(start))

			var r render.Renderer = &render.TextRenderer{RepoLimit: c.Int("limit")}
			if c.Bool("json") {
				r = render.NewJSONRenderer()
			}
			return output(c.App.Writer, r, insights)
		},
	}
}

func compareCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two to five profiles",
		ArgsUsage: "<username> <username> [username...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "independent", Usage: "fetch each profile separately instead of one batch request"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
		},
		Action: func(c *cli.Context) error {
			assembler := comparison.NewBatchAssembler(rt.client, rt.analyzer)
			if c.Bool("independent") {
				assembler = comparison.NewAssembler(rt.client, rt.analyzer)
			}

			start := time.Now()
			result, err := assembler.Compare(c.Context, c.Args().Slice())
			if err != nil {
				return fail(err)
			}
			succeeded := len(comparison.Successful(result))
			rt.logger.ComparisonLogger(len(result), succeeded, time.Since(start))

			var r render.Renderer = render.NewTextRenderer()
			if c.Bool("json") {
				r = render.NewJSONRenderer()
			}
			if err := output(c.App.Writer, r, result); err != nil {
				return err
			}
			if succeeded == 0 {
				return cli.Exit("no profile could be compared", exitFailure)
			}
			return nil
		},
	}
}

func healthCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the analytics service",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
		},
		Action: func(c *cli.Context) error {
			h, err := rt.client.Health(c.Context)
			if err != nil {
				return fail(err)
			}

			var r render.Renderer = render.NewTextRenderer()
			if c.Bool("json") {
				r = render.NewJSONRenderer()
			}
			if err := output(c.App.Writer, r, h); err != nil {
				return err
			}
			if !h.Healthy() {
				return cli.Exit(fmt.Sprintf("analytics service is %s", orUnknown(h.Status)), exitFailure)
			}
			return nil
		},
	}
}

func tuiCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Usage:     "Browse profiles interactively",
		ArgsUsage: "[username...]",
		Action: func(c *cli.Context) error {
			app := tui.NewApp(rt.client, strings.Join(c.Args().Slice(), ","), tui.WithTimeout(rt.timeout))
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(c.Context))
			if _, err := p.Run(); err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			return nil
		},
	}
}

// output renders v, falling back to the error view when the primary renderer
// fails
func output(w io.Writer, r render.Renderer, v any) error {
	guard := render.NewGuard(r, nil)
	if err := guard.Render(w, v); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	if f := guard.Failure(); f != nil {
		return cli.Exit(f.Error(), exitFailure)
	}
	return nil
}

// fail maps an error to a process exit: validation problems exit 2, every
// other failure exits 1
func fail(err error) error {
	appErr := errors.ToAppError(err)
	code := exitFailure
	if appErr.Category == errors.CategoryValidation {
		code = exitValidation
	}
	return cli.Exit(appErr.Message(), code)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
