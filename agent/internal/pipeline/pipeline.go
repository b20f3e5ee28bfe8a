package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/didacticeureka/didacticeureka/agent/internal/compute"
	"github.com/didacticeureka/didacticeureka/agent/internal/config"
	"github.com/didacticeureka/didacticeureka/agent/internal/scraper"
	"github.com/didacticeureka/didacticeureka/agent/internal/shipper"
	"github.com/didacticeureka/didacticeureka/agent/internal/table"
	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// Source locates and downloads the settlement file. *scraper.Client
// implements it.
type Source interface {
	LocateCSV(ctx context.Context) (string, error)
	Fetch(ctx context.Context, rawURL string) (*scraper.Download, error)
}

// Publisher hands a result to the metrics sink. *shipper.Shipper implements it.
type Publisher interface {
	Ship(ctx context.Context, res types.Result) error
}

// Deps are the collaborators of a Pipeline. Nothing is read from globals.
type Deps struct {
	Logger    *slog.Logger
	Source    Source
	Publisher Publisher
	Table     table.Options
	Extract   compute.Options

	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
}

// Pipeline runs Locator, Fetcher, Table Parser, Extractor and Publisher in
// sequence. Stages never run concurrently and nothing is shared between runs.
type Pipeline struct {
	deps Deps
}

// New returns a Pipeline over deps.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	return &Pipeline{deps: deps}
}

// FromConfig wires the production collaborators for cfg.
func FromConfig(cfg config.AgentConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pub, err := shipper.FromConfig(cfg.Publisher, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return New(Deps{
		Logger:    logger,
		Source:    scraper.New(cfg.Source, logger),
		Publisher: pub,
		Table:     TableOptions(cfg.Table),
		Extract:   ExtractOptions(cfg.Extract),
	}), nil
}

// TableOptions maps the table config section to parser options.
func TableOptions(c config.TableConfig) table.Options {
	return table.Options{Encoding: c.Encoding, SkipRows: c.SkipRows}
}

// ExtractOptions maps the extract config section to extractor options.
func ExtractOptions(c config.ExtractConfig) compute.Options {
	mode := compute.LabelFirstMonth
	if c.SecondMonthLabel == config.SecondMonthLabelSecond {
		mode = compute.LabelOwnMonth
	}
	return compute.Options{
		FuturePrefix:     c.FuturePrefix,
		IndexName:        c.IndexName,
		Increment:        c.StrikeIncrement,
		SecondMonthLabel: mode,
	}
}

// Run performs one invocation. event is the opaque trigger payload; it is
// logged and otherwise ignored. The first failing stage aborts the run and
// its error is returned unchanged; nothing is published for a failed run.
func (p *Pipeline) Run(ctx context.Context, event json.RawMessage) (types.Result, error) {
	start := time.Now()
	log := p.deps.Logger.With("run_id", p.deps.NewRunID())
	log.InfoContext(ctx, "pipeline: invoked", "event", eventAttr(event))

	res, err := p.run(ctx, log)
	if err != nil {
		log.ErrorContext(ctx, "pipeline: run failed", "err", err, "elapsed", time.Since(start))
		return types.Result{}, err
	}

	log.InfoContext(ctx, "pipeline: run complete", "elapsed", time.Since(start))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger) (types.Result, error) {
	link, err := p.deps.Source.LocateCSV(ctx)
	if err != nil {
		return types.Result{}, err
	}

	dl, err := p.deps.Source.Fetch(ctx, link)
	if err != nil {
		return types.Result{}, err
	}
	log.InfoContext(ctx, "pipeline: downloaded", "file", dl.Name, "bytes", len(dl.Body))

	tbl, err := table.Parse(dl.Body, p.deps.Table)
	if err != nil {
		return types.Result{}, err
	}
	log.DebugContext(ctx, "pipeline: parsed", "rows", len(tbl))

	res, err := compute.Extract(tbl, p.deps.Extract)
	if err != nil {
		return types.Result{}, err
	}
	if p.deps.Extract.SecondMonthLabel == compute.LabelFirstMonth && res.FirstMonthLabel != res.SecondMonthLabel {
		log.WarnContext(ctx, "pipeline: second-month IVs looked up under the first month's expiration label",
			"first_month_label", res.FirstMonthLabel,
			"second_month_label", res.SecondMonthLabel,
		)
	}
	log.InfoContext(ctx, "pipeline: option data", res.LogAttrs()...)

	if err := p.deps.Publisher.Ship(ctx, res); err != nil {
		return types.Result{}, err
	}
	return res, nil
}

// eventAttr keeps valid JSON structured in the log line and falls back to a
// plain string otherwise.
func eventAttr(event json.RawMessage) any {
	if len(event) == 0 {
		return nil
	}
	if json.Valid(event) {
		return event
	}
	return string(event)
}
