// wire.go assembles a Controller and its collaborators from the project
// configuration.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/berth-dev/cutover/internal/archive"
	"github.com/berth-dev/cutover/internal/config"
	"github.com/berth-dev/cutover/internal/extract"
	"github.com/berth-dev/cutover/internal/llm"
	"github.com/berth-dev/cutover/internal/log"
	"github.com/berth-dev/cutover/internal/persona"
	"github.com/berth-dev/cutover/internal/scenario"
	"github.com/berth-dev/cutover/internal/simulation"
)

// extractionTemperature keeps classification close to deterministic.
const extractionTemperature = 0.2

// project is a loaded working directory: its config, event log and
// diagnostic logger.
type project struct {
	dir    string
	cfg    *config.Config
	events *log.Logger
	logger *slog.Logger
}

func loadProject() (*project, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return openProject(dir, slog.Default())
}

func openProject(dir string, logger *slog.Logger) (*project, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	events, err := log.NewLogger(dir)
	if err != nil {
		return nil, err
	}
	return &project{dir: dir, cfg: cfg, events: events, logger: logger}, nil
}

// path resolves a config path against the project directory.
func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

// openArchive returns nil when the archive is disabled.
func (p *project) openArchive() (*archive.Store, error) {
	if !p.cfg.Archive.Enabled {
		return nil, nil
	}
	store, err := archive.NewStore(p.path(p.cfg.Archive.Path))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return store, nil
}

// offline reports whether collaborators run without a model.
func (p *project) offline(forced bool) bool {
	return forced || p.cfg.LLM.Provider == "scripted"
}

func (p *project) newClient() (llm.Client, error) {
	c := p.cfg.LLM

	var client llm.Client
	switch c.Provider {
	case "claude":
		client = llm.NewClaudeCLI(c.Model)
	default:
		oc, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  c.APIKey,
			Model:   c.Model,
			BaseURL: c.BaseURL,
			Logger:  p.logger,
		})
		if err != nil {
			return nil, err
		}
		client = oc
	}

	if c.TimeoutSeconds > 0 {
		client = withTimeout(client, time.Duration(c.TimeoutSeconds)*time.Second)
	}
	if c.RequestsPerMinute > 0 {
		client = llm.NewRateLimited(client, c.RequestsPerMinute)
	}
	return client, nil
}

func withTimeout(next llm.Client, d time.Duration) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Generate(ctx, req)
	})
}

// collaborators returns the extractor and responder for the configured
// provider.
func (p *project) collaborators(offline bool) (simulation.Extractor, simulation.Responder, error) {
	if p.offline(offline) {
		p.logger.Info("playing offline", "extractor", "keyword", "responder", "profile")
		return extract.KeywordExtractor{}, persona.Offline{}, nil
	}

	client, err := p.newClient()
	if err != nil {
		return nil, nil, err
	}

	ext, err := extract.NewLLMExtractor(client, extract.Config{
		Temperature: extractionTemperature,
		MaxTokens:   p.cfg.LLM.MaxTokens,
		Logger:      p.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	var extractor simulation.Extractor = ext
	if p.cfg.Simulation.DegradedExtraction {
		extractor = extract.Fallback{Primary: ext, Degraded: extract.KeywordExtractor{}, Logger: p.logger}
	}

	resp, err := persona.NewResponder(client, persona.Config{
		Temperature: p.cfg.LLM.Temperature,
		MaxTokens:   p.cfg.LLM.MaxTokens,
		Logger:      p.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return extractor, resp, nil
}

// newController wires the controller. The event log always observes;
// extra observers are appended.
func (p *project) newController(offline bool, extra ...simulation.Observer) (*simulation.Controller, error) {
	extractor, responder, err := p.collaborators(offline)
	if err != nil {
		return nil, err
	}

	seed := p.cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	observers := simulation.Observers{log.Observer{Logger: p.events, Slog: p.logger, Clock: time.Now}}
	observers = append(observers, extra...)

	return simulation.NewController(simulation.Options{
		MaxRounds:   p.cfg.Simulation.MaxRounds,
		Conditions:  p.cfg.Conditions(),
		Baseline:    p.cfg.SessionBaseline(),
		Extractor:   extractor,
		Complicator: persona.NewComplicator(),
		Responder:   responder,
		Scenarios:   scenario.NewGenerator(seed),
		Observer:    observers,
		Logger:      p.logger,
	})
}
