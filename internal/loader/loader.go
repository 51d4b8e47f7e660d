// Package loader reads the input documents of an analysis off the caller's
// goroutine and hands back one immutable dataset.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/parser"
	"github.com/emiliopalmerini/wattline/internal/ports"
	"github.com/emiliopalmerini/wattline/internal/timeline"
)

// Features that degrade instead of failing the load.
const (
	FeatureMetadata          = "metadata"
	FeatureContainerIdentity = "container-identity"
	FeaturePowerAPIAPI       = "powerapi-api"
	FeaturePowerAPIDB        = "powerapi-db"
)

// Request lists the documents of one analysis. Only ResultsPath is required.
type Request struct {
	ResultsPath     string
	MetadataPath    string
	PowerAPIAPIPath string
	PowerAPIDBPath  string
}

// Result is handed back once per load.
type Result struct {
	LoadID   string
	Dataset  *domain.Dataset
	Err      error
	Duration time.Duration
}

// Loader runs at most one load at a time.
type Loader struct {
	reporter ports.StatusReporter
	busy     atomic.Bool

	parseResults  func(string) (*parser.Results, error)
	parseMetadata func(string) (domain.ContainerIdentity, error)
	parsePower    func(string) ([]domain.PowerSample, error)
}

// New creates a loader reporting progress to reporter.
func New(reporter ports.StatusReporter) *Loader {
	return &Loader{
		reporter:      reporter,
		parseResults:  parser.ParseResults,
		parseMetadata: parser.ParseMetadata,
		parsePower:    parser.ParsePowerDump,
	}
}

// InProgress reports whether a load is running.
func (l *Loader) InProgress() bool {
	return l.busy.Load()
}

// Start begins a load on worker goroutines. The returned channel receives
// exactly one Result and is then closed. Starting while a load is in flight
// fails with domain.ErrLoadInProgress.
func (l *Loader) Start(ctx context.Context, req Request) (<-chan Result, error) {
	if !l.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrLoadInProgress
	}

	loadID := uuid.NewString()
	out := make(chan Result, 1)
	go func() {
		started := time.Now()
		ds, err := l.load(ctx, loadID, req)
		res := Result{LoadID: loadID, Dataset: ds, Err: err, Duration: time.Since(started)}

		l.busy.Store(false)
		out <- res
		close(out)
	}()
	return out, nil
}

// Load starts a load and waits for it.
func (l *Loader) Load(ctx context.Context, req Request) (*domain.Dataset, error) {
	ch, err := l.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	res := <-ch
	return res.Dataset, res.Err
}

func (l *Loader) load(ctx context.Context, loadID string, req Request) (*domain.Dataset, error) {
	if req.ResultsPath == "" {
		return nil, fmt.Errorf("no results file given: %w", domain.ErrFileNotFound)
	}
	l.reporter.Status(fmt.Sprintf("Loading data from %s...", filepath.Base(req.ResultsPath)))

	var (
		results           *parser.Results
		meta              domain.ContainerIdentity
		metaErr           error
		apiPower, dbPower []domain.PowerSample
		apiErr, dbErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r, err := l.parseResults(req.ResultsPath)
		if err != nil {
			return fmt.Errorf("failed to load benchmark results: %w", err)
		}
		results = r
		return nil
	})
	if req.MetadataPath != "" {
		g.Go(func() error {
			meta, metaErr = l.parseMetadata(req.MetadataPath)
			return nil
		})
	}
	if req.PowerAPIAPIPath != "" {
		g.Go(func() error {
			apiPower, apiErr = l.parsePower(req.PowerAPIAPIPath)
			return nil
		})
	}
	if req.PowerAPIDBPath != "" {
		g.Go(func() error {
			dbPower, dbErr = l.parsePower(req.PowerAPIDBPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.reporter.Error(fmt.Sprintf("Error loading data file: %v", err))
		klog.ErrorS(err, "Load aborted", "load", loadID, "results", req.ResultsPath)
		return nil, err
	}

	ds := &domain.Dataset{
		LoadID:          loadID,
		ResultsPath:     req.ResultsPath,
		APIEnergy:       results.APIEnergy,
		DBEnergy:        results.DBEnergy,
		Experiments:     results.Experiments,
		ExperimentOrder: results.Order,
		Containers:      results.Containers,
		SkippedRecords:  results.Skipped,
	}
	if results.Skipped > 0 {
		l.reporter.Warn(fmt.Sprintf("Skipped %d malformed records in %s", results.Skipped, filepath.Base(req.ResultsPath)))
	}

	if req.MetadataPath != "" {
		l.applyMetadata(ds, meta, metaErr)
	}
	if ds.Containers.APIContainerID == "" || ds.Containers.DBContainerID == "" {
		err := fmt.Errorf("container ids api=%q db=%q: %w", ds.Containers.APIContainerID, ds.Containers.DBContainerID, domain.ErrNoContainerIdentity)
		ds.Degrade(FeatureContainerIdentity, "container series cannot be matched", err)
		l.reporter.Warn("Warning: Missing container IDs in data, container series are disabled")
	}

	if req.PowerAPIAPIPath != "" {
		ds.PowerAPIAPI = l.applyPower(ds, FeaturePowerAPIAPI, "API", apiPower, apiErr)
	}
	if req.PowerAPIDBPath != "" {
		ds.PowerAPIDB = l.applyPower(ds, FeaturePowerAPIDB, "DB", dbPower, dbErr)
	}

	if len(ds.ExperimentOrder) == 0 {
		l.reporter.Warn("No experiments found in the data file")
	} else {
		l.reporter.Status(fmt.Sprintf("Loaded %d experiments from %s", len(ds.ExperimentOrder), filepath.Base(req.ResultsPath)))
	}
	klog.V(1).InfoS("Load finished", "load", loadID, "experiments", len(ds.ExperimentOrder),
		"apiIntervals", len(ds.APIEnergy), "dbIntervals", len(ds.DBEnergy), "degradations", len(ds.Degradations))
	return ds, nil
}

// applyMetadata overrides container_info with every id the metadata file provides.
func (l *Loader) applyMetadata(ds *domain.Dataset, meta domain.ContainerIdentity, err error) {
	if err != nil && !errors.Is(err, domain.ErrNoContainerIdentity) {
		ds.Degrade(FeatureMetadata, "metadata file unreadable", err)
		l.reporter.Warn(fmt.Sprintf("Could not read experiment metadata: %v", err))
		return
	}
	if meta.APIContainerID != "" {
		ds.Containers.APIContainerID = meta.APIContainerID
	}
	if meta.DBContainerID != "" {
		ds.Containers.DBContainerID = meta.DBContainerID
	}
	if err != nil {
		klog.V(2).InfoS("Metadata incomplete", "err", err)
	}
}

func (l *Loader) applyPower(ds *domain.Dataset, feature, label string, samples []domain.PowerSample, err error) []domain.PowerSample {
	if err != nil {
		ds.Degrade(feature, "power dump unreadable", err)
		l.reporter.Warn(fmt.Sprintf("Error loading PowerAPI %s Server data: %v", label, err))
		return nil
	}
	l.reporter.Status(fmt.Sprintf("Loaded PowerAPI %s Server energy data with %d target services", label, len(timeline.PowerTargets(samples))))
	return samples
}
