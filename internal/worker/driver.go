// Package worker runs the recurring jobs that keep measurement schedules
// flowing: discovery sweeps, schedule ensure passes and due processing.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
	"github.com/reel-tracker/metrics-scheduler-go/internal/service"
)

// Driver owns the cron scheduler and the lifecycle of the recurring jobs.
type Driver struct {
	engine    *service.Engine
	discovery *service.Discovery
	cfg       *config.WorkerConfig
	logger    *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDriver wires the engine and discovery sweeper onto a cron scheduler.
// Jobs skip a tick when the previous run is still going, so a slow sweep
// never stacks up behind itself.
func NewDriver(engine *service.Engine, discovery *service.Discovery, cfg *config.WorkerConfig, logger *zap.Logger) *Driver {
	ctx, cancel := context.WithCancel(context.Background())

	cronLog := cronLogger{logger: logger.Sugar()}
	c := cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	return &Driver{
		engine:    engine,
		discovery: discovery,
		cfg:       cfg,
		logger:    logger,
		cron:      c,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the jobs and begins the cron loop. The discovery and
// ensure jobs also run once immediately so a fresh deployment does not wait
// a full interval before scheduling anything.
func (d *Driver) Start() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func()
	}{
		{"discovery", d.cfg.DiscoveryInterval, d.runDiscovery},
		{"ensure", d.cfg.EnsureInterval, d.runEnsure},
		{"process", d.cfg.ProcessInterval, d.runProcess},
	}

	for _, job := range jobs {
		spec := fmt.Sprintf("@every %s", job.interval)
		if _, err := d.cron.AddFunc(spec, job.run); err != nil {
			return fmt.Errorf("register %s job: %w", job.name, err)
		}
		d.logger.Info("registered worker job",
			zap.String("job", job.name),
			zap.Duration("interval", job.interval),
		)
	}

	go func() {
		d.runDiscovery()
		d.runEnsure()
	}()

	d.cron.Start()
	return nil
}

// Stop halts the cron loop and lets in-flight jobs run to completion. The
// returned context is done once they have finished; the shared job context
// is cancelled only after that, so a measurement mid-flight is never
// aborted by shutdown.
func (d *Driver) Stop() context.Context {
	stopCtx := d.cron.Stop()
	go func() {
		<-stopCtx.Done()
		d.cancel()
	}()
	return stopCtx
}

func (d *Driver) runDiscovery() {
	discovered, err := d.discovery.Sweep(d.ctx)
	if err != nil {
		d.logger.Error("discovery sweep failed", zap.Error(err))
		return
	}
	d.logger.Info("discovery sweep finished", zap.Int("discovered", discovered))
}

func (d *Driver) runEnsure() {
	examined, err := d.engine.EnsureAll(d.ctx)
	if err != nil {
		d.logger.Error("ensure pass failed", zap.Error(err))
		return
	}
	if examined > 0 {
		d.logger.Info("ensure pass finished", zap.Int("examined", examined))
	}
}

func (d *Driver) runProcess() {
	result, err := d.engine.ProcessDue(d.ctx, time.Now().UTC())
	if err != nil {
		d.logger.Error("due processing failed", zap.Error(err))
		return
	}
	if result.Processed > 0 {
		d.logger.Info("processed due schedules",
			zap.Int("processed", result.Processed),
			zap.Int("completed", result.Completed),
			zap.Int("failed", result.Failed),
		)
	}
}

// cronLogger adapts zap to cron's logging interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
