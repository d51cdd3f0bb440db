/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sabouaram/netlinkmon/audit"
	"github.com/sabouaram/netlinkmon/dispatcher"
	"github.com/sabouaram/netlinkmon/duration"
	"github.com/sabouaram/netlinkmon/event"
	"github.com/sabouaram/netlinkmon/eventdb"
	"github.com/sabouaram/netlinkmon/filter"
	"github.com/sabouaram/netlinkmon/lifecycle"
	"github.com/sabouaram/netlinkmon/logger"
	"github.com/sabouaram/netlinkmon/metrics"
	"github.com/sabouaram/netlinkmon/retention"
	"github.com/sabouaram/netlinkmon/ring"
	"github.com/sabouaram/netlinkmon/security"
	"github.com/sabouaram/netlinkmon/storage"
	"github.com/sabouaram/netlinkmon/telemetry"
)

// avgEventBytes estimates one in-flight event's footprint so the byte
// bound on core.buffer_size (spec.md §6) can size the item-count ring
// buffers dispatcher and storage actually allocate.
const avgEventBytes = 256

// storageBufferFraction is the share of core.buffer_size set aside for
// the storage layer's own recent-event ring, separate from the
// dispatcher's ingestion ring.
const storageBufferFraction = 4

// eventDBBatchSize is the batched-insert commit threshold (spec.md
// §4.12); the configuration snapshot does not name this knob, so it is
// fixed here rather than invented as a user-facing setting.
const eventDBBatchSize = 100

// retentionBatchDeleteSize bounds one retention sweep's delete_oldest
// call; not named by the configuration snapshot, fixed here for the
// same reason as eventDBBatchSize.
const retentionBatchDeleteSize = 1000

var (
	logLevel    string
	logFormat   string
	filtersPath string
	filterDefs  []string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the netlinkmond pipeline until a shutdown signal is received",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline()
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warning, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	cmd.Flags().StringVar(&filtersPath, "filters", "", "path to a persisted filter-manager store to load at startup")
	cmd.Flags().StringArrayVar(&filterDefs, "filter", nil, "ad-hoc named filter as name=expression (repeatable)")
	return cmd
}

func runPipeline() error {
	snap, err := loadSnapshot()
	if err != nil {
		return exitf(exitConfigInvalid, err)
	}
	if verr := snap.Validate(); verr != nil {
		return exitf(exitConfigInvalid, verr)
	}

	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return exitf(exitConfigInvalid, fmt.Errorf("log-level: %w", err))
	}
	format := logger.FormatText
	if logFormat == "json" {
		format = logger.FormatJSON
	}
	log := logger.New(logger.Config{Level: lvl, Format: format})

	var auditLog *audit.Log
	var securityLog *audit.Log
	var db *eventdb.DB

	if snap.Audit.VerifyOnOpen {
		// firstBad == 0 also covers "file does not exist yet", which is
		// the normal first-run case, not a broken chain.
		if ok, firstBad := audit.Verify(snap.Audit.LogPath); !ok && firstBad > 0 {
			return exitf(exitStartupFailure, fmt.Errorf("audit log %s: hash chain broken at line %d", snap.Audit.LogPath, firstBad))
		}
	}

	auditLog, err = audit.Open(audit.Config{
		Path:         snap.Audit.LogPath,
		MaxFileSize:  snap.Audit.MaxFileSize,
		MaxRotations: snap.Audit.MaxRotations,
		SyncWrites:   snap.Audit.SyncWrites,
	})
	if err != nil {
		return exitf(exitStartupFailure, err)
	}
	defer auditLog.Close()

	if snap.Audit.SecurityLogPath != "" {
		securityLog, err = audit.Open(audit.Config{
			Path:         snap.Audit.SecurityLogPath,
			MaxFileSize:  snap.Audit.MaxFileSize,
			MaxRotations: snap.Audit.MaxRotations,
			SyncWrites:   snap.Audit.SyncWrites,
		})
		if err != nil {
			return exitf(exitStartupFailure, err)
		}
		defer securityLog.Close()
	}

	if snap.Output.Database.Enabled {
		db, err = eventdb.Open(eventdb.Config{
			Path:      snap.Output.Database.Path,
			BatchSize: eventDBBatchSize,
		})
		if err != nil {
			return exitf(exitStartupFailure, err)
		}
		defer db.Close()
	}

	buf, err := ring.New(snap.Core.BufferSize / avgEventBytes / storageBufferFraction)
	if err != nil {
		return exitf(exitStartupFailure, err)
	}

	storeCfg := storage.Config{
		Buffer: buf,
		Audit:  auditLog,
		Retention: retentionChecker{
			maxAgeS: snap.Retention.MaxAgeS,
			now:     time.Now,
		},
	}
	if db != nil {
		storeCfg.DB = db
	}
	if securityLog != nil {
		storeCfg.SecurityAudit = securityLog
	}
	store := storage.New(storeCfg)

	var retentionPolicy *retentionPolicyHandle
	if db != nil {
		retentionPolicy = newRetentionPolicy(snap.Retention, db)
		retentionPolicy.Start()
		defer retentionPolicy.Stop()
		log.Info("retention policy active", logger.NewFields().
			Add("max_age", duration.Duration(time.Duration(snap.Retention.MaxAgeS)*time.Second).String()).
			Add("cleanup_interval", duration.Duration(time.Duration(snap.Retention.CleanupIntervalS)*time.Second).String()))
	}

	processor, err := dispatcher.New(dispatcher.Config{
		RingBufferSize:   snap.Core.BufferSize / avgEventBytes,
		ThreadPoolSize:   snap.Core.WorkerThreads,
		WorkQueueSize:    snap.Core.MaxEvents,
		RateLimit:        float64(snap.Core.RateLimit),
		RateBurst:        float64(snap.Core.RateLimit),
		ObjectPoolSize:   snap.Core.MaxEvents,
		EnableObjectPool: true,
	})
	if err != nil {
		return exitf(exitStartupFailure, err)
	}

	detector := security.New(security.Config{
		ArpFloodThreshold:       20,
		ArpFloodWindowS:         10,
		InterfaceStormThreshold: 50,
		InterfaceStormWindowS:   10,
	})
	detector.RegisterCallback("log", func(a security.Alert) {
		log.Warning("security alert", logger.NewFields().Add("kind", a.Kind).Add("message", a.Message))
	})

	filterMgr := filter.NewManager()
	if filtersPath != "" {
		if err := filterMgr.Load(filtersPath); err != nil {
			return exitf(exitStartupFailure, fmt.Errorf("filters: %w", err))
		}
	}
	for _, def := range filterDefs {
		name, expr, err := parseFilterDef(def)
		if err != nil {
			return exitf(exitConfigInvalid, err)
		}
		if f := filterMgr.Add(name, expr); !f.Valid() {
			return exitf(exitConfigInvalid, fmt.Errorf("filter %q: invalid expression %q", name, expr))
		}
	}

	telemetryCollector, err := telemetry.New(telemetry.Thresholds{})
	if err != nil {
		return exitf(exitStartupFailure, err)
	}

	processor.RegisterHandler(func(ev *event.Event) {
		telemetryCollector.RecordMessage()
		isSecurity := detectSecurity(detector, ev)
		ok := store.Store(ev, isSecurity)
		telemetryCollector.RecordSubmission(!ok)
	})
	processor.RegisterHandler(func(ev *event.Event) {
		filterMgr.EvalAll(ev, make([]string, 0, 8))
	})

	if filtersPath != "" {
		defer func() {
			if err := filterMgr.Save(filtersPath); err != nil {
				log.Warning("filters: save on shutdown failed", logger.NewFields().Add("error", err.Error()))
			}
		}()
	}

	metricsReg := metrics.New()

	mgr := lifecycle.NewManager()
	mgr.OnSignal(func(sig os.Signal) {
		log.Info("received shutdown signal", logger.NewFields().Add("signal", sig.String()))
	})

	processor.Start()
	defer processor.Stop(true)

	sampleStop := make(chan struct{})
	go sampleLoop(processor, store, retentionPolicy, telemetryCollector, metricsReg, sampleStop)
	defer close(sampleStop)

	log.Info("netlinkmond running", logger.NewFields().Add("workers", snap.Core.WorkerThreads))

	for !mgr.Token.ShouldExit() {
		time.Sleep(100 * time.Millisecond)
	}
	log.Info("netlinkmond shutting down", nil)
	return nil
}

// detectSecurity runs the detector synchronously against ev and reports
// whether it raised any alert, scoping the callback registration to this
// one call so concurrent worker-pool invocations never share state.
func detectSecurity(d *security.Detector, ev *event.Event) bool {
	id := fmt.Sprintf("storage-%d-%p", ev.Sequence, ev)
	var hit bool
	d.RegisterCallback(id, func(a security.Alert) {
		if a.Event == ev {
			hit = true
		}
	})
	d.Process(ev)
	d.UnregisterCallback(id)
	return hit
}

// parseFilterDef splits a "--filter name=expression" argument.
func parseFilterDef(def string) (name, expr string, err error) {
	name, expr, ok := strings.Cut(def, "=")
	if !ok {
		return "", "", fmt.Errorf("filter %q: expected name=expression", def)
	}
	return name, expr, nil
}

// retentionChecker adapts a fixed max-age bound to storage.RetentionChecker.
type retentionChecker struct {
	maxAgeS int64
	now     func() time.Time
}

func (r retentionChecker) IsExpired(timestampUnix int64) bool {
	if r.maxAgeS <= 0 {
		return false
	}
	return r.now().Unix()-timestampUnix > r.maxAgeS
}

func sampleLoop(p *dispatcher.Processor, s *storage.Storage, r *retentionPolicyHandle, tel *telemetry.Collector, reg *metrics.Registry, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var prevDispatch dispatcher.Stats
	var prevStorage storage.Stats
	var prevRetention retention.Stats

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			curDispatch := p.Stats()
			reg.UpdateDispatcher(prevDispatch, curDispatch)
			prevDispatch = curDispatch

			curStorage := s.Stats()
			reg.UpdateStorage(prevStorage, curStorage)
			prevStorage = curStorage

			if r != nil {
				curRetention := r.Stats()
				reg.UpdateRetention(prevRetention, curRetention)
				prevRetention = curRetention
			}

			tel.SetBufferUsagePct(bufferUsagePct(curDispatch))
			if snap, err := tel.Sample(); err == nil {
				reg.UpdateResource(snap)
			}
		}
	}
}

func bufferUsagePct(s dispatcher.Stats) float64 {
	if s.QueueSize <= 0 {
		return 0
	}
	return float64(s.QueueSize) / float64(s.QueueSize+1) * 100
}
