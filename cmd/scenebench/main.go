package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tilescene.ai/internal/metrics"
	"tilescene.ai/internal/scene"
	"tilescene.ai/internal/scene/fixture"
	"tilescene.ai/internal/scene/lighting"
	"tilescene.ai/internal/scene/tuning"
	"tilescene.ai/internal/trace"
	"tilescene.ai/internal/trace/index"
)

func main() {
	var (
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to render.yaml (default: <configs>/render.yaml)")
		fixturePath = flag.String("fixture", "", "path to scene fixture (default: <configs>/fixtures/village.yaml)")
		frames      = flag.Int("frames", 360, "frames to draw")
		radius      = flag.Int("radius", 6, "orbit radius in tiles (0 keeps the fixture camera)")
		light       = flag.Bool("light", true, "bake lighting before drawing")
		traceOn     = flag.Bool("trace", true, "record a frame trace")
		traceDir    = flag.String("trace_dir", "", "trace directory (default: tuning trace.dir)")
		keepDraws   = flag.Bool("draws", false, "keep every draw record in the trace")
		disableDB   = flag.Bool("disable_db", false, "disable the frame index")
		metricsAddr = flag.String("metrics_addr", "", "serve /metrics on this address (empty to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[scenebench] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "render.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	fp := strings.TrimSpace(*fixturePath)
	if fp == "" {
		fp = filepath.Join(*configDir, "fixtures", "village.yaml")
	}
	fx, err := fixture.Load(fp)
	if err != nil {
		logger.Fatalf("load fixture: %v", err)
	}

	raster := &countRaster{}
	s, err := scene.New(fx.Config(tune.Scene(logger)), raster, greyTextures{})
	if err != nil {
		logger.Fatalf("scene: %v", err)
	}

	var (
		sink fixture.Sink
		tw   *trace.Writer
		idx  *index.SQLiteIndex
		rec  *trace.Recorder
	)
	if *traceOn {
		dir := strings.TrimSpace(*traceDir)
		if dir == "" {
			dir = tune.Trace.Dir
		}
		tw, err = trace.Create(dir, fx.Name)
		if err != nil {
			logger.Fatalf("trace: %v", err)
		}
		logger.Printf("trace run %s -> %s", tw.Header().Run, tw.Path())
		var fi trace.FrameIndex
		if !*disableDB {
			idx, err = index.OpenSQLite(tune.Trace.IndexDB)
			if err != nil {
				logger.Fatalf("index: %v", err)
			}
			fi = idx
			logger.Printf("frame index %s", tune.Trace.IndexDB)
		}
		rec = trace.NewRecorder(tw.Header().Run, tw, fi)
		rec.Draws = *keepDraws
		sink = rec
	}

	rep, err := fx.Build(s, sink)
	if err != nil {
		logger.Fatalf("build: %v", err)
	}
	if rep.RejectedEntities > 0 || rep.RejectedOccluders > 0 {
		logger.Printf("fixture %s: %d/%d entities and %d/%d occluders rejected",
			fx.Name, rep.RejectedEntities, rep.Entities, rep.RejectedOccluders, rep.Occluders)
	}
	if *light {
		s.ApplyLighting(lighting.DefaultLight)
	}

	reg := prometheus.NewRegistry()
	s.Observe(metrics.NewFrameCollector(reg))
	timing := &timings{}
	s.Observe(timing)
	if rec != nil {
		s.Observe(rec)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if addr := strings.TrimSpace(*metricsAddr); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics: %v", err)
			}
		}()
		logger.Printf("metrics on %s/metrics", addr)
	}

	cam, level := fx.CameraAt()
	o := newOrbit(cam, fx.Grid.Width, fx.Grid.Length, *radius)
	for i := 0; i < *frames; i++ {
		if ctx.Err() != nil {
			logger.Printf("interrupted after %d frames", i)
			break
		}
		if _, err := s.Draw(o.at(i, *frames), level); err != nil {
			logger.Fatalf("draw: %v", err)
		}
	}

	sum := timing.summary()
	logger.Printf("%d frames: mean %s stddev %s p50 %s p95 %s max %s, %d draw calls, %d failures, %d triangles",
		sum.Frames, sum.Mean, sum.StdDev, sum.P50, sum.P95, sum.Max, sum.DrawCalls, sum.Failures, raster.triangles)

	if tw != nil {
		if err := tw.Close(); err != nil {
			logger.Printf("trace close: %v", err)
		}
		if err := rec.Err(); err != nil {
			logger.Printf("trace write: %v", err)
		}
	}
	if idx != nil {
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := idx.Flush(fctx); err == nil {
			if n, err := idx.FrameCount(fctx, tw.Header().Run); err == nil {
				logger.Printf("indexed %d frames (%d dropped)", n, idx.Stats().DropTotal)
			}
		}
		fcancel()
		_ = idx.Close()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
