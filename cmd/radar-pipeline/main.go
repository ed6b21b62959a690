// Command radar-pipeline runs the FMCW radar detection-and-tracking
// pipeline: it binds the UDP listener, drives the frame loop, and serves
// the admin HTTP surface until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/classify"
	"github.com/banshee-data/radar-pipeline/internal/config"
	"github.com/banshee-data/radar-pipeline/internal/fanout"
	"github.com/banshee-data/radar-pipeline/internal/filter"
	"github.com/banshee-data/radar-pipeline/internal/httpapi"
	"github.com/banshee-data/radar-pipeline/internal/httputil"
	"github.com/banshee-data/radar-pipeline/internal/monitoring"
	"github.com/banshee-data/radar-pipeline/internal/pipeline"
	"github.com/banshee-data/radar-pipeline/internal/statsdb"
	"github.com/banshee-data/radar-pipeline/internal/track"
	"github.com/banshee-data/radar-pipeline/internal/wire"
)

var (
	configPath  = flag.String("config", "radar.json", "Path to the pipeline config file")
	listen      = flag.String("listen", ":8081", "Admin HTTP listen address")
	devMode     = flag.Bool("dev", false, "Run against a mock UDP socket instead of a real radar")
	fixturePath = flag.String("fixture", "", "With -dev, replay recorded datagrams from this JSON fixture instead of an empty mock socket")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	reader, err := newReader(cfg)
	if err != nil {
		log.Fatalf("failed to bind radar socket: %v", err)
	}
	defer reader.Close()

	gateway, err := newClassifier(cfg)
	if err != nil {
		log.Fatalf("failed to configure classifier: %v", err)
	}

	sinks, err := newSinks(cfg)
	if err != nil {
		log.Fatalf("failed to configure output sinks: %v", err)
	}
	fan := fanout.New(sinks...)

	ctrl := pipeline.New(*cfg, reader, filter.New(cfg.ToFilterConfig()), gateway, track.New(cfg.ToTrackerConfig()), fan)

	if cfg.StatsDBPath != "" {
		sdb, err := statsdb.Open(cfg.StatsDBPath)
		if err != nil {
			log.Fatalf("failed to open stats database: %v", err)
		}
		defer sdb.Close()
		if err := ctrl.SetStatsDB(sdb); err != nil {
			log.Fatalf("failed to load persisted stats counters: %v", err)
		}
	}

	admin := httpapi.NewServer(ctrl)
	ctrl.SetAdmin(admin)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
		log.Print("pipeline loop terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runAdminServer(ctx, admin)
	}()

	wg.Wait()
	shutdownSinks(ctrl)
	log.Print("graceful shutdown complete")
}

func newReader(cfg *config.Config) (*wire.Reader, error) {
	if *devMode {
		var datagrams []wire.MockDatagram
		if *fixturePath != "" {
			var err error
			datagrams, err = wire.LoadFixture(*fixturePath)
			if err != nil {
				return nil, err
			}
		}
		return wire.NewReader(&wire.MockUDPSocketFactory{Socket: wire.NewMockUDPSocket(datagrams)}, "127.0.0.1:0")
	}
	addr := cfg.LocalIP + ":" + strconv.Itoa(cfg.LocalPort)
	return wire.NewReader(wire.RealUDPSocketFactory{}, addr)
}

func newClassifier(cfg *config.Config) (*classify.Gateway, error) {
	if cfg.ClassifierURL == "" {
		return classify.NewGateway(classify.NewRuleBased()), nil
	}
	remote := classify.NewRemoteGateway(httputil.NewStandardClient(nil), cfg.ClassifierURL)
	return classify.NewGateway(remote), nil
}

func newSinks(cfg *config.Config) ([]fanout.Sink, error) {
	sinks := []fanout.Sink{fanout.NewHistorySink(cfg.OutputFile)}

	if cfg.SendMQTT {
		mqttCfg := fanout.DefaultMQTTConfig()
		mqttCfg.Broker = cfg.MQTTBroker
		mqttCfg.Port = cfg.MQTTPort
		mqttCfg.Topic = cfg.MQTTChannel
		mqttCfg.Username = cfg.MQTTUsername
		mqttCfg.Password = cfg.MQTTPassword
		sink, err := fanout.NewMQTTSink(mqttCfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.SendUART {
		sink, err := fanout.NewUARTSink(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// shutdownSinks flushes every sink, but won't wait past config.HistoryFlushGrace
// for a stuck sink (a wedged serial write, say) to drain.
func shutdownSinks(ctrl *pipeline.Controller) {
	done := make(chan error, 1)
	go func() { done <- ctrl.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("sink shutdown error: %v", err)
		}
	case <-time.After(config.HistoryFlushGrace):
		log.Print("sink shutdown grace period elapsed, proceeding")
	}
}

func runAdminServer(ctx context.Context, admin *httpapi.Server) {
	server := &http.Server{
		Addr:    *listen,
		Handler: admin.ServeMux(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("admin server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down admin server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("admin server shutdown error: %v", err)
	}
}

