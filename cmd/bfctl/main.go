package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seagrayinc/bfble/internal/api"
	"github.com/seagrayinc/bfble/internal/config"
	"github.com/seagrayinc/bfble/internal/hid"
	"github.com/seagrayinc/bfble/internal/logging"
	"github.com/seagrayinc/bfble/internal/metrics"
	"github.com/seagrayinc/bfble/internal/session"
	"github.com/seagrayinc/bfble/internal/sink"
	"github.com/seagrayinc/bfble/internal/transport"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bfctl [-config file] [command]

commands:
  daemon        run the session, HTTP API and sink (default)
  read <type>   read one record and print it as JSON
  list          list HID devices
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	timeout := flag.Duration("timeout", 5*time.Second, "read command timeout")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	logger := logging.Init("bfctl", logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})
	metrics.Register()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	var err error
	switch flag.Arg(0) {
	case "", "daemon":
		err = runDaemon(ctx, cfg, logger)
	case "read":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		err = runRead(ctx, cfg, logger, flag.Arg(1), *timeout)
	case "list":
		err = runList()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bfctl failed")
	}
}

func newSession(cfg config.Config, logger zerolog.Logger) (*session.Session, transport.Transport, error) {
	sizes, err := cfg.Sizes()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.Checksum()
	if err != nil {
		return nil, nil, err
	}
	t, err := openTransport(cfg)
	if err != nil {
		return nil, nil, err
	}
	sessionLog := logger.With().Str("component", "session").Logger()
	s := session.New(t, session.Options{
		Sizes:         sizes,
		Checksum:      policy,
		Logger:        &sessionLog,
		CommandBuffer: cfg.Protocol.CommandBuffer,
	})
	return s, t, nil
}

func runDaemon(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	s, t, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go syncOnConnect(ctx, s)

	if cfg.API.Addr != "" {
		srv := api.New(s, cfg.API.CorsOrigins, logger.With().Str("component", "api").Logger())
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.API.Addr); err != nil {
				log.Error().Err(err).Msg("api stopped")
				cancel()
			}
		}()
	}

	if cfg.Sink.RedisAddr != "" {
		pub, err := sink.NewRedis(ctx, cfg.Sink.RedisAddr, cfg.Sink.RedisDB, cfg.Sink.Channel)
		if err != nil {
			return err
		}
		defer pub.Close()
		sk, err := sink.New(pub, cfg.Sink.Encoding, logger.With().Str("component", "sink").Logger())
		if err != nil {
			return err
		}
		go sk.Run(ctx, s, s.Sizes().Types())
	}

	log.Info().Str("transport", cfg.Transport.Kind).Msg("bfctl started")
	return runSession(ctx, s)
}

// runSession runs s until ctx ends. When the transport closes first, as it does after
// POST /disconnect, the process stays up and reports the link as disconnected.
func runSession(ctx context.Context, s *session.Session) error {
	if err := s.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() == nil {
		log.Warn().Msg("transport closed, staying up until shutdown")
		<-ctx.Done()
	}
	return nil
}

// syncOnConnect requests every known record each time the link comes up.
func syncOnConnect(ctx context.Context, s *session.Session) {
	states, cancel := s.SubscribeState()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			if st != transport.StateConnected {
				continue
			}
			for _, t := range s.Sizes().Types() {
				if err := s.RequestFullRecord(ctx, t); err != nil {
					log.Warn().Err(err).Stringer("type", t).Msg("initial read not queued")
				}
			}
		}
	}
}

func runRead(ctx context.Context, cfg config.Config, logger zerolog.Logger, name string, timeout time.Duration) error {
	rt, err := bafang.ParseRecordType(name)
	if err != nil {
		return err
	}
	s, t, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go s.Run(ctx)

	states, cancelStates := s.SubscribeState()
	defer cancelStates()
	for connected := false; !connected; {
		select {
		case st := <-states:
			connected = st == transport.StateConnected
		case <-ctx.Done():
			return fmt.Errorf("transport not connected: %w", ctx.Err())
		}
	}

	records, cancelRecords := s.Subscribe(rt)
	defer cancelRecords()
	if err := s.RequestFullRecord(ctx, rt); err != nil {
		return err
	}

	select {
	case rec := <-records:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case <-ctx.Done():
		return fmt.Errorf("no %s record before timeout: %w", rt, ctx.Err())
	}
}

func runList() error {
	mgr, err := hid.NewManager()
	if err != nil {
		return err
	}
	devices, err := mgr.List()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Printf("%04x:%04x  %-24s %-24s %s\n", d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
	}
	return nil
}
