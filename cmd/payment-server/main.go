package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/k-code-yt/payment-verify/internal/config"
	"github.com/k-code-yt/payment-verify/internal/payment/application"
	"github.com/k-code-yt/payment-verify/internal/payment/feed"
	"github.com/k-code-yt/payment-verify/internal/payment/handlers"
	"github.com/k-code-yt/payment-verify/internal/payment/infra/events"
	"github.com/k-code-yt/payment-verify/internal/payment/infra/mongorepo"
	"github.com/k-code-yt/payment-verify/internal/payment/infra/repo"
	grpcserver "github.com/k-code-yt/payment-verify/internal/payment/transport/grpc"
	pkgmongo "github.com/k-code-yt/payment-verify/pkg/db/mongo"
	"github.com/k-code-yt/payment-verify/pkg/db/postgres"
	pkgkafka "github.com/k-code-yt/payment-verify/pkg/kafka"
	"github.com/k-code-yt/payment-verify/pkg/logger"
	"github.com/k-code-yt/payment-verify/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg      *config.Config
	store    application.PaymentStore
	hub      *feed.Hub
	producer *pkgkafka.KafkaProducer
	metrics  *metrics.Metrics
	closers  []func()
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:     cfg,
		hub:     feed.NewHub(),
		metrics: metrics.New(),
	}
}

func (s *Server) connectStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	switch s.cfg.StoreKind {
	case config.StoreKind_Postgres:
		db, err := postgres.NewDBConn(ctx, s.cfg.StoreURI)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { db.Close() })

		if s.cfg.MigrateOnStart {
			if err := postgres.RunMigrations(s.cfg.StoreURI); err != nil {
				return err
			}
		}
		s.store = repo.NewPaymentRepo(db)

	case config.StoreKind_Mongo:
		client, err := pkgmongo.NewClient(ctx, s.cfg.StoreURI)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			client.Disconnect(dctx)
		})

		mr := mongorepo.NewPaymentRepo(client.Database(s.cfg.MongoDatabase))
		if err := mr.EnsureIndexes(ctx); err != nil {
			return err
		}
		s.store = mr

	default:
		return fmt.Errorf("unsupported store kind %q", s.cfg.StoreKind)
	}

	logrus.WithFields(logrus.Fields{
		"store": s.cfg.StoreKind,
	}).Info("STORE:CONNECTED")
	return nil
}

func (s *Server) publishers() ([]application.EventPublisher, error) {
	pubs := []application.EventPublisher{s.hub}
	if !s.cfg.KafkaEnabled() {
		return pubs, nil
	}

	kcfg, err := pkgkafka.NewKafkaConfig(s.cfg.KafkaBrokers, s.cfg.KafkaTopic, s.cfg.KafkaEncoder)
	if err != nil {
		return nil, err
	}
	encoder, err := events.NewMsgEncoder(kcfg.MsgEncoderType)
	if err != nil {
		return nil, err
	}
	producer, err := pkgkafka.NewKafkaProducer(kcfg)
	if err != nil {
		return nil, err
	}
	s.producer = producer

	logrus.WithFields(logrus.Fields{
		"brokers": kcfg.BootstrapServers(),
		"topic":   kcfg.Topic,
		"encoder": kcfg.MsgEncoderType,
	}).Info("KAFKA:PRODUCER_READY")
	return append(pubs, events.NewKafkaPublisher(producer, kcfg.Topic, encoder)), nil
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.connectStore(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}

	pubs, err := s.publishers()
	if err != nil {
		return err
	}

	svc := application.NewPaymentService(s.store, application.ServiceOptions{
		StrictDuplicateCheck: s.cfg.StrictDuplicateCheck,
		StoreTimeout:         s.cfg.StoreTimeout,
		Publishers:           pubs,
		Recorder:             s.metrics,
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go s.hub.Run(runCtx)

	srv := &http.Server{
		Addr: s.cfg.Addr(),
		Handler: handlers.NewRouter(handlers.RouterDeps{
			Payments: handlers.NewPaymentHandler(svc),
			Metrics:  s.metrics,
			Feed:     s.hub.ServeWS,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCH := make(chan error, 2)
	if addr := s.cfg.GrpcAddr(); addr != "" {
		hs := grpcserver.NewHealthServer(addr, svc, s.cfg.HealthCheckInterval)
		go func() {
			if err := hs.Listen(runCtx); err != nil {
				errCH <- fmt.Errorf("grpc health: %w", err)
			}
		}()
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr": srv.Addr,
		}).Info("SERVER:LISTENING")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCH <- err
		}
	}()

	select {
	case err := <-errCH:
		return err
	case <-ctx.Done():
	}

	logrus.Info("SERVER:SHUTTING_DOWN")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) Close() {
	if s.producer != nil {
		s.producer.Close(s.cfg.ShutdownTimeout)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func init() {
	if err := godotenv.Load(); err == nil {
		return
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		log.Fatal("Unable to get current file path")
	}
	envPath := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file found at %s", envPath)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("CONFIG:INVALID %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := NewServer(cfg)
	err = s.Run(ctx)
	s.Close()
	if err != nil {
		logrus.WithError(err).Error("SERVER:FAILED")
		os.Exit(1)
	}
	logrus.Info("SERVER:STOPPED")
}
