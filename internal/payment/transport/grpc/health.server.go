package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "payments.PaymentService"

const DefaultRefreshInterval = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 and mirrors the store ping into the
// serving status of both ServiceName and the server-wide "" entry.
type HealthServer struct {
	addr     string
	pinger   Pinger
	interval time.Duration
	health   *health.Server
}

func NewHealthServer(addr string, pinger Pinger, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{
		addr:     addr,
		pinger:   pinger,
		interval: interval,
		health:   hs,
	}
}

func (s *HealthServer) Health() healthpb.HealthServer {
	return s.health
}

// Refresh pings once and publishes the result.
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"service": ServiceName,
		}).Warnf("GRPC:HEALTH_NOT_SERVING %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Listen blocks until ctx is cancelled or the listener fails.
func (s *HealthServer) Listen(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *HealthServer) Serve(ctx context.Context, l net.Listener) error {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, s.health)
	logrus.Infof("Registered GRPC Server on addr = %s, info = %v", l.Addr(), server.GetServiceInfo())

	go s.refreshLoop(ctx)
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		server.GracefulStop()
	}()

	return server.Serve(l)
}

func (s *HealthServer) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, s.interval)
		s.Refresh(pctx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
