package grpcx

import (
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "" status.
const ServiceName = "chat.v1.ChatService"

// Server is the ops-facing gRPC endpoint. Chat traffic does not go through it.
type Server struct {
	*grpc.Server
	health *health.Server
}

func NewServer(defaultTimeout time.Duration) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(defaultTimeout)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{Server: gs, health: hs}
	// до первой проверки хранилища считаем себя не готовыми
	s.SetServing(false)

	return s
}

// SetServing is driven by the storage probe job.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Stop переводит health в NOT_SERVING и дожидается активных вызовов.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.Server.GracefulStop()
}
