package rpc

import (
	"context"

	"bill-tracker/domain"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HealthRPC serves grpc.health.v1.Health from the same checks as GET
// /health. The empty service name and ServiceName both mean the whole
// process. Watch is not supported.
type HealthRPC struct {
	healthpb.UnimplementedHealthServer
	usecase     domain.HealthUsecase
	serviceName string
}

func NewHealthRPC(usecase domain.HealthUsecase, serviceName string) *HealthRPC {
	return &HealthRPC{usecase: usecase, serviceName: serviceName}
}

func (s *HealthRPC) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != s.serviceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if !s.usecase.Check(ctx).Healthy {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
