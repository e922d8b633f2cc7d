package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// watchDatabase pings the database every interval and publishes the result as
// the serving status of both the server ("") and UsersService.
func (s *GRPCServer) watchDatabase(ctx context.Context) {
	last := healthpb.HealthCheckResponse_UNKNOWN
	last = s.checkDatabase(ctx, last)

	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = s.checkDatabase(ctx, last)
		}
	}
}

func (s *GRPCServer) checkDatabase(ctx context.Context, last healthpb.HealthCheckResponse_ServingStatus) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	next := healthpb.HealthCheckResponse_SERVING
	err := s.db.PingContext(pingCtx)
	if err != nil {
		next = healthpb.HealthCheckResponse_NOT_SERVING
	}

	if ctx.Err() != nil {
		return last
	}

	if next != last {
		if err != nil {
			s.logger.Warn(ctx, "database unreachable", "error", err)
		} else {
			s.logger.Info(ctx, "database reachable")
		}
	}

	s.health.SetServingStatus("", next)
	s.health.SetServingStatus(UsersService, next)
	return next
}
