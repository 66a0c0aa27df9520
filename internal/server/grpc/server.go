// Package grpc exposes the note service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/dmitrijs2005/deepnote/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type userSvc interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (string, error)
}

type noteSvc interface {
	Create(ctx context.Context, userID string, in models.Note) (*models.Note, error)
	Update(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, userID, id string) error
	Owner(ctx context.Context, id string) (string, error)
}

type audioSvc interface {
	UploadURL(ctx context.Context, userID, noteID, contentType string) (*services.PresignedURL, error)
	DownloadURL(ctx context.Context, userID, noteID string) (*services.PresignedURL, error)
}

type GRPCServer struct {
	rpc.UnimplementedNoteServiceServer
	address string
	users   userSvc
	notes   noteSvc
	audio   audioSvc
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us userSvc, ns noteSvc, as audioSvc) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		notes:   ns,
		audio:   as,
	}
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	rpc.RegisterNoteServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
