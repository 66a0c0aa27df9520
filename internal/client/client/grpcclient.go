package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const defaultCallTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.NoteServiceClient
	health      healthpb.HealthClient
	creds       *Credentials
	callTimeout time.Duration

	// serializes refreshes so concurrent expired calls rotate the token once
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, ok := ctx.Deadline(); !ok && s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	sent := s.creds.AccessToken()
	err := invoker(withAccessToken(ctx, sent), method, req, reply, cc, opts...)
	if err == nil || method == rpc.MethodRefreshToken {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if s.creds.RefreshToken() == "" {
		return err
	}

	if err := s.refreshIfStale(ctx, sent); err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, s.creds.AccessToken()), method, req, reply, cc, opts...)
}

// refreshIfStale rotates the tokens unless another call already replaced
// the access token that was rejected.
func (s *GRPCClient) refreshIfStale(ctx context.Context, rejected string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.creds.AccessToken() != rejected {
		return nil
	}
	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: s.creds.RefreshToken()})
	if err != nil {
		return err
	}
	s.creds.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func NewGRPCClient(endpointURL string, creds *Credentials) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, creds: creds, callTimeout: defaultCallTimeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewNoteServiceClient(conn)
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Register creates an account and returns its user id.
func (s *GRPCClient) Register(ctx context.Context, username, password string) (string, error) {
	resp, err := s.client.Register(ctx, &rpc.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.UserID, nil
}

// Login authenticates and stores the issued tokens in the shared credentials.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	s.creds.Set(resp.UserID, resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

// Refresh exchanges the current refresh token for a new token pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	if s.creds.RefreshToken() == "" {
		return common.ErrUnauthenticated
	}
	if err := s.refreshIfStale(ctx, s.creds.AccessToken()); err != nil {
		return s.mapError(err)
	}
	return nil
}

// Ping asks the standard health service whether NoteService is serving.
func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) CreateNote(ctx context.Context, in rpc.NoteInput) (*models.Note, error) {
	resp, err := s.client.CreateNote(ctx, &rpc.CreateNoteRequest{Note: in})
	if err != nil {
		return nil, s.mapError(err)
	}
	return NoteFromRPC(&resp.Note), nil
}

func (s *GRPCClient) UpdateNote(ctx context.Context, id string, patch rpc.NotePatch) (*models.Note, error) {
	resp, err := s.client.UpdateNote(ctx, &rpc.UpdateNoteRequest{ID: id, Patch: patch})
	if err != nil {
		return nil, s.mapError(err)
	}
	return NoteFromRPC(&resp.Note), nil
}

func (s *GRPCClient) DeleteNote(ctx context.Context, id string) error {
	if _, err := s.client.DeleteNote(ctx, &rpc.DeleteNoteRequest{ID: id}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) GetNoteOwner(ctx context.Context, id string) (string, error) {
	resp, err := s.client.GetNoteOwner(ctx, &rpc.GetNoteOwnerRequest{ID: id})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.UserID, nil
}

// AudioUploadURL returns a presigned PUT URL and the object key it writes.
func (s *GRPCClient) AudioUploadURL(ctx context.Context, noteID, contentType string) (string, string, error) {
	resp, err := s.client.GetAudioUploadURL(ctx, &rpc.GetAudioUploadURLRequest{NoteID: noteID, ContentType: contentType})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.URL, resp.AudioKey, nil
}

func (s *GRPCClient) AudioDownloadURL(ctx context.Context, noteID string) (string, error) {
	resp, err := s.client.GetAudioDownloadURL(ctx, &rpc.GetAudioDownloadURLRequest{NoteID: noteID})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return common.ErrUnauthenticated
	case codes.PermissionDenied:
		return common.ErrorUnauthorized
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.AlreadyExists:
		return common.ErrAlreadyExists
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// NoteFromRPC converts a wire note into the client model.
func NoteFromRPC(n *rpc.Note) *models.Note {
	return &models.Note{
		ID:            n.ID,
		UserID:        n.UserID,
		Title:         n.Title,
		Content:       n.Content,
		Transcription: n.Transcription,
		Type:          models.NoteType(n.Type),
		Color:         n.Color,
		Pinned:        n.Pinned,
		Archived:      n.Archived,
		AudioKey:      n.AudioKey,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}
