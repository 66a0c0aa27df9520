package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/dmitrijs2005/deepnote/internal/server/auth"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Unknown errors are logged
// and hidden behind codes.Internal.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, common.ErrorUnauthorized.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrAlreadyExists.Error())
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, common.ErrUnauthenticated.Error())
	}
	s.logger.Error(ctx, "request failed", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func userID(ctx context.Context) (string, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, common.ErrUnauthenticated.Error())
	}
	return id, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	u, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, "register", err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "user_id", u.ID)
	return &rpc.RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {

	res, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, s.toStatus(ctx, "login", err)
	}

	return &rpc.LoginResponse{
		UserID:       res.UserID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "refresh_token", err)
	}

	return &rpc.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) CreateNote(ctx context.Context, req *rpc.CreateNoteRequest) (*rpc.CreateNoteResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.notes.Create(ctx, uid, models.NoteFromInput(req.Note))
	if err != nil {
		return nil, s.toStatus(ctx, "create_note", err)
	}
	return &rpc.CreateNoteResponse{Note: n.RPC()}, nil
}

func (s *GRPCServer) UpdateNote(ctx context.Context, req *rpc.UpdateNoteRequest) (*rpc.UpdateNoteResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.notes.Update(ctx, uid, req.ID, models.PatchFromRPC(req.Patch))
	if err != nil {
		return nil, s.toStatus(ctx, "update_note", err)
	}
	return &rpc.UpdateNoteResponse{Note: n.RPC()}, nil
}

func (s *GRPCServer) DeleteNote(ctx context.Context, req *rpc.DeleteNoteRequest) (*rpc.DeleteNoteResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.notes.Delete(ctx, uid, req.ID); err != nil {
		return nil, s.toStatus(ctx, "delete_note", err)
	}
	return &rpc.DeleteNoteResponse{}, nil
}

func (s *GRPCServer) GetNoteOwner(ctx context.Context, req *rpc.GetNoteOwnerRequest) (*rpc.GetNoteOwnerResponse, error) {
	if _, err := userID(ctx); err != nil {
		return nil, err
	}

	owner, err := s.notes.Owner(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "get_note_owner", err)
	}
	return &rpc.GetNoteOwnerResponse{UserID: owner}, nil
}

func (s *GRPCServer) GetAudioUploadURL(ctx context.Context, req *rpc.GetAudioUploadURLRequest) (*rpc.GetAudioUploadURLResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.audio.UploadURL(ctx, uid, req.NoteID, req.ContentType)
	if err != nil {
		return nil, s.toStatus(ctx, "get_audio_upload_url", err)
	}
	return &rpc.GetAudioUploadURLResponse{URL: u.URL, AudioKey: u.Key, ExpiresAt: u.ExpiresAt}, nil
}

func (s *GRPCServer) GetAudioDownloadURL(ctx context.Context, req *rpc.GetAudioDownloadURLRequest) (*rpc.GetAudioDownloadURLResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.audio.DownloadURL(ctx, uid, req.NoteID)
	if err != nil {
		return nil, s.toStatus(ctx, "get_audio_download_url", err)
	}
	return &rpc.GetAudioDownloadURLResponse{URL: u.URL, ExpiresAt: u.ExpiresAt}, nil
}
