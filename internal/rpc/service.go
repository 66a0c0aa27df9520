package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "deepnote.NoteService"

// Full method names, as seen by interceptors in grpc.UnaryServerInfo.
const (
	MethodRegister            = "/" + ServiceName + "/Register"
	MethodLogin               = "/" + ServiceName + "/Login"
	MethodRefreshToken        = "/" + ServiceName + "/RefreshToken"
	MethodCreateNote          = "/" + ServiceName + "/CreateNote"
	MethodUpdateNote          = "/" + ServiceName + "/UpdateNote"
	MethodDeleteNote          = "/" + ServiceName + "/DeleteNote"
	MethodGetNoteOwner        = "/" + ServiceName + "/GetNoteOwner"
	MethodGetAudioUploadURL   = "/" + ServiceName + "/GetAudioUploadURL"
	MethodGetAudioDownloadURL = "/" + ServiceName + "/GetAudioDownloadURL"
)

// NoteServiceServer is implemented by the server.
type NoteServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	CreateNote(context.Context, *CreateNoteRequest) (*CreateNoteResponse, error)
	UpdateNote(context.Context, *UpdateNoteRequest) (*UpdateNoteResponse, error)
	DeleteNote(context.Context, *DeleteNoteRequest) (*DeleteNoteResponse, error)
	GetNoteOwner(context.Context, *GetNoteOwnerRequest) (*GetNoteOwnerResponse, error)
	GetAudioUploadURL(context.Context, *GetAudioUploadURLRequest) (*GetAudioUploadURLResponse, error)
	GetAudioDownloadURL(context.Context, *GetAudioDownloadURLRequest) (*GetAudioDownloadURLResponse, error)
}

// UnimplementedNoteServiceServer answers every method with codes.Unimplemented.
// Embed it to implement a subset of the service.
type UnimplementedNoteServiceServer struct{}

func (UnimplementedNoteServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedNoteServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedNoteServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedNoteServiceServer) CreateNote(context.Context, *CreateNoteRequest) (*CreateNoteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateNote not implemented")
}
func (UnimplementedNoteServiceServer) UpdateNote(context.Context, *UpdateNoteRequest) (*UpdateNoteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateNote not implemented")
}
func (UnimplementedNoteServiceServer) DeleteNote(context.Context, *DeleteNoteRequest) (*DeleteNoteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteNote not implemented")
}
func (UnimplementedNoteServiceServer) GetNoteOwner(context.Context, *GetNoteOwnerRequest) (*GetNoteOwnerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetNoteOwner not implemented")
}
func (UnimplementedNoteServiceServer) GetAudioUploadURL(context.Context, *GetAudioUploadURLRequest) (*GetAudioUploadURLResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAudioUploadURL not implemented")
}
func (UnimplementedNoteServiceServer) GetAudioDownloadURL(context.Context, *GetAudioDownloadURLRequest) (*GetAudioDownloadURLResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAudioDownloadURL not implemented")
}

// RegisterNoteServiceServer attaches srv to a gRPC server.
func RegisterNoteServiceServer(s grpc.ServiceRegistrar, srv NoteServiceServer) {
	s.RegisterService(&NoteServiceDesc, srv)
}

// NoteServiceDesc describes deepnote.NoteService for grpc.Server.
var NoteServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, NoteServiceServer.Register),
		unary(MethodLogin, NoteServiceServer.Login),
		unary(MethodRefreshToken, NoteServiceServer.RefreshToken),
		unary(MethodCreateNote, NoteServiceServer.CreateNote),
		unary(MethodUpdateNote, NoteServiceServer.UpdateNote),
		unary(MethodDeleteNote, NoteServiceServer.DeleteNote),
		unary(MethodGetNoteOwner, NoteServiceServer.GetNoteOwner),
		unary(MethodGetAudioUploadURL, NoteServiceServer.GetAudioUploadURL),
		unary(MethodGetAudioDownloadURL, NoteServiceServer.GetAudioDownloadURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deepnote/note_service.json",
}

func unary[Req, Resp any](fullMethod string, call func(NoteServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: fullMethod[len(ServiceName)+2:],
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(NoteServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
