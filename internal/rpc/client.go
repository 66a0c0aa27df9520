package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// NoteServiceClient is the client API of deepnote.NoteService.
type NoteServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	CreateNote(ctx context.Context, in *CreateNoteRequest, opts ...grpc.CallOption) (*CreateNoteResponse, error)
	UpdateNote(ctx context.Context, in *UpdateNoteRequest, opts ...grpc.CallOption) (*UpdateNoteResponse, error)
	DeleteNote(ctx context.Context, in *DeleteNoteRequest, opts ...grpc.CallOption) (*DeleteNoteResponse, error)
	GetNoteOwner(ctx context.Context, in *GetNoteOwnerRequest, opts ...grpc.CallOption) (*GetNoteOwnerResponse, error)
	GetAudioUploadURL(ctx context.Context, in *GetAudioUploadURLRequest, opts ...grpc.CallOption) (*GetAudioUploadURLResponse, error)
	GetAudioDownloadURL(ctx context.Context, in *GetAudioDownloadURLRequest, opts ...grpc.CallOption) (*GetAudioDownloadURLResponse, error)
}

type noteServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewNoteServiceClient returns a stub that sends every call with the JSON codec.
func NewNoteServiceClient(cc grpc.ClientConnInterface) NoteServiceClient {
	return &noteServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *noteServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *noteServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *noteServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *noteServiceClient) CreateNote(ctx context.Context, in *CreateNoteRequest, opts ...grpc.CallOption) (*CreateNoteResponse, error) {
	return invoke[CreateNoteResponse](ctx, c.cc, MethodCreateNote, in, opts)
}

func (c *noteServiceClient) UpdateNote(ctx context.Context, in *UpdateNoteRequest, opts ...grpc.CallOption) (*UpdateNoteResponse, error) {
	return invoke[UpdateNoteResponse](ctx, c.cc, MethodUpdateNote, in, opts)
}

func (c *noteServiceClient) DeleteNote(ctx context.Context, in *DeleteNoteRequest, opts ...grpc.CallOption) (*DeleteNoteResponse, error) {
	return invoke[DeleteNoteResponse](ctx, c.cc, MethodDeleteNote, in, opts)
}

func (c *noteServiceClient) GetNoteOwner(ctx context.Context, in *GetNoteOwnerRequest, opts ...grpc.CallOption) (*GetNoteOwnerResponse, error) {
	return invoke[GetNoteOwnerResponse](ctx, c.cc, MethodGetNoteOwner, in, opts)
}

func (c *noteServiceClient) GetAudioUploadURL(ctx context.Context, in *GetAudioUploadURLRequest, opts ...grpc.CallOption) (*GetAudioUploadURLResponse, error) {
	return invoke[GetAudioUploadURLResponse](ctx, c.cc, MethodGetAudioUploadURL, in, opts)
}

func (c *noteServiceClient) GetAudioDownloadURL(ctx context.Context, in *GetAudioDownloadURLRequest, opts ...grpc.CallOption) (*GetAudioDownloadURLResponse, error) {
	return invoke[GetAudioDownloadURLResponse](ctx, c.cc, MethodGetAudioDownloadURL, in, opts)
}
