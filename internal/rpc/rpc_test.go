package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeServer struct {
	UnimplementedNoteServiceServer
	gotCreate *CreateNoteRequest
	gotToken  string
}

func (f *fakeServer) CreateNote(ctx context.Context, in *CreateNoteRequest) (*CreateNoteResponse, error) {
	f.gotCreate = in
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("access_token"); len(v) > 0 {
			f.gotToken = v[0]
		}
	}
	return &CreateNoteResponse{Note: Note{
		ID:        in.Note.ID,
		UserID:    "u1",
		Title:     in.Note.Title,
		Type:      in.Note.Type,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}}, nil
}

func (f *fakeServer) GetNoteOwner(ctx context.Context, in *GetNoteOwnerRequest) (*GetNoteOwnerResponse, error) {
	return nil, status.Error(codes.NotFound, "no such note")
}

func startServer(t *testing.T, srv NoteServiceServer, opts ...grpc.ServerOption) NoteServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterNoteServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewNoteServiceClient(conn)
}

func TestRoundTrip_JSONCodec(t *testing.T) {
	fake := &fakeServer{}
	c := startServer(t, fake)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "access_token", "tok")
	resp, err := c.CreateNote(ctx, &CreateNoteRequest{Note: NoteInput{ID: "n1", Title: "groceries", Type: "text"}})
	require.NoError(t, err)

	assert.Equal(t, "n1", fake.gotCreate.Note.ID)
	assert.Equal(t, "tok", fake.gotToken)
	assert.Equal(t, "u1", resp.Note.UserID)
	assert.Equal(t, "groceries", resp.Note.Title)
	assert.True(t, resp.Note.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestStatusErrorsPropagate(t *testing.T) {
	c := startServer(t, &fakeServer{})

	_, err := c.GetNoteOwner(context.Background(), &GetNoteOwnerRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Login(context.Background(), &LoginRequest{Username: "a"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen []string
	icpt := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = append(seen, info.FullMethod)
		if info.FullMethod == MethodDeleteNote {
			return nil, status.Error(codes.PermissionDenied, "nope")
		}
		return handler(ctx, req)
	}
	c := startServer(t, &fakeServer{}, grpc.UnaryInterceptor(icpt))

	_, err := c.CreateNote(context.Background(), &CreateNoteRequest{Note: NoteInput{Title: "x"}})
	require.NoError(t, err)
	_, err = c.DeleteNote(context.Background(), &DeleteNoteRequest{ID: "n1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	assert.Equal(t, []string{MethodCreateNote, MethodDeleteNote}, seen)
}

func TestNotePatchEmpty(t *testing.T) {
	assert.True(t, NotePatch{}.Empty())
	pinned := true
	assert.False(t, NotePatch{Pinned: &pinned}.Empty())
}

func TestMethodNames(t *testing.T) {
	names := make([]string, 0, len(NoteServiceDesc.Methods))
	for _, m := range NoteServiceDesc.Methods {
		names = append(names, m.MethodName)
	}
	assert.Equal(t, []string{
		"Register", "Login", "RefreshToken", "CreateNote", "UpdateNote",
		"DeleteNote", "GetNoteOwner", "GetAudioUploadURL", "GetAudioDownloadURL",
	}, names)
}
