package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/dmitrijs2005/deepnote/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthPrefix = "/grpc.health.v1.Health/"

// publicMethods are served without an access token.
var publicMethods = map[string]struct{}{
	rpc.MethodRegister:     {},
	rpc.MethodLogin:        {},
	rpc.MethodRefreshToken: {},
}

func isPublic(method string) bool {
	if _, ok := publicMethods[method]; ok {
		return true
	}
	return strings.HasPrefix(method, healthPrefix)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := s.users.Authenticate(accessToken)
	if err != nil {
		// the client refreshes on exactly this message
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return handler(auth.WithUserID(ctx, userID), req)
}
