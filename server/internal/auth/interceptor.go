package auth

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// enabled reports whether key enforcement is on for mode and key.
func enabled(mode, key string) bool { return mode == "apikey" && key != "" }

// matches compares a presented key to the expected one in constant time.
func matches(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// APIKeyInterceptor returns a gRPC UnaryServerInterceptor that enforces API key
// authentication on every incoming call.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all calls are allowed (pass-through).
//   - Otherwise the interceptor reads the value of header from the incoming
//     gRPC metadata and compares it to key.
//   - A missing, empty, or incorrect key returns codes.Unauthenticated.
//
// header should be lowercase; gRPC normalises metadata keys to lowercase.
func APIKeyInterceptor(mode, header, key string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !enabled(mode, key) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		vals := md.Get(header)
		if len(vals) == 0 || !matches(vals[0], key) {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}

		return handler(ctx, req)
	}
}
