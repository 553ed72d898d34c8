// Package auth provides API-key authentication for the calculation server.
//
// APIKeyInterceptor(mode, header, key) returns a gRPC UnaryServerInterceptor
// and Middleware(mode, header, key, open...) the equivalent HTTP middleware.
// Both read the key from the named metadata entry or header.
//
// When mode != "apikey" or key == "", all calls pass through (useful for local
// development with auth disabled). An incorrect or absent key is rejected
// with codes.Unauthenticated or HTTP 401.
package auth
