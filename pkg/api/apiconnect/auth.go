package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/subsplit/pkg/api"
)

const (
	// AuthServiceName is the fully-qualified name of the AuthService.
	AuthServiceName = "subsplit.v1.AuthService"

	AuthServiceIssueTokenProcedure = "/subsplit.v1.AuthService/IssueToken"
)

// AuthServiceHandler is implemented by the token-issuing service.
type AuthServiceHandler interface {
	IssueToken(context.Context, *connect.Request[api.IssueTokenRequest]) (*connect.Response[api.IssueTokenResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler for the AuthService.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	return "/" + AuthServiceName + "/", dispatch(map[string]http.Handler{
		AuthServiceIssueTokenProcedure: connect.NewUnaryHandler(AuthServiceIssueTokenProcedure, svc.IssueToken, opts...),
	})
}

// AuthServiceClient calls a remote AuthService.
type AuthServiceClient interface {
	IssueToken(context.Context, *connect.Request[api.IssueTokenRequest]) (*connect.Response[api.IssueTokenResponse], error)
}

// NewAuthServiceClient constructs a client for the AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &authServiceClient{
		issueToken: connect.NewClient[api.IssueTokenRequest, api.IssueTokenResponse](httpClient, baseURL+AuthServiceIssueTokenProcedure, withClientCodec(opts)...),
	}
}

type authServiceClient struct {
	issueToken *connect.Client[api.IssueTokenRequest, api.IssueTokenResponse]
}

func (c *authServiceClient) IssueToken(ctx context.Context, req *connect.Request[api.IssueTokenRequest]) (*connect.Response[api.IssueTokenResponse], error) {
	return c.issueToken.CallUnary(ctx, req)
}
