package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/subsplit/internal/auth"
	"github.com/mmynk/subsplit/pkg/api"
	"github.com/mmynk/subsplit/pkg/api/apiconnect"
)

// echoGroupService answers ListSubscriptions with the caller's group as the only key.
type echoGroupService struct {
	apiconnect.UnimplementedLedgerServiceHandler
}

func (echoGroupService) ListSubscriptions(ctx context.Context, req *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	return connect.NewResponse(&api.ListSubscriptionsResponse{
		Subscriptions: []*api.Subscription{{Key: GetGroupID(ctx), Name: GetMemberID(ctx)}},
	}), nil
}

func setupAuthServer(t *testing.T, jwtManager *auth.JWTManager) apiconnect.LedgerServiceClient {
	t.Helper()

	path, handler := apiconnect.NewLedgerServiceHandler(echoGroupService{},
		connect.WithInterceptors(RequireAuth(jwtManager), LoggingInterceptor()),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(HTTPLogging(mux))
	t.Cleanup(server.Close)

	return apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL)
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-test-secret", time.Hour)
	client := setupAuthServer(t, jwtManager)
	ctx := context.Background()

	t.Run("valid token puts caller in context", func(t *testing.T) {
		token, _, err := jwtManager.Generate("g1", "alice")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		req := connect.NewRequest(&api.ListSubscriptionsRequest{GroupID: "g1"})
		req.Header().Set("Authorization", "Bearer "+token)

		resp, err := client.ListSubscriptions(ctx, req)
		if err != nil {
			t.Fatalf("ListSubscriptions failed: %v", err)
		}
		got := resp.Msg.Subscriptions[0]
		if got.Key != "g1" || got.Name != "alice" {
			t.Errorf("caller: got group %q member %q", got.Key, got.Name)
		}
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "bad token", header: "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.ListSubscriptionsRequest{GroupID: "g1"})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := client.ListSubscriptions(ctx, req)
			if connect.CodeOf(err) != connect.CodeUnauthenticated {
				t.Errorf("expected CodeUnauthenticated, got %v", err)
			}
		})
	}
}

func TestWithCaller(t *testing.T) {
	ctx := WithCaller(context.Background(), "g9", "bob")
	if GetGroupID(ctx) != "g9" || GetMemberID(ctx) != "bob" {
		t.Errorf("got group %q member %q", GetGroupID(ctx), GetMemberID(ctx))
	}
	if GetGroupID(context.Background()) != "" {
		t.Error("expected empty group for bare context")
	}
}
