package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/subsplit/internal/auth"
	"github.com/mmynk/subsplit/pkg/api"
)

// AuthService exchanges the command layer's API key for group-scoped tokens.
type AuthService struct {
	verifier   *auth.APIKeyVerifier
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(verifier *auth.APIKeyVerifier, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		verifier:   verifier,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// IssueToken verifies the API key and returns a JWT for one group and member.
func (s *AuthService) IssueToken(ctx context.Context, req *connect.Request[api.IssueTokenRequest]) (*connect.Response[api.IssueTokenResponse], error) {
	s.logger.Info("IssueToken request", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	if req.Msg.GroupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}

	if err := s.verifier.Verify(req.Msg.APIKey); err != nil {
		s.logger.Warn("IssueToken rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidAPIKey)
	}

	token, expiresAt, err := s.jwtManager.Generate(req.Msg.GroupID, req.Msg.MemberID)
	if err != nil {
		s.logger.Error("Failed to generate token", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Token issued", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID, "expires_at", expiresAt)
	return connect.NewResponse(&api.IssueTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}), nil
}
