package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/subsplit/internal/calculator"
	"github.com/mmynk/subsplit/internal/ledger"
	"github.com/mmynk/subsplit/internal/middleware"
	"github.com/mmynk/subsplit/pkg/api"
	"github.com/mmynk/subsplit/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService on top of a ledger.Ledger.
// Every call is scoped to the group of the caller's token.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService backed by the given ledger.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// authorizeGroup checks that the request targets the group the caller is authenticated for.
func authorizeGroup(ctx context.Context, groupID string) error {
	callerGroup := middleware.GetGroupID(ctx)
	if callerGroup == "" {
		return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if groupID == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}
	if groupID != callerGroup {
		return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("token is not valid for group %s", groupID))
	}
	return nil
}

// CreateSubscription creates a subscription and splits its cost across the members.
func (s *LedgerService) CreateSubscription(ctx context.Context, req *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.CreateSubscriptionResponse], error) {
	slog.Info("CreateSubscription request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"total_cost", req.Msg.TotalCost,
		"members_count", len(req.Msg.Members),
	)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	cost, err := parseCost(req.Msg.TotalCost)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	sub, err := s.ledger.CreateSubscription(ctx, req.Msg.GroupID, req.Msg.Name, cost, req.Msg.Members)
	if err != nil {
		slog.Error("CreateSubscription failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Subscription created",
		"subscription_key", sub.Key,
		"group_id", sub.GroupID,
		"members", sub.Members,
		"cost_per_person", sub.CostPerPerson.String(),
	)

	return connect.NewResponse(&api.CreateSubscriptionResponse{
		Subscription: toProtoSubscription(sub),
	}), nil
}

// ListSubscriptions returns all subscriptions of a group.
func (s *LedgerService) ListSubscriptions(ctx context.Context, req *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	slog.Info("ListSubscriptions request received", "group_id", req.Msg.GroupID)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	subs := s.ledger.ListSubscriptions(req.Msg.GroupID)
	protoSubs := make([]*api.Subscription, len(subs))
	for i, sub := range subs {
		protoSubs[i] = toProtoSubscription(sub)
	}

	slog.Info("ListSubscriptions successful", "group_id", req.Msg.GroupID, "count", len(subs))

	return connect.NewResponse(&api.ListSubscriptionsResponse{
		Subscriptions: protoSubs,
	}), nil
}

// GetMemberDues returns the member's share of each group subscription they belong to.
func (s *LedgerService) GetMemberDues(ctx context.Context, req *connect.Request[api.GetMemberDuesRequest]) (*connect.Response[api.GetMemberDuesResponse], error) {
	slog.Info("GetMemberDues request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("member_id required"))
	}

	dues := s.ledger.GetMemberDues(req.Msg.GroupID, req.Msg.MemberID)
	protoDues := make([]*api.Due, len(dues))
	for i, due := range dues {
		protoDues[i] = toProtoDue(due)
	}

	return connect.NewResponse(&api.GetMemberDuesResponse{
		Dues: protoDues,
	}), nil
}

// MarkPayment sets a member's paid flag on one subscription of the caller's group.
func (s *LedgerService) MarkPayment(ctx context.Context, req *connect.Request[api.MarkPaymentRequest]) (*connect.Response[api.MarkPaymentResponse], error) {
	paid := req.Msg.GetPaid()
	slog.Info("MarkPayment request received",
		"subscription_key", req.Msg.SubscriptionKey,
		"member_id", req.Msg.MemberID,
		"paid", paid,
	)

	callerGroup := middleware.GetGroupID(ctx)
	if callerGroup == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	// Subscriptions of other groups are reported as missing.
	sub, err := s.ledger.GetSubscription(req.Msg.SubscriptionKey)
	if err == nil && sub.GroupID != callerGroup {
		err = fmt.Errorf("subscription %s: %w", req.Msg.SubscriptionKey, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.ledger.MarkPayment(ctx, sub.Key, req.Msg.MemberID, paid); err != nil {
		slog.Warn("MarkPayment failed", "subscription_key", sub.Key, "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.MarkPaymentResponse{}
	for _, due := range s.ledger.GetMemberDues(sub.GroupID, req.Msg.MemberID) {
		if due.SubscriptionKey == sub.Key {
			resp.Due = toProtoDue(due)
			break
		}
	}

	slog.Info("Payment marked", "subscription_key", sub.Key, "member_id", req.Msg.MemberID, "paid", paid)

	return connect.NewResponse(resp), nil
}

// DeleteSubscription removes a subscription and its payment records.
func (s *LedgerService) DeleteSubscription(ctx context.Context, req *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error) {
	slog.Info("DeleteSubscription request received",
		"subscription_key", req.Msg.SubscriptionKey,
		"group_id", req.Msg.GroupID,
	)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteSubscription(ctx, req.Msg.SubscriptionKey, req.Msg.GroupID); err != nil {
		slog.Warn("DeleteSubscription failed", "subscription_key", req.Msg.SubscriptionKey, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Subscription deleted", "subscription_key", req.Msg.SubscriptionKey)

	return connect.NewResponse(&api.DeleteSubscriptionResponse{}), nil
}

// FindSubscription looks a subscription up by name within the group.
func (s *LedgerService) FindSubscription(ctx context.Context, req *connect.Request[api.FindSubscriptionRequest]) (*connect.Response[api.FindSubscriptionResponse], error) {
	slog.Info("FindSubscription request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	sub, err := s.ledger.FindSubscription(req.Msg.GroupID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.FindSubscriptionResponse{
		Subscription: toProtoSubscription(sub),
	}), nil
}

// GetGroupSummary reports payment progress and totals for the group.
func (s *LedgerService) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	slog.Info("GetGroupSummary request received", "group_id", req.Msg.GroupID)

	if err := authorizeGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	summary := s.ledger.Summarize(req.Msg.GroupID)
	protoSummaries := make([]*api.SubscriptionSummary, len(summary.Subscriptions))
	for i, sub := range summary.Subscriptions {
		protoSummaries[i] = toProtoSummary(sub)
	}

	slog.Info("GetGroupSummary successful",
		"group_id", req.Msg.GroupID,
		"subscriptions_count", len(summary.Subscriptions),
		"monthly_total", summary.MonthlyTotal.String(),
	)

	return connect.NewResponse(&api.GetGroupSummaryResponse{
		Subscriptions: protoSummaries,
		MonthlyTotal:  summary.MonthlyTotal.StringFixed(calculator.CentPlaces),
		Outstanding:   summary.Outstanding.StringFixed(calculator.CentPlaces),
	}), nil
}
