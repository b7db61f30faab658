// Package apiconnect wires the subsplit.v1 services to Connect handlers and clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/subsplit/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the LedgerService.
	LedgerServiceName = "subsplit.v1.LedgerService"
)

// Procedure paths of the LedgerService.
const (
	LedgerServiceCreateSubscriptionProcedure = "/subsplit.v1.LedgerService/CreateSubscription"
	LedgerServiceListSubscriptionsProcedure  = "/subsplit.v1.LedgerService/ListSubscriptions"
	LedgerServiceGetMemberDuesProcedure      = "/subsplit.v1.LedgerService/GetMemberDues"
	LedgerServiceMarkPaymentProcedure        = "/subsplit.v1.LedgerService/MarkPayment"
	LedgerServiceDeleteSubscriptionProcedure = "/subsplit.v1.LedgerService/DeleteSubscription"
	LedgerServiceFindSubscriptionProcedure   = "/subsplit.v1.LedgerService/FindSubscription"
	LedgerServiceGetGroupSummaryProcedure    = "/subsplit.v1.LedgerService/GetGroupSummary"
)

// LedgerServiceHandler is implemented by the ledger RPC service.
type LedgerServiceHandler interface {
	CreateSubscription(context.Context, *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.CreateSubscriptionResponse], error)
	ListSubscriptions(context.Context, *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error)
	GetMemberDues(context.Context, *connect.Request[api.GetMemberDuesRequest]) (*connect.Response[api.GetMemberDuesResponse], error)
	MarkPayment(context.Context, *connect.Request[api.MarkPaymentRequest]) (*connect.Response[api.MarkPaymentResponse], error)
	DeleteSubscription(context.Context, *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error)
	FindSubscription(context.Context, *connect.Request[api.FindSubscriptionRequest]) (*connect.Response[api.FindSubscriptionResponse], error)
	GetGroupSummary(context.Context, *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for the service and returns
// the path prefix to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	handlers := map[string]http.Handler{
		LedgerServiceCreateSubscriptionProcedure: connect.NewUnaryHandler(LedgerServiceCreateSubscriptionProcedure, svc.CreateSubscription, opts...),
		LedgerServiceListSubscriptionsProcedure:  connect.NewUnaryHandler(LedgerServiceListSubscriptionsProcedure, svc.ListSubscriptions, opts...),
		LedgerServiceGetMemberDuesProcedure:      connect.NewUnaryHandler(LedgerServiceGetMemberDuesProcedure, svc.GetMemberDues, opts...),
		LedgerServiceMarkPaymentProcedure:        connect.NewUnaryHandler(LedgerServiceMarkPaymentProcedure, svc.MarkPayment, opts...),
		LedgerServiceDeleteSubscriptionProcedure: connect.NewUnaryHandler(LedgerServiceDeleteSubscriptionProcedure, svc.DeleteSubscription, opts...),
		LedgerServiceFindSubscriptionProcedure:   connect.NewUnaryHandler(LedgerServiceFindSubscriptionProcedure, svc.FindSubscription, opts...),
		LedgerServiceGetGroupSummaryProcedure:    connect.NewUnaryHandler(LedgerServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...),
	}
	return "/" + LedgerServiceName + "/", dispatch(handlers)
}

// LedgerServiceClient calls a remote LedgerService.
type LedgerServiceClient interface {
	CreateSubscription(context.Context, *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.CreateSubscriptionResponse], error)
	ListSubscriptions(context.Context, *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error)
	GetMemberDues(context.Context, *connect.Request[api.GetMemberDuesRequest]) (*connect.Response[api.GetMemberDuesResponse], error)
	MarkPayment(context.Context, *connect.Request[api.MarkPaymentRequest]) (*connect.Response[api.MarkPaymentResponse], error)
	DeleteSubscription(context.Context, *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error)
	FindSubscription(context.Context, *connect.Request[api.FindSubscriptionRequest]) (*connect.Response[api.FindSubscriptionResponse], error)
	GetGroupSummary(context.Context, *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &ledgerServiceClient{
		createSubscription: connect.NewClient[api.CreateSubscriptionRequest, api.CreateSubscriptionResponse](httpClient, baseURL+LedgerServiceCreateSubscriptionProcedure, opts...),
		listSubscriptions:  connect.NewClient[api.ListSubscriptionsRequest, api.ListSubscriptionsResponse](httpClient, baseURL+LedgerServiceListSubscriptionsProcedure, opts...),
		getMemberDues:      connect.NewClient[api.GetMemberDuesRequest, api.GetMemberDuesResponse](httpClient, baseURL+LedgerServiceGetMemberDuesProcedure, opts...),
		markPayment:        connect.NewClient[api.MarkPaymentRequest, api.MarkPaymentResponse](httpClient, baseURL+LedgerServiceMarkPaymentProcedure, opts...),
		deleteSubscription: connect.NewClient[api.DeleteSubscriptionRequest, api.DeleteSubscriptionResponse](httpClient, baseURL+LedgerServiceDeleteSubscriptionProcedure, opts...),
		findSubscription:   connect.NewClient[api.FindSubscriptionRequest, api.FindSubscriptionResponse](httpClient, baseURL+LedgerServiceFindSubscriptionProcedure, opts...),
		getGroupSummary:    connect.NewClient[api.GetGroupSummaryRequest, api.GetGroupSummaryResponse](httpClient, baseURL+LedgerServiceGetGroupSummaryProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	createSubscription *connect.Client[api.CreateSubscriptionRequest, api.CreateSubscriptionResponse]
	listSubscriptions  *connect.Client[api.ListSubscriptionsRequest, api.ListSubscriptionsResponse]
	getMemberDues      *connect.Client[api.GetMemberDuesRequest, api.GetMemberDuesResponse]
	markPayment        *connect.Client[api.MarkPaymentRequest, api.MarkPaymentResponse]
	deleteSubscription *connect.Client[api.DeleteSubscriptionRequest, api.DeleteSubscriptionResponse]
	findSubscription   *connect.Client[api.FindSubscriptionRequest, api.FindSubscriptionResponse]
	getGroupSummary    *connect.Client[api.GetGroupSummaryRequest, api.GetGroupSummaryResponse]
}

func (c *ledgerServiceClient) CreateSubscription(ctx context.Context, req *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.CreateSubscriptionResponse], error) {
	return c.createSubscription.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListSubscriptions(ctx context.Context, req *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	return c.listSubscriptions.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetMemberDues(ctx context.Context, req *connect.Request[api.GetMemberDuesRequest]) (*connect.Response[api.GetMemberDuesResponse], error) {
	return c.getMemberDues.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) MarkPayment(ctx context.Context, req *connect.Request[api.MarkPaymentRequest]) (*connect.Response[api.MarkPaymentResponse], error) {
	return c.markPayment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteSubscription(ctx context.Context, req *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error) {
	return c.deleteSubscription.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) FindSubscription(ctx context.Context, req *connect.Request[api.FindSubscriptionRequest]) (*connect.Response[api.FindSubscriptionResponse], error) {
	return c.findSubscription.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) CreateSubscription(context.Context, *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.CreateSubscriptionResponse], error) {
	return nil, unimplemented(LedgerServiceCreateSubscriptionProcedure)
}

func (UnimplementedLedgerServiceHandler) ListSubscriptions(context.Context, *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	return nil, unimplemented(LedgerServiceListSubscriptionsProcedure)
}

func (UnimplementedLedgerServiceHandler) GetMemberDues(context.Context, *connect.Request[api.GetMemberDuesRequest]) (*connect.Response[api.GetMemberDuesResponse], error) {
	return nil, unimplemented(LedgerServiceGetMemberDuesProcedure)
}

func (UnimplementedLedgerServiceHandler) MarkPayment(context.Context, *connect.Request[api.MarkPaymentRequest]) (*connect.Response[api.MarkPaymentResponse], error) {
	return nil, unimplemented(LedgerServiceMarkPaymentProcedure)
}

func (UnimplementedLedgerServiceHandler) DeleteSubscription(context.Context, *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error) {
	return nil, unimplemented(LedgerServiceDeleteSubscriptionProcedure)
}

func (UnimplementedLedgerServiceHandler) FindSubscription(context.Context, *connect.Request[api.FindSubscriptionRequest]) (*connect.Response[api.FindSubscriptionResponse], error) {
	return nil, unimplemented(LedgerServiceFindSubscriptionProcedure)
}

func (UnimplementedLedgerServiceHandler) GetGroupSummary(context.Context, *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	return nil, unimplemented(LedgerServiceGetGroupSummaryProcedure)
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}

// withCodec puts the JSON codec first so callers can still override it.
func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

// dispatch routes requests to the handler registered for their exact path.
func dispatch(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
