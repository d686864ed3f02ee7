package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
)

const (
	AuthServiceName     = "verdant.v1.AuthService"
	GroupServiceName    = "verdant.v1.GroupService"
	ExpenseServiceName  = "verdant.v1.ExpenseService"
	ChatServiceName     = "verdant.v1.ChatService"
	GoalServiceName     = "verdant.v1.GoalService"
	RealtimeServiceName = "verdant.v1.RealtimeService"
)

const (
	AuthServiceRegisterProcedure = "/verdant.v1.AuthService/Register"
	AuthServiceLoginProcedure    = "/verdant.v1.AuthService/Login"

	GroupServiceCreateGroupProcedure  = "/verdant.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = "/verdant.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure   = "/verdant.v1.GroupService/ListGroups"
	GroupServiceJoinGroupProcedure    = "/verdant.v1.GroupService/JoinGroup"
	GroupServiceUpdateGroupProcedure  = "/verdant.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure  = "/verdant.v1.GroupService/DeleteGroup"
	GroupServiceListMembersProcedure  = "/verdant.v1.GroupService/ListMembers"
	GroupServiceRemoveMemberProcedure = "/verdant.v1.GroupService/RemoveMember"

	ExpenseServiceListExpensesProcedure  = "/verdant.v1.ExpenseService/ListExpenses"
	ExpenseServiceCreateExpenseProcedure = "/verdant.v1.ExpenseService/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure = "/verdant.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/verdant.v1.ExpenseService/DeleteExpense"
	ExpenseServiceReactProcedure         = "/verdant.v1.ExpenseService/React"

	ChatServiceListMessagesProcedure   = "/verdant.v1.ChatService/ListMessages"
	ChatServiceSendMessageProcedure    = "/verdant.v1.ChatService/SendMessage"
	ChatServiceDeleteMessagesProcedure = "/verdant.v1.ChatService/DeleteMessages"

	GoalServiceListGoalsProcedure  = "/verdant.v1.GoalService/ListGoals"
	GoalServiceCreateGoalProcedure = "/verdant.v1.GoalService/CreateGoal"
	GoalServiceDeleteGoalProcedure = "/verdant.v1.GoalService/DeleteGoal"
	GoalServiceContributeProcedure = "/verdant.v1.GoalService/Contribute"

	RealtimeServiceSubscribeProcedure = "/verdant.v1.RealtimeService/Subscribe"
)

type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
}

type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error)
	GetGroup(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	JoinGroup(context.Context, *connect.Request[JoinGroupRequest]) (*connect.Response[GroupResponse], error)
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[GroupRequest]) (*connect.Response[Empty], error)
	ListMembers(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListMembersResponse], error)
	RemoveMember(context.Context, *connect.Request[RemoveMemberRequest]) (*connect.Response[Empty], error)
}

type ExpenseServiceHandler interface {
	ListExpenses(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListExpensesResponse], error)
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[Empty], error)
	React(context.Context, *connect.Request[ReactRequest]) (*connect.Response[ReactResponse], error)
}

type ChatServiceHandler interface {
	ListMessages(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListMessagesResponse], error)
	SendMessage(context.Context, *connect.Request[SendMessageRequest]) (*connect.Response[MessageResponse], error)
	DeleteMessages(context.Context, *connect.Request[DeleteMessagesRequest]) (*connect.Response[Empty], error)
}

type GoalServiceHandler interface {
	ListGoals(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListGoalsResponse], error)
	CreateGoal(context.Context, *connect.Request[CreateGoalRequest]) (*connect.Response[GoalResponse], error)
	DeleteGoal(context.Context, *connect.Request[DeleteGoalRequest]) (*connect.Response[Empty], error)
	Contribute(context.Context, *connect.Request[ContributeRequest]) (*connect.Response[GoalResponse], error)
}

type RealtimeServiceHandler interface {
	Subscribe(context.Context, *connect.Request[GroupRequest], *connect.ServerStream[models.ChangeEvent]) error
}

// handlerOptions puts the JSON codec ahead of caller options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func servicePath(name string) string { return "/" + name + "/" }

// NewAuthServiceHandler builds an HTTP handler for the auth service and
// returns the path to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	return servicePath(AuthServiceName), mux
}

// NewGroupServiceHandler builds an HTTP handler for the group service.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceJoinGroupProcedure, connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...))
	mux.Handle(GroupServiceUpdateGroupProcedure, connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...))
	mux.Handle(GroupServiceDeleteGroupProcedure, connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...))
	mux.Handle(GroupServiceListMembersProcedure, connect.NewUnaryHandler(GroupServiceListMembersProcedure, svc.ListMembers, opts...))
	mux.Handle(GroupServiceRemoveMemberProcedure, connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts...))
	return servicePath(GroupServiceName), mux
}

// NewExpenseServiceHandler builds an HTTP handler for the expense service.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceListExpensesProcedure, connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(ExpenseServiceUpdateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(ExpenseServiceDeleteExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(ExpenseServiceReactProcedure, connect.NewUnaryHandler(ExpenseServiceReactProcedure, svc.React, opts...))
	return servicePath(ExpenseServiceName), mux
}

// NewChatServiceHandler builds an HTTP handler for the chat service.
func NewChatServiceHandler(svc ChatServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ChatServiceListMessagesProcedure, connect.NewUnaryHandler(ChatServiceListMessagesProcedure, svc.ListMessages, opts...))
	mux.Handle(ChatServiceSendMessageProcedure, connect.NewUnaryHandler(ChatServiceSendMessageProcedure, svc.SendMessage, opts...))
	mux.Handle(ChatServiceDeleteMessagesProcedure, connect.NewUnaryHandler(ChatServiceDeleteMessagesProcedure, svc.DeleteMessages, opts...))
	return servicePath(ChatServiceName), mux
}

// NewGoalServiceHandler builds an HTTP handler for the goal service.
func NewGoalServiceHandler(svc GoalServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GoalServiceListGoalsProcedure, connect.NewUnaryHandler(GoalServiceListGoalsProcedure, svc.ListGoals, opts...))
	mux.Handle(GoalServiceCreateGoalProcedure, connect.NewUnaryHandler(GoalServiceCreateGoalProcedure, svc.CreateGoal, opts...))
	mux.Handle(GoalServiceDeleteGoalProcedure, connect.NewUnaryHandler(GoalServiceDeleteGoalProcedure, svc.DeleteGoal, opts...))
	mux.Handle(GoalServiceContributeProcedure, connect.NewUnaryHandler(GoalServiceContributeProcedure, svc.Contribute, opts...))
	return servicePath(GoalServiceName), mux
}

// NewRealtimeServiceHandler builds an HTTP handler for the realtime service.
func NewRealtimeServiceHandler(svc RealtimeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(RealtimeServiceSubscribeProcedure, connect.NewServerStreamHandler(RealtimeServiceSubscribeProcedure, svc.Subscribe, opts...))
	return servicePath(RealtimeServiceName), mux
}
