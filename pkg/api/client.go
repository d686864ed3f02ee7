package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
)

// Client is a typed client for every Verdant service.
type Client struct {
	register *connect.Client[RegisterRequest, AuthResponse]
	login    *connect.Client[LoginRequest, AuthResponse]

	createGroup  *connect.Client[CreateGroupRequest, GroupResponse]
	getGroup     *connect.Client[GroupRequest, GroupResponse]
	listGroups   *connect.Client[ListGroupsRequest, ListGroupsResponse]
	joinGroup    *connect.Client[JoinGroupRequest, GroupResponse]
	updateGroup  *connect.Client[UpdateGroupRequest, GroupResponse]
	deleteGroup  *connect.Client[GroupRequest, Empty]
	listMembers  *connect.Client[GroupRequest, ListMembersResponse]
	removeMember *connect.Client[RemoveMemberRequest, Empty]

	listExpenses  *connect.Client[GroupRequest, ListExpensesResponse]
	createExpense *connect.Client[CreateExpenseRequest, ExpenseResponse]
	updateExpense *connect.Client[UpdateExpenseRequest, ExpenseResponse]
	deleteExpense *connect.Client[DeleteExpenseRequest, Empty]
	react         *connect.Client[ReactRequest, ReactResponse]

	listMessages   *connect.Client[GroupRequest, ListMessagesResponse]
	sendMessage    *connect.Client[SendMessageRequest, MessageResponse]
	deleteMessages *connect.Client[DeleteMessagesRequest, Empty]

	listGoals  *connect.Client[GroupRequest, ListGoalsResponse]
	createGoal *connect.Client[CreateGoalRequest, GoalResponse]
	deleteGoal *connect.Client[DeleteGoalRequest, Empty]
	contribute *connect.Client[ContributeRequest, GoalResponse]

	subscribe *connect.Client[GroupRequest, models.ChangeEvent]
}

// NewClient returns a client for the server at baseURL. The JSON codec is
// always installed; opts are applied after it.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &Client{
		register: connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:    connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),

		createGroup:  connect.NewClient[CreateGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:     connect.NewClient[GroupRequest, GroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:   connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		joinGroup:    connect.NewClient[JoinGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceJoinGroupProcedure, opts...),
		updateGroup:  connect.NewClient[UpdateGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:  connect.NewClient[GroupRequest, Empty](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		listMembers:  connect.NewClient[GroupRequest, ListMembersResponse](httpClient, baseURL+GroupServiceListMembersProcedure, opts...),
		removeMember: connect.NewClient[RemoveMemberRequest, Empty](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opts...),

		listExpenses:  connect.NewClient[GroupRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		createExpense: connect.NewClient[CreateExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		updateExpense: connect.NewClient[UpdateExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense: connect.NewClient[DeleteExpenseRequest, Empty](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		react:         connect.NewClient[ReactRequest, ReactResponse](httpClient, baseURL+ExpenseServiceReactProcedure, opts...),

		listMessages:   connect.NewClient[GroupRequest, ListMessagesResponse](httpClient, baseURL+ChatServiceListMessagesProcedure, opts...),
		sendMessage:    connect.NewClient[SendMessageRequest, MessageResponse](httpClient, baseURL+ChatServiceSendMessageProcedure, opts...),
		deleteMessages: connect.NewClient[DeleteMessagesRequest, Empty](httpClient, baseURL+ChatServiceDeleteMessagesProcedure, opts...),

		listGoals:  connect.NewClient[GroupRequest, ListGoalsResponse](httpClient, baseURL+GoalServiceListGoalsProcedure, opts...),
		createGoal: connect.NewClient[CreateGoalRequest, GoalResponse](httpClient, baseURL+GoalServiceCreateGoalProcedure, opts...),
		deleteGoal: connect.NewClient[DeleteGoalRequest, Empty](httpClient, baseURL+GoalServiceDeleteGoalProcedure, opts...),
		contribute: connect.NewClient[ContributeRequest, GoalResponse](httpClient, baseURL+GoalServiceContributeProcedure, opts...),

		subscribe: connect.NewClient[GroupRequest, models.ChangeEvent](httpClient, baseURL+RealtimeServiceSubscribeProcedure, opts...),
	}
}

func unary[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	return unary(ctx, c.register, req)
}

func (c *Client) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	return unary(ctx, c.login, req)
}

func (c *Client) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	resp, err := unary(ctx, c.createGroup, &CreateGroupRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	resp, err := unary(ctx, c.getGroup, &GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	resp, err := unary(ctx, c.listGroups, &ListGroupsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

func (c *Client) JoinGroup(ctx context.Context, joinCode string) (*models.Group, error) {
	resp, err := unary(ctx, c.joinGroup, &JoinGroupRequest{JoinCode: joinCode})
	if err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) UpdateGroup(ctx context.Context, groupID, name string) (*models.Group, error) {
	resp, err := unary(ctx, c.updateGroup, &UpdateGroupRequest{GroupID: groupID, Name: name})
	if err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := unary(ctx, c.deleteGroup, &GroupRequest{GroupID: groupID})
	return err
}

func (c *Client) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	resp, err := unary(ctx, c.listMembers, &GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *Client) RemoveMember(ctx context.Context, memberID string) error {
	_, err := unary(ctx, c.removeMember, &RemoveMemberRequest{MemberID: memberID})
	return err
}

func (c *Client) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	resp, err := unary(ctx, c.listExpenses, &GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Expenses, nil
}

func (c *Client) CreateExpense(ctx context.Context, req *CreateExpenseRequest) (*models.Expense, error) {
	resp, err := unary(ctx, c.createExpense, req)
	if err != nil {
		return nil, err
	}
	return &resp.Expense, nil
}

func (c *Client) UpdateExpense(ctx context.Context, req *UpdateExpenseRequest) (*models.Expense, error) {
	resp, err := unary(ctx, c.updateExpense, req)
	if err != nil {
		return nil, err
	}
	return &resp.Expense, nil
}

func (c *Client) DeleteExpense(ctx context.Context, expenseID string) error {
	_, err := unary(ctx, c.deleteExpense, &DeleteExpenseRequest{ExpenseID: expenseID})
	return err
}

// React toggles the caller's reaction. A nil reaction means it was removed.
func (c *Client) React(ctx context.Context, expenseID string, kind models.ReactionKind) (*models.Reaction, error) {
	resp, err := unary(ctx, c.react, &ReactRequest{ExpenseID: expenseID, Kind: kind})
	if err != nil {
		return nil, err
	}
	return resp.Reaction, nil
}

func (c *Client) ListMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	resp, err := unary(ctx, c.listMessages, &GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, groupID, content string) (*models.Message, error) {
	resp, err := unary(ctx, c.sendMessage, &SendMessageRequest{GroupID: groupID, Content: content})
	if err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) DeleteMessages(ctx context.Context, ids []string) error {
	_, err := unary(ctx, c.deleteMessages, &DeleteMessagesRequest{MessageIDs: ids})
	return err
}

func (c *Client) ListGoals(ctx context.Context, groupID string) ([]models.Goal, error) {
	resp, err := unary(ctx, c.listGoals, &GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Goals, nil
}

func (c *Client) CreateGoal(ctx context.Context, req *CreateGoalRequest) (*models.Goal, error) {
	resp, err := unary(ctx, c.createGoal, req)
	if err != nil {
		return nil, err
	}
	return &resp.Goal, nil
}

func (c *Client) DeleteGoal(ctx context.Context, goalID string) error {
	_, err := unary(ctx, c.deleteGoal, &DeleteGoalRequest{GoalID: goalID})
	return err
}

func (c *Client) Contribute(ctx context.Context, req *ContributeRequest) (*models.Goal, error) {
	resp, err := unary(ctx, c.contribute, req)
	if err != nil {
		return nil, err
	}
	return &resp.Goal, nil
}

// Subscribe opens the change stream of a group and returns once the server
// has acknowledged it, so every later change is delivered. The caller must
// Close it.
func (c *Client) Subscribe(ctx context.Context, groupID string) (*ChangeStream, error) {
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(&GroupRequest{GroupID: groupID}))
	if err != nil {
		return nil, err
	}
	if !stream.Receive() {
		err := stream.Err()
		stream.Close()
		if err == nil {
			err = connect.NewError(connect.CodeUnavailable, errors.New("change stream closed before acknowledgement"))
		}
		return nil, err
	}
	if ev := stream.Msg(); ev.Type != models.EventSubscribed {
		stream.Close()
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("unexpected first change event %q", ev.Type))
	}
	return &ChangeStream{stream: stream}, nil
}

// ChangeStream yields change events pushed by the server.
type ChangeStream struct {
	stream *connect.ServerStreamForClient[models.ChangeEvent]
}

// Next blocks until the next event arrives. It returns false when the
// stream ends; Err then reports why.
func (s *ChangeStream) Next() (*models.ChangeEvent, bool) {
	for s.stream.Receive() {
		if ev := s.stream.Msg(); ev.Type != models.EventSubscribed {
			return ev, true
		}
	}
	return nil, false
}

func (s *ChangeStream) Err() error { return s.stream.Err() }

func (s *ChangeStream) Close() error { return s.stream.Close() }

// WithToken returns a client option that attaches a bearer token to every
// call. token is consulted per call so a later login takes effect.
func WithToken(token func() string) connect.ClientOption {
	return connect.WithInterceptors(bearerInterceptor{token: token})
}

type bearerInterceptor struct {
	token func() string
}

func (b bearerInterceptor) set(h http.Header) {
	if t := b.token(); t != "" {
		h.Set("Authorization", "Bearer "+t)
	}
}

func (b bearerInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		b.set(req.Header())
		return next(ctx, req)
	}
}

func (b bearerInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		b.set(conn.RequestHeader())
		return conn
	}
}

func (b bearerInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
