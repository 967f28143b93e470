package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// whoAmI echoes the caller's member ID as the group name.
type whoAmI struct {
	apiconnect.UnimplementedGroupServiceHandler
}

func (whoAmI) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	if req.Msg.GroupId == "boom" {
		return nil, connect.NewError(connect.CodeDataLoss, errors.New("ledger corrupt"))
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: &api.Group{Id: req.Msg.GroupId, Name: GetMemberID(ctx)}}), nil
}

func newServer(t *testing.T, interceptors ...connect.Interceptor) apiconnect.GroupServiceClient {
	t.Helper()
	path, handler := apiconnect.NewGroupServiceHandler(whoAmI{}, connect.WithInterceptors(interceptors...))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
}

func call(t *testing.T, client apiconnect.GroupServiceClient, header string) (*api.Group, error) {
	t.Helper()
	req := connect.NewRequest(&api.GetGroupRequest{GroupId: "g1"})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	resp, err := client.GetGroup(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg.Group, nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	client := newServer(t, RequireAuth(jwtManager))

	token, err := jwtManager.Generate("alice")
	require.NoError(t, err)

	group, err := call(t, client, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice", group.Name)

	tests := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic " + token,
		"bad token":    "Bearer nope",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := call(t, client, header)
			assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	client := newServer(t, OptionalAuth(jwtManager))

	group, err := call(t, client, "")
	require.NoError(t, err)
	assert.Empty(t, group.Name)

	group, err = call(t, client, "Bearer nope")
	require.NoError(t, err)
	assert.Empty(t, group.Name)

	token, err := jwtManager.Generate("bob")
	require.NoError(t, err)
	group, err = call(t, client, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "bob", group.Name)
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	jwtManager := auth.NewJWTManager("secret", time.Hour)
	// Auth runs first so the logger sees the member.
	client := newServer(t, OptionalAuth(jwtManager), LoggingInterceptor())
	token, err := jwtManager.Generate("carol")
	require.NoError(t, err)

	_, err = call(t, client, "Bearer "+token)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=\"RPC ok\"")
	assert.Contains(t, buf.String(), "procedure=/splitledger.v1.GroupService/GetGroup")
	assert.Contains(t, buf.String(), "member_id=carol")

	buf.Reset()
	_, err = client.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupId: "boom"}))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "code=data_loss")
}
