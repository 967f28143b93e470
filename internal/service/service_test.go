package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/guard"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

type testClients struct {
	ledger apiconnect.LedgerServiceClient
	groups apiconnect.GroupServiceClient
	events *events.Memory
}

// testAuthInterceptor sets a fixed caller in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithMemberID(ctx, "alice"), req)
		}
	}
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) (*testClients, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	pub := &events.Memory{}
	svc := ledger.New(store, guard.New(time.Second, nil), pub, nil, ledger.Options{MaxMembers: 4, AllowRefunds: true})

	interceptors := connect.WithInterceptors(testAuthInterceptor(), middleware.LoggingInterceptor())
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(NewLedgerService(svc), interceptors)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(svc), interceptors)

	mux := http.NewServeMux()
	mux.Handle(ledgerPath, ledgerHandler)
	mux.Handle(groupPath, groupHandler)

	server := httptest.NewServer(mux)

	clients := &testClients{
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		groups: apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		events: pub,
	}

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
		os.Remove(tmpFile.Name() + "-wal")
		os.Remove(tmpFile.Name() + "-shm")
	}
	return clients, cleanup
}

// createTestGroup creates a group whose members use their names as IDs.
func createTestGroup(t *testing.T, c *testClients, names ...string) string {
	t.Helper()
	members := make([]*api.Member, len(names))
	for i, n := range names {
		members[i] = &api.Member{Id: n, DisplayName: n}
	}
	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:    "Test Group",
		Members: members,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.Id
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}
