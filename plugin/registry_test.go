package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/session"
)

// testPlugin implements Plugin + RoleCreated + AfterCheck + SessionCreated.
type testPlugin struct {
	roleCreatedCalled    bool
	afterCheckCalled     bool
	sessionCreatedCalled bool
	roleGrantedCalled    bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

func (t *testPlugin) OnSessionCreated(_ context.Context, _ *session.Snapshot) error {
	t.sessionCreatedCalled = true
	return nil
}

func (t *testPlugin) OnRoleGranted(_ context.Context, _ *grant.RoleGrant) error {
	t.roleGrantedCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// failingPlugin returns an error from every hook it implements.
type failingPlugin struct{}

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	return errors.New("hook failed")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch RoleCreated to testPlugin only.
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "editor"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	// Should dispatch AfterCheck.
	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	// Should dispatch SessionCreated.
	reg.EmitSessionCreated(ctx, &session.Snapshot{ID: "sess_1"})
	if !tp.sessionCreatedCalled {
		t.Fatal("OnSessionCreated was not called")
	}

	// Should dispatch RoleGranted.
	reg.EmitRoleGranted(ctx, &grant.RoleGrant{ID: id.NewGrantID()})
	if !tp.roleGrantedCalled {
		t.Fatal("OnRoleGranted was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitRoleDeleted(ctx, id.NewRoleID())
	reg.EmitPolicyDetached(ctx, id.NewRoleID(), id.NewPolicyID())
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorsAreLogged(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())
	reg.Register(&failingPlugin{})

	// A failing hook must not panic or stop dispatch.
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "editor"})
}
