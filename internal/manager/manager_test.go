package manager

import (
	"context"
	"errors"
	"testing"

	"gojags/internal/console"
	"gojags/internal/model"
	"gojags/pkg/types"
)

func TestCreateGetListDelete(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	info := mustCreate(t, m)
	if info.ID == "" || info.State != string(StateReady) {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Chains != 2 || info.Iter != 0 {
		t.Fatalf("chains/iter = %d/%d", info.Chains, info.Iter)
	}
	got, err := m.Get(info.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Variables) != 4 {
		t.Fatalf("variables = %v", got.Variables)
	}
	if l := m.List(); len(l) != 1 || l[0].ID != info.ID {
		t.Fatalf("List = %+v", l)
	}
	if err := m.Delete(info.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(info.ID); !IsSessionNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := m.Delete(info.ID); !IsSessionNotFound(err) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestCreate_TunesByDefault(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	req := createRequest()
	req.Tune = 0
	info, err := m.Create(testCtx(t), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Iter != model.DefaultTune {
		t.Fatalf("iter = %d, want %d", info.Iter, model.DefaultTune)
	}
	if st := m.Status(); st.IterationsTotal != uint64(model.DefaultTune) || st.SessionsTotal != 1 {
		t.Fatalf("status totals: %+v", st)
	}
}

func TestCreate_PropagatesModelErrors(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	pub := NewMemoryPublisher()
	m.SetEventPublisher(pub)
	req := createRequest()
	req.Model = "model { mu ~ }"
	_, err := m.Create(testCtx(t), req)
	if !console.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	names := pub.Names()
	if len(names) != 2 || names[0] != "create_start" || names[1] != "create_error" {
		t.Fatalf("events = %v", names)
	}
	if st := m.Status(); st.CreatingCount != 0 || len(st.Sessions) != 0 {
		t.Fatalf("status after failed create: %+v", st)
	}
}

func TestCreate_SessionLimit(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MaxSessions: 1})
	mustCreate(t, m)
	_, err := m.Create(testCtx(t), createRequest())
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
}

func TestSessionOps(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	id := mustCreate(t, m).ID
	ctx := testCtx(t)

	up, err := m.Update(ctx, id, 10)
	if err != nil || up.Iter != 10 {
		t.Fatalf("Update = %+v, %v", up, err)
	}
	ad, err := m.Adapt(ctx, id, 5)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if ad.Iter != 15 {
		t.Fatalf("adapt iter = %d", ad.Iter)
	}
	smp, err := m.Sample(ctx, id, types.SampleRequest{Iterations: 4, Vars: []string{"mu"}})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got := smp.Samples["mu"].Shape; len(got) != 3 || got[1] != 4 || got[2] != 2 {
		t.Fatalf("mu shape = %v", got)
	}
	st, err := m.State(ctx, id)
	if err != nil || len(st.Chains) != 2 {
		t.Fatalf("State = %d chains, %v", len(st.Chains), err)
	}
	if st.Chains[0].RNGName == "" {
		t.Fatalf("missing RNG name in state")
	}
	sm, err := m.Samplers(ctx, id)
	if err != nil || len(sm.Samplers) == 0 {
		t.Fatalf("Samplers = %+v, %v", sm, err)
	}
	info, _ := m.Get(id)
	if info.Iter != 19 {
		t.Fatalf("cached iter = %d, want 19", info.Iter)
	}
	if got := m.Status().IterationsTotal; got != 19 {
		t.Fatalf("iterations total = %d", got)
	}
}

func TestSessionOps_Errors(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	ctx := testCtx(t)
	if _, err := m.Update(ctx, "missing", 1); !IsSessionNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	id := mustCreate(t, m).ID
	if _, err := m.Update(ctx, id, -1); !model.IsOption(err) {
		t.Fatalf("expected option error, got %v", err)
	}
	if _, err := m.Sample(ctx, id, types.SampleRequest{Iterations: 1, Vars: []string{"nope"}}); !console.IsState(err) {
		t.Fatalf("expected state error, got %v", err)
	}
	// the failed sample must leave the session usable
	if _, err := m.Update(ctx, id, 1); err != nil {
		t.Fatalf("Update after failure: %v", err)
	}
}

func TestDelete_PublishesEvents(t *testing.T) {
	pub := NewMemoryPublisher()
	m := newTestManager(t, ManagerConfig{Publisher: pub})
	id := mustCreate(t, m).ID
	if err := m.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := map[string]bool{"create_start": false, "create_done": false, "delete_start": false, "delete_done": false}
	for _, e := range pub.Events() {
		if _, ok := want[e.Name]; ok {
			want[e.Name] = true
			if e.SessionID != id {
				t.Fatalf("event %s has session %q", e.Name, e.SessionID)
			}
		}
	}
	for k, v := range want {
		if !v {
			t.Fatalf("expected event %q; got %v", k, pub.Names())
		}
	}
}

func TestClose_DeletesAll(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	mustCreate(t, m)
	mustCreate(t, m)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := len(m.List()); n != 0 {
		t.Fatalf("sessions after close = %d", n)
	}
}

func TestReady(t *testing.T) {
	if NewWithConfig(ManagerConfig{}).Ready() {
		t.Fatalf("manager without registry must not be ready")
	}
	m := newTestManager(t, ManagerConfig{})
	if !m.Ready() {
		t.Fatalf("expected ready")
	}
	if _, err := NewWithConfig(ManagerConfig{}).Create(context.Background(), createRequest()); err == nil {
		t.Fatalf("expected error without registry")
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsTooBusy(tooBusyError{id: "x"}) || IsTooBusy(errors.New("x")) {
		t.Fatalf("IsTooBusy mismatch")
	}
	err := ErrSessionNotFound("abc")
	if !IsSessionNotFound(err) || err.Error() != "session not found: abc" {
		t.Fatalf("unexpected: %v", err)
	}
}
