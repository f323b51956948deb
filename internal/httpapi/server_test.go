package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gojags/pkg/ndarray"
	"gojags/pkg/types"
)

// mockService returns canned values; err, when set, is returned by every
// fallible method.
type mockService struct {
	status   types.StatusResponse
	ready    bool
	err      error
	sessions []types.SessionInfo
	lastReq  types.CreateSessionRequest
	lastIter int
}

func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Create(ctx context.Context, req types.CreateSessionRequest) (types.SessionInfo, error) {
	m.lastReq = req
	return types.SessionInfo{ID: "s1", State: "ready", Chains: req.Chains}, m.err
}
func (m *mockService) Get(id string) (types.SessionInfo, error) {
	return types.SessionInfo{ID: id}, m.err
}
func (m *mockService) List() []types.SessionInfo { return m.sessions }
func (m *mockService) Delete(id string) error    { return m.err }
func (m *mockService) Update(ctx context.Context, id string, n int) (types.UpdateResponse, error) {
	m.lastIter = n
	return types.UpdateResponse{Iter: n}, m.err
}
func (m *mockService) Adapt(ctx context.Context, id string, n int) (types.AdaptResponse, error) {
	return types.AdaptResponse{Adapted: true, Iter: n}, m.err
}
func (m *mockService) Sample(ctx context.Context, id string, req types.SampleRequest) (types.SampleResponse, error) {
	return types.SampleResponse{Iter: req.Iterations, Samples: ndarray.Map{"mu": ndarray.Scalar(1)}}, m.err
}
func (m *mockService) State(ctx context.Context, id string) (types.StateResponse, error) {
	return types.StateResponse{}, m.err
}
func (m *mockService) Samplers(ctx context.Context, id string) (types.SamplersResponse, error) {
	return types.SamplersResponse{}, m.err
}
func (m *mockService) Modules() []string { return []string{"basemod", "bugs"} }
func (m *mockService) AvailableModules() (types.AvailableModulesResponse, error) {
	return types.AvailableModulesResponse{}, m.err
}
func (m *mockService) LoadModule(name string) error   { return m.err }
func (m *mockService) UnloadModule(name string) error { return m.err }
func (m *mockService) Factories(typ string) ([]types.Factory, error) {
	return []types.Factory{{Name: "base::Slice", Type: "sampler", Active: true}}, m.err
}
func (m *mockService) SetFactoryActive(name, typ string, active bool) error { return m.err }
func (m *mockService) ParallelRNGs(factory string, chains int) ([]ndarray.ChainState, error) {
	return make([]ndarray.ChainState, chains), m.err
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{MaxSessions: 10}}
	w := doJSON(t, NewMux(svc), http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.MaxSessions != 10 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	w := doJSON(t, NewMux(&mockService{ready: true}), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	w = doJSON(t, NewMux(&mockService{}), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	w := doJSON(t, NewMux(&mockService{}), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestListSessions_EmptyIsArray(t *testing.T) {
	w := doJSON(t, NewMux(&mockService{}), http.MethodGet, "/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"sessions":[]`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestCreateSession_DecodesArrays(t *testing.T) {
	svc := &mockService{}
	body := `{"model":"model { }","data":{"y":[[1,2],[3,null]],"N":2},"init":[{"mu":0,".RNG.name":"base::Wichmann-Hill"}],"chains":3}`
	w := doJSON(t, NewMux(svc), http.MethodPost, "/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/sessions/s1" {
		t.Fatalf("location=%q", loc)
	}
	y := svc.lastReq.Data["y"]
	if len(y.Shape) != 2 || y.Shape[0] != 2 || y.Shape[1] != 2 {
		t.Fatalf("y shape = %v", y.Shape)
	}
	if !ndarray.IsNA(y.Data[3]) {
		t.Fatalf("null not decoded as NA: %v", y.Data)
	}
	if len(svc.lastReq.Init) != 1 || svc.lastReq.Init[0].RNGName != "base::Wichmann-Hill" {
		t.Fatalf("init = %+v", svc.lastReq.Init)
	}
}

func TestCreateSession_RequiresJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestBadJSON(t *testing.T) {
	w := doJSON(t, NewMux(&mockService{}), http.MethodPost, "/sessions/x/update", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != http.StatusBadRequest {
		t.Fatalf("error body=%s", w.Body.String())
	}
}

func TestContentTypeCaseInsensitive(t *testing.T) {
	svc := &mockService{}
	req := httptest.NewRequest(http.MethodPost, "/sessions/x/update", bytes.NewBufferString(`{"iterations":7}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, req)
	if w.Code != http.StatusOK || svc.lastIter != 7 {
		t.Fatalf("status=%d iter=%d", w.Code, svc.lastIter)
	}
}

func TestBodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := doJSON(t, NewMux(&mockService{}), http.MethodPost, "/sessions", `{"model":"model { mu ~ dnorm(0,1) }"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSessionRoutes(t *testing.T) {
	h := NewMux(&mockService{})
	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/sessions/abc", "", http.StatusOK},
		{http.MethodDelete, "/sessions/abc", "", http.StatusNoContent},
		{http.MethodPost, "/sessions/abc/adapt", `{"iterations":10}`, http.StatusOK},
		{http.MethodPost, "/sessions/abc/sample", `{"iterations":10,"vars":["mu"]}`, http.StatusOK},
		{http.MethodGet, "/sessions/abc/state", "", http.StatusOK},
		{http.MethodGet, "/sessions/abc/samplers", "", http.StatusOK},
		{http.MethodGet, "/modules", "", http.StatusOK},
		{http.MethodGet, "/modules/available", "", http.StatusOK},
		{http.MethodPost, "/modules/glm", "", http.StatusOK},
		{http.MethodDelete, "/modules/glm", "", http.StatusOK},
		{http.MethodGet, "/factories?type=sampler", "", http.StatusOK},
		{http.MethodPut, "/factories/sampler/base::Slice", `{"active":false}`, http.StatusNoContent},
		{http.MethodPost, "/rngs", `{"factory":"base::BaseRNG","chains":2}`, http.StatusOK},
	}
	for _, c := range cases {
		w := doJSON(t, h, c.method, c.path, c.body)
		if w.Code != c.want {
			t.Fatalf("%s %s: status=%d want %d body=%s", c.method, c.path, w.Code, c.want, w.Body.String())
		}
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	svc := &mockService{err: mockHTTPError{msg: "teapot", code: http.StatusTeapot}}
	w := doJSON(t, NewMux(svc), http.MethodGet, "/sessions/abc", "")
	if w.Code != http.StatusTeapot {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenericErrorMaps500(t *testing.T) {
	svc := &mockService{err: io.EOF}
	w := doJSON(t, NewMux(svc), http.MethodPost, "/sessions/abc/update", `{"iterations":1}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}
