package calculator

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"calcsession/internal/testutil"
)

func newTestRouter(t testing.TB) (http.Handler, *Store) {
	t.Helper()
	store := newTestStore(StoreOptions{MaxSessions: 8})
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store))
	return r, store
}

func TestBinaryOperations(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		path    string
		a, b    string
		result  string
		display string
	}{
		{path: "/calculator/add", a: "2", b: "3", result: "5", display: "5"},
		{path: "/calculator/subtract", a: "0.1", b: "0.3", result: "-0.2", display: "-0.2"},
		{path: "/calculator/multiply", a: "1.5", b: "2", result: "3.0", display: "3"},
		{path: "/calculator/divide", a: "1", b: "3", result: "0." + strings.Repeat("3", 100), display: "0.333333333333"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, tc.path, CalcRequest{A: tc.a, B: tc.b})
			w := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, http.StatusOK, w.Code)

			var resp CalcResponse
			testutil.DecodeJSONBody(t, w.Body, &resp)
			if resp.Result != tc.result {
				t.Fatalf("expected result %s, got %s", tc.result, resp.Result)
			}
			if resp.Display != tc.display {
				t.Fatalf("expected display %s, got %s", tc.display, resp.Display)
			}
		})
	}
}

func TestBinaryOperationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body any
		msg  string
	}{
		{name: "division by zero", path: "/calculator/divide", body: CalcRequest{A: "1", B: "0"}, msg: "division by zero"},
		{name: "malformed operand", path: "/calculator/add", body: CalcRequest{A: "1e3", B: "1"}, msg: "invalid numeric input"},
		{name: "missing operand", path: "/calculator/add", body: map[string]string{"a": "1"}, msg: "invalid numeric input"},
		{name: "wrong json type", path: "/calculator/add", body: map[string]int{"a": 1, "b": 2}, msg: "invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, tc.path, tc.body)
			w := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func TestChain(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/chain", ChainRequest{
		Initial: "10",
		Steps: []ChainStep{
			{Op: "add", Value: "5"},
			{Op: "÷", Value: "3"},
			{Op: "multiply", Value: "3"},
		},
	})
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp ChainResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Display != "15" {
		t.Fatalf("expected display 15, got %s", resp.Display)
	}
	if len(resp.Steps) != 3 || resp.Steps[1].Result != "5" {
		t.Fatalf("unexpected steps %+v", resp.Steps)
	}
}

func TestChainErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body ChainRequest
		msg  string
	}{
		{name: "no steps", body: ChainRequest{Initial: "1"}, msg: "no steps provided"},
		{name: "bad initial", body: ChainRequest{Initial: "one", Steps: []ChainStep{{Op: "add", Value: "1"}}}, msg: "invalid initial value"},
		{name: "division by zero", body: ChainRequest{Initial: "1", Steps: []ChainStep{{Op: "add", Value: "1"}, {Op: "divide", Value: "0"}}}, msg: "division by zero at step 1"},
		{name: "unknown op", body: ChainRequest{Initial: "1", Steps: []ChainStep{{Op: "pow", Value: "2"}}}, msg: "evaluation failed at step 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/chain", tc.body)
			w := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func createSession(t testing.TB, router http.Handler) SessionResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func pressKeys(t testing.TB, router http.Handler, id string, keys ...string) (int, SessionResponse) {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/"+id+"/keys", KeysRequest{Keys: keys})
	w := testutil.ExecuteRequest(req, router)

	var resp SessionResponse
	if w.Code == http.StatusOK {
		testutil.DecodeJSONBody(t, w.Body, &resp)
	}
	return w.Code, resp
}

func TestSessionLifecycle(t *testing.T) {
	router, store := newTestRouter(t)

	created := createSession(t, router)
	if created.ID == "" {
		t.Fatal("expected a session id")
	}
	if want := []string{"ANS = 0"}; !slices.Equal(created.Lines, want) {
		t.Fatalf("expected %q, got %q", want, created.Lines)
	}
	if created.AngleMode != "DEG" || created.Mode != "entering" {
		t.Fatalf("unexpected initial session %+v", created)
	}

	code, resp := pressKeys(t, router, created.ID, "5", "+", "3", "*", "2", "=")
	testutil.CheckResponseCode(t, http.StatusOK, code)
	if want := []string{"x1 = 6", "ANS = 5 + x1"}; !slices.Equal(resp.Lines, want) {
		t.Fatalf("expected %q, got %q", want, resp.Lines)
	}
	if resp.Pending != 1 || resp.Mode != "result" {
		t.Fatalf("unexpected session state %+v", resp)
	}

	w := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+created.ID, nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var got SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &got)
	if !slices.Equal(got.Lines, resp.Lines) {
		t.Fatalf("expected GET to return %q, got %q", resp.Lines, got.Lines)
	}

	w = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodDelete, "/calculator/sessions/"+created.ID, nil), router)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)
	if store.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", store.Len())
	}

	w = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+created.ID, nil), router)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
}

func TestSessionDivisionByZeroStatus(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID

	code, resp := pressKeys(t, router, id, "1", "/", "0", "=")
	testutil.CheckResponseCode(t, http.StatusOK, code)
	if want := []string{"Status = Div by 0"}; !slices.Equal(resp.Lines, want) {
		t.Fatalf("expected %q, got %q", want, resp.Lines)
	}
	if resp.Mode != "error" || resp.Status != "Div by 0" {
		t.Fatalf("unexpected session state %+v", resp)
	}

	_, resp = pressKeys(t, router, id, "7")
	if want := []string{"ANS = 7"}; !slices.Equal(resp.Lines, want) {
		t.Fatalf("expected %q, got %q", want, resp.Lines)
	}
}

func TestSessionTrigonometry(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID

	_, resp := pressKeys(t, router, id, "9", "0", "sin")
	if want := []string{"ANS = 1"}; !slices.Equal(resp.Lines, want) {
		t.Fatalf("expected %q, got %q", want, resp.Lines)
	}

	_, resp = pressKeys(t, router, id, "rad", "0", "cos")
	if want := []string{"ANS = 1"}; !slices.Equal(resp.Lines, want) || resp.AngleMode != "RAD" {
		t.Fatalf("expected %q in RAD, got %q in %s", want, resp.Lines, resp.AngleMode)
	}
}

func TestPressKeysRejectsUnknownKeyAtomically(t *testing.T) {
	router, store := newTestRouter(t)
	id := createSession(t, router).ID

	code, _ := pressKeys(t, router, id, "1", "tan")
	testutil.CheckResponseCode(t, http.StatusBadRequest, code)

	snap, err := store.Snapshot(id)
	if err != nil {
		t.Fatalf("reading session: %v", err)
	}
	if snap.Buffer != "" {
		t.Fatalf("expected no key applied, got buffer %q", snap.Buffer)
	}
}

func TestPressKeysUnknownSession(t *testing.T) {
	router, _ := newTestRouter(t)

	code, _ := pressKeys(t, router, "nope", "1")
	testutil.CheckResponseCode(t, http.StatusNotFound, code)
}

func TestCreateSessionLimit(t *testing.T) {
	store := newTestStore(StoreOptions{MaxSessions: 1})
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store))

	createSession(t, r)

	w := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions", nil), r)
	testutil.CheckResponseCode(t, http.StatusServiceUnavailable, w.Code)
}
