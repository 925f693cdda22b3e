package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap/zaptest"

	"scenecheck/internal/check"
	"scenecheck/internal/checks"
	"scenecheck/internal/config"
	"scenecheck/internal/observ"
	"scenecheck/internal/scene/memscene"
	"scenecheck/internal/session"
)

type fixture struct {
	srv     *httptest.Server
	sess    *session.Session
	scene   *memscene.Scene
	metrics *observ.Metrics
	saves   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := checks.Build(config.Default())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f := &fixture{scene: memscene.ReelDisaster(), metrics: observ.NewMetrics()}
	log := zaptest.NewLogger(t).Sugar()
	f.sess, err = session.New(reg, f.scene, session.Options{Logger: log, Metrics: f.metrics})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	h := NewHandler(f.sess, Options{
		Logger:  log,
		Metrics: f.metrics,
		AfterFix: func(context.Context) error {
			f.saves++
			return nil
		},
	})
	f.srv = httptest.NewServer(h)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode
}

func TestSnapshotBeforeRun(t *testing.T) {
	f := newFixture(t)
	var snap session.Snapshot
	if code := f.do(t, http.MethodGet, "/snapshot", &snap); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(snap.Checks) != 5 || snap.Aggregate != check.StatusWait {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRunFixAndReverify(t *testing.T) {
	f := newFixture(t)
	var snap session.Snapshot
	if code := f.do(t, http.MethodPost, "/run", &snap); code != http.StatusOK {
		t.Fatalf("run status %d", code)
	}
	if snap.Aggregate != check.StatusError {
		t.Fatalf("expected ERROR, got %s", snap.Aggregate)
	}
	cam, _ := snap.Check(checks.IDCameraClip)
	if len(cam.Issues) != 1 {
		t.Fatalf("expected one camera issue, got %d", len(cam.Issues))
	}

	var fixed FixResponse
	if code := f.do(t, http.MethodPost, "/issues/"+cam.Issues[0].ID+"/fix", &fixed); code != http.StatusOK {
		t.Fatalf("fix status %d", code)
	}
	if !fixed.Resolved || fixed.Status != check.StatusOK || fixed.CheckID != checks.IDCameraClip {
		t.Fatalf("unexpected fix response: %+v", fixed)
	}
	if f.saves != 1 {
		t.Fatalf("after-fix hook ran %d times", f.saves)
	}

	var again ErrorResponse
	if code := f.do(t, http.MethodPost, "/issues/"+cam.Issues[0].ID+"/fix", &again); code != http.StatusNotFound {
		t.Fatalf("fixing a resolved issue should be 404, got %d", code)
	}
}

func TestFixUnfixableIsConflict(t *testing.T) {
	f := newFixture(t)
	var snap session.Snapshot
	f.do(t, http.MethodPost, "/run", &snap)
	kr, _ := snap.Check(checks.IDKeyRange)

	var resp ErrorResponse
	if code := f.do(t, http.MethodPost, "/issues/"+kr.Issues[0].ID+"/fix", &resp); code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if !strings.Contains(resp.Error, "not fixable") {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if f.saves != 0 {
		t.Fatalf("rejected fix must not trigger the after-fix hook")
	}
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	var snap session.Snapshot
	f.do(t, http.MethodPost, "/run", &snap)
	ip, _ := snap.Check(checks.IDImagePlane)

	var sel SelectResponse
	if code := f.do(t, http.MethodPost, "/issues/"+ip.Issues[0].ID+"/select", &sel); code != http.StatusOK {
		t.Fatalf("select status %d", code)
	}
	if len(sel.Selected) == 0 {
		t.Fatalf("expected selected nodes: %+v", sel)
	}
	if code := f.do(t, http.MethodPost, "/issues/nope/select", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown issue, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/run", nil)

	resp, err := f.srv.Client().Get(f.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `scenecheck_check_runs_total{check="naming",status="ERROR"} 1`) {
		t.Fatalf("run counter missing from:\n%s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	if code := f.do(t, http.MethodGet, "/run", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", code)
	}
}
