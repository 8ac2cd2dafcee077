package typedb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer emulates the slice of the TypeDB HTTP API the session touches.
type fakeServer struct {
	mu        sync.Mutex
	password  string
	databases map[string]bool
	queries   []string
	signins   int
	deletes   int
	failures  int // respond 503 to this many sign-ins before recovering
	nextTx    int
}

func newFakeServer(password string) *fakeServer {
	return &fakeServer{password: password, databases: make(map[string]bool)}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/signin", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.signins++
		if f.failures > 0 {
			f.failures--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "AUT1", "message": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + body.Password})
	})

	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.password = body.Password
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/v1/databases", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		type db struct {
			Name string `json:"name"`
		}
		list := make([]db, 0, len(f.databases))
		for name := range f.databases {
			list = append(list, db{Name: name})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"databases": list})
	})

	mux.HandleFunc("/v1/databases/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/v1/databases/")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			f.databases[name] = true
		case http.MethodDelete:
			delete(f.databases, name)
			f.deletes++
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/v1/transactions/open", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.nextTx++
		id := f.nextTx
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"transactionId": fmt.Sprintf("tx-%d", id)})
	})

	mux.HandleFunc("/v1/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/query") {
			var body struct{ Query string }
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			f.queries = append(f.queries, body.Query)
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"answers": []any{}})
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func newTestSession(t *testing.T, srv *httptest.Server, cfg Config) *Session {
	t.Helper()
	cfg.Addr = srv.URL
	if cfg.Database == "" {
		cfg.Database = "skillmatch"
	}
	if cfg.Username == "" {
		cfg.Username = "admin"
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = time.Millisecond
	}
	return NewSession(cfg, nil)
}

func TestConnectWithRotatedPassword(t *testing.T) {
	fake := newFakeServer("rotated")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	require.NoError(t, s.Connect(context.Background()))
	require.Equal(t, 1, fake.signins)
}

func TestConnectRotatesDefaultPassword(t *testing.T) {
	fake := newFakeServer("default")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	require.NoError(t, s.Connect(context.Background()))
	require.Equal(t, "rotated", fake.password)

	// subsequent connects succeed with the rotated password directly
	again := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	before := fake.signins
	require.NoError(t, again.Connect(context.Background()))
	require.Equal(t, before+1, fake.signins)
}

func TestConnectFailsWhenNoCredentialWorks(t *testing.T) {
	fake := newFakeServer("something-else")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated", MaxAttempts: 3})
	err := s.Connect(context.Background())
	var boot *AuthBootstrapError
	require.ErrorAs(t, err, &boot)
	// auth rejection is terminal: both passwords tried exactly once
	require.Equal(t, 2, fake.signins)
}

func TestConnectRetriesTransportFailures(t *testing.T) {
	fake := newFakeServer("rotated")
	fake.failures = 2
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated", MaxAttempts: 5})
	require.NoError(t, s.Connect(context.Background()))
	require.Equal(t, 3, fake.signins)
}

func TestConnectExhaustsRetries(t *testing.T) {
	fake := newFakeServer("rotated")
	fake.failures = 100
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated", MaxAttempts: 3})
	err := s.Connect(context.Background())
	var exhausted *ConnectionExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
}

func TestEnsureDatabaseCreatesAndSeeds(t *testing.T) {
	fake := newFakeServer("rotated")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.EnsureDatabase(context.Background()))

	require.True(t, fake.databases["skillmatch"])
	require.Len(t, fake.queries, 2)
	require.Contains(t, fake.queries[0], "define")
	require.Contains(t, fake.queries[1], "insert")
}

func TestEnsureDatabaseResetIsOneShot(t *testing.T) {
	fake := newFakeServer("rotated")
	fake.databases["skillmatch"] = true
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated", Reset: true})
	require.NoError(t, s.Connect(context.Background()))

	require.NoError(t, s.EnsureDatabase(context.Background()))
	require.Equal(t, 1, fake.deletes)

	// the flag cleared: a second call must not wipe data again
	require.NoError(t, s.EnsureDatabase(context.Background()))
	require.Equal(t, 1, fake.deletes)
}

func TestReadBuildsStrictTemplate(t *testing.T) {
	fake := newFakeServer("rotated")
	fake.databases["skillmatch"] = true
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	require.NoError(t, s.Connect(context.Background()))

	_, err := s.Read(context.Background(), `match $t isa task, has id ~id; fetch $t: name;`, Params{"id": "t1"})
	require.NoError(t, err)
	require.Contains(t, fake.queries[len(fake.queries)-1], `has id "t1"`)

	_, err = s.Read(context.Background(), `match $t isa task, has id ~id;`, Params{"id": nil})
	require.IsType(t, &NullInReadError{}, err)
}

func TestWriteElidesAbsentValues(t *testing.T) {
	fake := newFakeServer("rotated")
	fake.databases["skillmatch"] = true
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newTestSession(t, srv, Config{DefaultPassword: "default", NewPassword: "rotated"})
	require.NoError(t, s.Connect(context.Background()))

	template := "insert $t isa task,\n  has id ~id,\n  has description ~desc;"
	require.NoError(t, s.Write(context.Background(), template, Params{"id": "t1", "desc": nil}))
	require.NotContains(t, fake.queries[len(fake.queries)-1], "description")
}
