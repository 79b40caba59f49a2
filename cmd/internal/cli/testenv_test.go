package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velmie/ingestsync"
	"github.com/velmie/ingestsync/sqlite"
)

// fakeIngestAPI records ingestion requests and fails deletes of listed ids.
// When unavailable is set every request is answered with 503.
type fakeIngestAPI struct {
	mu          sync.Mutex
	upserts     int
	deletedIDs  []string
	failDeletes map[string]bool
	unavailable bool
}

func (f *fakeIngestAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodPost:
		f.upserts++
	case http.MethodDelete:
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, id := range body.IDs {
			if f.failDeletes[id] {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
				return
			}
			f.deletedIDs = append(f.deletedIDs, id)
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (f *fakeIngestAPI) counts() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts, append([]string(nil), f.deletedIDs...)
}

type testEnv struct {
	dir    string
	dbPath string
	config string
	api    *fakeIngestAPI
}

func newTestEnv(t *testing.T, ingestTypes ...string) *testEnv {
	t.Helper()

	api := &fakeIngestAPI{failDeletes: map[string]bool{}}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		dbPath: filepath.Join(dir, "test.db"),
		config: filepath.Join(dir, "ingestsync.yaml"),
		api:    api,
	}

	var cfg strings.Builder
	fmt.Fprintf(&cfg, "site_id: \"7\"\ntenant_id: \"1\"\n")
	fmt.Fprintf(&cfg, "api:\n  instance_url: %s\n  token: secret\n  source_name: wp\n  object_name: content\n", server.URL)
	fmt.Fprintf(&cfg, "log:\n  level: error\n")
	if len(ingestTypes) > 0 {
		fmt.Fprintf(&cfg, "ingest:\n  types: [%s]\n", strings.Join(ingestTypes, ", "))
	}
	require.NoError(t, os.WriteFile(env.config, []byte(cfg.String()), 0o600))

	return env
}

func (e *testEnv) seed(t *testing.T, records ...ingestsync.Record) {
	t.Helper()
	store, err := sqlite.Open(e.dbPath)
	require.NoError(t, err)
	defer store.Close()

	for _, record := range records {
		require.NoError(t, store.Records().Put(context.Background(), record))
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWith(t, append([]string{"--dsn", e.dbPath}, args...)...)
}

// runWith runs the command with only the config file preset.
func (e *testEnv) runWith(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func post(id int64) ingestsync.Record {
	return ingestsync.Record{ItemID: id, Status: ingestsync.StatusPublished, Type: "post"}
}
