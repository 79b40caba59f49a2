package mysql

import (
	"strings"
	"testing"
)

func TestSchemaDefaults(t *testing.T) {
	statements, err := Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(statements))
	}
	if !strings.Contains(statements[0], "CREATE TABLE IF NOT EXISTS ingestsync_kv") {
		t.Fatalf("unexpected kv schema: %s", statements[0])
	}
	if !strings.Contains(statements[1], "INDEX idx_queued_item (queued_at, item_id)") {
		t.Fatalf("expected queue ordering index: %s", statements[1])
	}
	if !strings.Contains(statements[2], "ingestsync_markers") {
		t.Fatalf("unexpected marker schema: %s", statements[2])
	}
}

func TestSchemaCustomTables(t *testing.T) {
	statements, err := Schema(WithKVTable("app.kv"), WithSyncTable("app.queue"), WithMarkerTable("app.attempts"))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	for i, name := range []string{"app.kv", "app.queue", "app.attempts"} {
		if !strings.Contains(statements[i], "EXISTS "+name+" (") {
			t.Fatalf("expected %s in %s", name, statements[i])
		}
	}

	if _, err := Schema(WithKVTable("bad name")); err == nil {
		t.Fatalf("expected invalid table name to fail")
	}
}

func TestContentSchema(t *testing.T) {
	schema, err := ContentSchema("wp_posts")
	if err != nil {
		t.Fatalf("content schema: %v", err)
	}
	if !strings.Contains(schema, "INDEX idx_status_type_id (status, type, id)") {
		t.Fatalf("expected cursor index: %s", schema)
	}
}
