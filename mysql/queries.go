package mysql

import (
	"fmt"
	"strings"
)

const (
	placeholderGrowth = 2
	contentCols       = "id, status, type, is_revision, modified_at, fields"
)

type queries struct {
	kvGet    string
	kvSet    string
	kvDelete string

	syncPut    string
	syncRemove string
	syncOldest string
	syncCount  string

	markerSet    string
	markerGet    string
	markerDelete string

	contentGet   string
	contentAfter string
	contentCount string
}

func newQueries(t tables) queries {
	return queries{
		kvGet:    fmt.Sprintf("SELECT value FROM %s WHERE name = ?", t.kv),
		kvSet:    fmt.Sprintf("INSERT INTO %s (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)", t.kv),
		kvDelete: fmt.Sprintf("DELETE FROM %s WHERE name = ?", t.kv),

		syncPut:    fmt.Sprintf("INSERT INTO %s (item_id, queued_at) VALUES (?, ?) ON DUPLICATE KEY UPDATE queued_at = VALUES(queued_at)", t.sync),
		syncRemove: fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", t.sync),
		syncOldest: fmt.Sprintf("SELECT item_id FROM %s ORDER BY queued_at ASC, item_id ASC LIMIT ?", t.sync),
		syncCount:  fmt.Sprintf("SELECT COUNT(*) FROM %s", t.sync),

		markerSet:    fmt.Sprintf("INSERT INTO %s (item_id, attempted_at) VALUES (?, ?) ON DUPLICATE KEY UPDATE attempted_at = VALUES(attempted_at)", t.marker),
		markerGet:    fmt.Sprintf("SELECT 1 FROM %s WHERE item_id = ?", t.marker),
		markerDelete: fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", t.marker),

		contentGet:   fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", contentCols, t.content),
		contentAfter: fmt.Sprintf("SELECT %s FROM %s WHERE id > ? AND status = ?%%s ORDER BY id ASC LIMIT ?", contentCols, t.content),
		contentCount: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = ?%%s", t.content),
	}
}

// scoped fills the type filter of a content query. An empty scope matches every type.
func scoped(query string, scope []string) string {
	if len(scope) == 0 {
		return fmt.Sprintf(query, "")
	}

	return fmt.Sprintf(query, " AND type IN ("+makePlaceholders(len(scope))+")")
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}

	var buf strings.Builder
	buf.Grow(count * placeholderGrowth)
	for i := 0; i < count; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('?')
	}

	return buf.String()
}
