package mysql

import (
	"fmt"
	"strings"
)

type tables struct {
	kv      string
	sync    string
	marker  string
	content string
}

func sanitizeTables(cfg Config) (tables, error) {
	var (
		t   tables
		err error
	)
	if t.kv, err = sanitizeTableName(cfg.KVTable); err != nil {
		return tables{}, err
	}
	if t.sync, err = sanitizeTableName(cfg.SyncTable); err != nil {
		return tables{}, err
	}
	if t.marker, err = sanitizeTableName(cfg.MarkerTable); err != nil {
		return tables{}, err
	}
	if t.content, err = sanitizeTableName(cfg.ContentTable); err != nil {
		return tables{}, err
	}

	return t, nil
}

// sanitizeTableName accepts [schema.]table made of ASCII letters, digits and underscores.
func sanitizeTableName(name string) (string, error) {
	if name == "" {
		return "", ErrTableNameRequired
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" || strings.IndexFunc(part, notIdentRune) >= 0 {
			return "", fmt.Errorf("%w: %s", ErrInvalidTableName, name)
		}
	}

	return name, nil
}

func notIdentRune(r rune) bool {
	return r != '_' && (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z')
}
