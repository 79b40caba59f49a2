package mysql

import "fmt"

const kvSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	name VARCHAR(191) NOT NULL,
	value LONGBLOB NOT NULL,
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	PRIMARY KEY (name)
);`

const syncSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	item_id BIGINT NOT NULL,
	queued_at BIGINT NOT NULL,
	PRIMARY KEY (item_id),
	INDEX idx_queued_item (queued_at, item_id)
);`

const markerSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	item_id BIGINT NOT NULL,
	attempted_at BIGINT NOT NULL,
	PRIMARY KEY (item_id)
);`

const contentSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	type VARCHAR(20) NOT NULL,
	is_revision TINYINT(1) NOT NULL DEFAULT 0,
	modified_at TIMESTAMP(6) NULL,
	fields JSON NULL,
	PRIMARY KEY (id),
	INDEX idx_status_type_id (status, type, id)
);`

const maxKeyLen = 191

// Schema returns the CREATE statements for the tables owned by the store.
func Schema(opts ...Option) ([]string, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	t, err := sanitizeTables(cfg.withDefaults())
	if err != nil {
		return nil, err
	}

	return []string{
		fmt.Sprintf(kvSchemaTemplate, t.kv),
		fmt.Sprintf(syncSchemaTemplate, t.sync),
		fmt.Sprintf(markerSchemaTemplate, t.marker),
	}, nil
}

// ContentSchema returns the expected shape of the host content table. The store
// only reads it; hosts usually map an existing table or view onto these columns.
func ContentSchema(table string) (string, error) {
	name, err := sanitizeTableName(table)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(contentSchemaTemplate, name), nil
}
