package mysql

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("ingestsync mysql: db is required")
	// ErrExecutorRequired is returned when a transactional write is called with a nil executor.
	ErrExecutorRequired = errors.New("ingestsync mysql: executor is required")
	// ErrTableNameRequired is returned when a table name is empty.
	ErrTableNameRequired = errors.New("ingestsync mysql: table name is required")
	// ErrInvalidTableName is returned when a table name has disallowed characters.
	ErrInvalidTableName = errors.New("ingestsync mysql: invalid table name")
	// ErrKeyTooLong is returned when a key exceeds the key column width.
	ErrKeyTooLong = errors.New("ingestsync mysql: key is too long")
	// ErrLockNameRequired is returned when the advisory lock name is empty.
	ErrLockNameRequired = errors.New("ingestsync mysql: lock name is required")
)
