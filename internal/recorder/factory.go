package recorder

import "fmt"

// Open selects and initializes a Recorder backend the same way the
// teacher's internal/database.Initialize dispatches on DB_TYPE: "sqlite"
// opens (and creates, if missing) a local file; "postgres" connects to an
// existing server via dsn.
func Open(dbType, dsn string) (Recorder, error) {
	switch dbType {
	case "sqlite":
		return NewSQLiteRecorder(dsn)
	case "postgres":
		return NewPostgresRecorder(dsn)
	default:
		return nil, fmt.Errorf("unsupported match recorder backend: %s", dbType)
	}
}
