// Package all registers every storage backend.
package all

import (
	_ "faculty/internal/storage/mssql"
	_ "faculty/internal/storage/postgres"
	_ "faculty/internal/storage/sqlite"
)
