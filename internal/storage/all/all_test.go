package all

import (
	"testing"

	"faculty/internal/storage"

	"github.com/google/go-cmp/cmp"
)

func TestAllBackendsRegistered(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"mssql", "postgres", "sqlite"}, storage.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}
