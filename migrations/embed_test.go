package migrations

import (
	"testing"

	"github.com/carepath/carepath/internal/platform/db"
)

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migs) != 6 {
		t.Fatalf("expected 6 migrations, got %d", len(migs))
	}
	for i, m := range migs {
		if m.Version != i+1 {
			t.Errorf("expected version %d, got %d (%s)", i+1, m.Version, m.Name)
		}
		if m.SQL == "" {
			t.Errorf("%s is empty", m.Name)
		}
	}
}
