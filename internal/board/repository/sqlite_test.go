package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestBoard(t *testing.T, repo *SQLiteRepository) *models.Board {
	t.Helper()
	board := &models.Board{Name: "Roadmap", OwnerID: "owner"}
	if err := repo.CreateBoard(context.Background(), board); err != nil {
		t.Fatalf("create board: %v", err)
	}
	return board
}

func TestSQLiteAddMember_DuplicateIsConflict(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	board := createTestBoard(t, repo)

	member := &models.Member{BoardID: board.ID, UserID: "alice", Role: v1.RoleEditor}
	if err := repo.AddMember(ctx, member); err != nil {
		t.Fatalf("add member: %v", err)
	}

	err := repo.AddMember(ctx, &models.Member{BoardID: board.ID, UserID: "alice", Role: v1.RoleViewer})
	if err == nil {
		t.Fatal("expected error on duplicate member")
	}
	if !errors.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestSQLiteAddMember_ForeignKeyFailureIsNotConflict(t *testing.T) {
	repo := newSQLiteRepo(t)

	err := repo.AddMember(context.Background(), &models.Member{
		BoardID: "no-such-board",
		UserID:  "alice",
		Role:    v1.RoleEditor,
	})
	if err == nil {
		t.Fatal("expected error inserting member for missing board")
	}
	if errors.IsConflict(err) {
		t.Errorf("foreign key failure must not be reported as conflict: %v", err)
	}
}

func TestSQLiteListActivity_Limit(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	board := createTestBoard(t, repo)

	for i := 0; i < 3; i++ {
		err := repo.RecordActivity(ctx, &models.Activity{
			BoardID: board.ID,
			ActorID: "owner",
			Verb:    fmt.Sprintf("verb-%d", i),
		})
		if err != nil {
			t.Fatalf("record activity %d: %v", i, err)
		}
	}

	limited, err := repo.ListActivity(ctx, board.ID, 2)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(limited))
	}
	if limited[0].Verb != "verb-2" {
		t.Errorf("expected newest first, got %s", limited[0].Verb)
	}

	// Zero limit returns the full history.
	all, err := repo.ListActivity(ctx, board.ID, 0)
	if err != nil {
		t.Fatalf("list without limit: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}
}
