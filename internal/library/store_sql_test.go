package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh)
}

func TestSQLStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	older := Entry{ID: "q1", Title: "animals", Letters: 5, DocKey: "library/q1/quiz.xml", CreatedAt: time.Unix(1000, 0)}
	newer := Entry{ID: "q2", Title: "cities", Letters: 7, Images: 2, DocKey: "library/q2/quiz.xml", CreatedAt: time.Unix(2000, 0)}
	for _, e := range []Entry{older, newer} {
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("put %s: %v", e.ID, err)
		}
	}

	got, err := s.Get(ctx, "q2")
	if err != nil {
		t.Fatal(err)
	}
	if got != newer {
		t.Errorf("get = %+v, want %+v", got, newer)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "q2" || list[1].ID != "q1" {
		t.Errorf("list = %+v", list)
	}

	older.Title = "pets"
	if err := s.Put(ctx, older); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "q1"); got.Title != "pets" {
		t.Errorf("upsert title = %q", got.Title)
	}

	if err := s.Delete(ctx, "q1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted err = %v", err)
	}
	if err := s.Delete(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
