package syncx

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()
	repo := NewEventRepo(dbh)

	if err := repo.Record(ctx, TypeQuizLoaded, "q1", map[string]int{"letters": 3}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Record(ctx, TypeLetterRevealed, "q1", map[string]string{"letter": "A"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Record(ctx, TypeQuizLoaded, "q2", nil); err != nil {
		t.Fatal(err)
	}

	evs, err := repo.Recent(ctx, "q1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("events = %+v", evs)
	}
	if evs[0].Type != TypeLetterRevealed || evs[0].DataJSON != `{"letter":"A"}` {
		t.Errorf("newest event = %+v", evs[0])
	}

	all, err := repo.Recent(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Key != "q2" {
		t.Errorf("all events = %+v", all)
	}
}
