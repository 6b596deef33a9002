package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/Tomangit/slabmarket-sub001/internal/store"
)

// directFetcher queries the memory store without collector plumbing.
type directFetcher struct {
	store *store.MemoryStore
}

func (d *directFetcher) CollectListingRecords(ctx context.Context, filter store.ItemFilter, limit int) []store.Listing {
	if limit <= 0 {
		limit = 50
	}
	listings, _ := d.store.FindActiveListings(ctx, filter, limit)
	return listings
}

func newTestRanker() (*Ranker, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	return NewRanker(mem, &directFetcher{store: mem}), mem
}

func TestSimilar_ExcludesSelfAndSortsByPrice(t *testing.T) {
	ranker, mem := newTestRanker()

	ref := mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "9", Price: 100})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "10", Price: 300})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "8", Price: 60})
	mem.AddListing(store.Listing{Name: "Blastoise", SetName: "Base Set", Grade: "9", Price: 50})

	views, err := ranker.Similar(context.Background(), ref.ID, SimilarOptions{})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	if views[0].Price != 60 || views[1].Price != 300 {
		t.Errorf("expected price-ascending order, got %+v", views)
	}
	for _, v := range views {
		if v.ID == ref.ID {
			t.Error("reference item must be excluded")
		}
		if v.Name != "Charizard" {
			t.Errorf("unrelated card %q in results", v.Name)
		}
	}
}

func TestSimilar_GradeMatchModes(t *testing.T) {
	ranker, mem := newTestRanker()

	ref := mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "9", Price: 100})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "9", Price: 90})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "10", Price: 250})

	tests := []struct {
		name      string
		match     GradeMatch
		wantCount int
		wantGrade string
	}{
		{"Same grade", SameGrade, 1, "9"},
		{"Different grade", DifferentGrade, 1, "10"},
		{"Any grade", AnyGrade, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := ranker.Similar(context.Background(), ref.ID, SimilarOptions{GradeMatch: tt.match})
			if err != nil {
				t.Fatalf("Similar: %v", err)
			}
			if len(views) != tt.wantCount {
				t.Fatalf("got %d views, want %d", len(views), tt.wantCount)
			}
			if tt.wantGrade != "" && views[0].Grade != tt.wantGrade {
				t.Errorf("Grade = %q, want %q", views[0].Grade, tt.wantGrade)
			}
		})
	}
}

func TestSimilar_MatchesByCardIDWhenPresent(t *testing.T) {
	ranker, mem := newTestRanker()

	ref := mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", CardID: "base1-4", Grade: "9", Price: 100})
	mem.AddListing(store.Listing{Name: "Charizard Holo", SetName: "Base Set 2", CardID: "base1-4", Grade: "8", Price: 80})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", CardID: "base2-4", Grade: "9", Price: 70})

	views, err := ranker.Similar(context.Background(), ref.ID, SimilarOptions{})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1 (card id match only)", len(views))
	}
	if views[0].Price != 80 {
		t.Errorf("unexpected match: %+v", views[0])
	}
}

func TestSimilar_UnknownReferenceIsError(t *testing.T) {
	ranker, _ := newTestRanker()

	_, err := ranker.Similar(context.Background(), "missing-id", SimilarOptions{})
	if err == nil {
		t.Fatal("expected error for unknown reference id")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want store.ErrNotFound", err)
	}
}

func TestCompareGrades_GradeDescPriceAscTieBreak(t *testing.T) {
	ranker, mem := newTestRanker()

	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "9", Price: 50})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "10", Price: 30})
	mem.AddListing(store.Listing{Name: "Charizard", SetName: "Base Set", Grade: "9.5", Price: 40})

	views, err := ranker.CompareGrades(context.Background(), GradeQuery{Name: "Charizard", SetName: "Base Set"})
	if err != nil {
		t.Fatalf("CompareGrades: %v", err)
	}

	gotGrades := []string{}
	for _, v := range views {
		gotGrades = append(gotGrades, v.Grade)
	}
	want := []string{"10", "9.5", "9"}
	for i := range want {
		if gotGrades[i] != want[i] {
			t.Fatalf("grade order %v, want %v", gotGrades, want)
		}
	}
}

func TestCompareGrades_SameGradePriceAscending(t *testing.T) {
	ranker, mem := newTestRanker()

	mem.AddListing(store.Listing{Name: "Charizard", Grade: "9", Price: 60})
	mem.AddListing(store.Listing{Name: "Charizard", Grade: "9", Price: 40})

	views, err := ranker.CompareGrades(context.Background(), GradeQuery{Name: "Charizard"})
	if err != nil {
		t.Fatalf("CompareGrades: %v", err)
	}
	if len(views) != 2 || views[0].Price != 40 || views[1].Price != 60 {
		t.Errorf("expected price-ascending tie-break, got %+v", views)
	}
}

func TestCompareGrades_GarbledGradeSortsLast(t *testing.T) {
	ranker, mem := newTestRanker()

	mem.AddListing(store.Listing{Name: "Charizard", Grade: "Authentic", Price: 10})
	mem.AddListing(store.Listing{Name: "Charizard", Grade: "8", Price: 80})

	views, err := ranker.CompareGrades(context.Background(), GradeQuery{Name: "Charizard"})
	if err != nil {
		t.Fatalf("CompareGrades: %v", err)
	}
	if views[len(views)-1].Grade != "Authentic" {
		t.Errorf("garbled grade must land last, got %+v", views)
	}
}

func TestCompareGrades_RequiresName(t *testing.T) {
	ranker, _ := newTestRanker()

	if _, err := ranker.CompareGrades(context.Background(), GradeQuery{}); err == nil {
		t.Error("expected error for missing card name")
	}
}
