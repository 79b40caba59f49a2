package ingestsync

import "testing"

func TestPredicateChain_Empty(t *testing.T) {
	chain := NewPredicateChain()
	if chain.Registered() {
		t.Fatalf("expected empty chain")
	}
	if verdict, ok := chain.Evaluate(published(1, "post")); ok || verdict != Undecided {
		t.Fatalf("expected undecided/unregistered, got %v/%v", verdict, ok)
	}

	var nilChain *PredicateChain
	if nilChain.Registered() {
		t.Fatalf("expected nil chain to report no predicates")
	}
}

func TestPredicateChain_StopsAtSkip(t *testing.T) {
	called := false
	chain := NewPredicateChain(
		IngestTypes("post"),
		func(prev Decision, record Record) Decision {
			if record.Fields["private"] == true {
				return Skip
			}

			return prev
		},
		nil,
		func(Decision, Record) Decision {
			called = true

			return Ingest
		},
	)

	record := published(1, "post")
	record.Fields = map[string]any{"private": true}
	if verdict, ok := chain.Evaluate(record); !ok || verdict != Skip {
		t.Fatalf("expected skip, got %v/%v", verdict, ok)
	}
	if called {
		t.Fatalf("expected folding to stop at skip")
	}
}

func TestPredicateChain_LaterPredicatesSeePrevious(t *testing.T) {
	var seen Decision
	chain := NewPredicateChain(IngestTypes("page"), func(prev Decision, _ Record) Decision {
		seen = prev

		return prev
	})

	if verdict, _ := chain.Evaluate(published(1, "page")); verdict != Ingest || seen != Ingest {
		t.Fatalf("expected ingest passed along, got %v/%v", verdict, seen)
	}
	if verdict, _ := chain.Evaluate(published(2, "post")); verdict != Undecided {
		t.Fatalf("expected undecided for other types, got %v", verdict)
	}
}
