package ingestsync

import "sync"

// Decision is the running verdict of a predicate chain.
type Decision int8

const (
	// Undecided means no predicate has made a decision yet.
	Undecided Decision = iota
	// Ingest means the record should be sent to the ingestion API.
	Ingest
	// Skip means the record must not be ingested.
	Skip
)

// Predicate is one reducer in a should-ingest chain. It receives the verdict of
// the previous predicates and returns its own.
type Predicate func(prev Decision, record Record) Decision

// PredicateChain is an ordered list of predicates. An empty chain is distinct
// from a chain that says Skip: with no predicates ingestion is disabled.
type PredicateChain struct {
	mu    sync.RWMutex
	preds []Predicate
}

// NewPredicateChain creates a chain with the given predicates.
func NewPredicateChain(preds ...Predicate) *PredicateChain {
	chain := &PredicateChain{}
	for _, pred := range preds {
		chain.Register(pred)
	}

	return chain
}

// Register appends a predicate to the chain. Nil predicates are ignored.
func (c *PredicateChain) Register(pred Predicate) {
	if pred == nil {
		return
	}
	c.mu.Lock()
	c.preds = append(c.preds, pred)
	c.mu.Unlock()
}

// Registered reports whether at least one predicate is registered.
func (c *PredicateChain) Registered() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.preds) > 0
}

// Evaluate folds the chain over record. Folding stops at the first Skip.
// The second return value is false when the chain is empty.
func (c *PredicateChain) Evaluate(record Record) (Decision, bool) {
	if c == nil {
		return Undecided, false
	}
	c.mu.RLock()
	preds := append([]Predicate(nil), c.preds...)
	c.mu.RUnlock()
	if len(preds) == 0 {
		return Undecided, false
	}

	verdict := Undecided
	for _, pred := range preds {
		verdict = pred(verdict, record)
		if verdict == Skip {
			break
		}
	}

	return verdict, true
}

// IngestTypes returns a predicate that opts in records of the given types and
// leaves others undecided.
func IngestTypes(types ...string) Predicate {
	allowed := make(map[string]struct{}, len(types))
	for _, typ := range types {
		allowed[typ] = struct{}{}
	}

	return func(prev Decision, record Record) Decision {
		if _, ok := allowed[record.Type]; ok && prev == Undecided {
			return Ingest
		}

		return prev
	}
}
