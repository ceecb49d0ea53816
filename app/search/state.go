package search

import (
	"context"
	"sync"

	"github.com/lysyi3m/newsreader/app/news"
)

// State is one of Idle, Loading, Success, Empty or Error.
type State interface {
	searchState()
}

type Idle struct{}

type Loading struct {
	Query Query
}

type Success struct {
	Query    Query
	Articles []news.Article
}

// Empty is a completed search that found nothing.
type Empty struct {
	Query Query
}

type Error struct {
	Query Query
	Err   error
}

func (Idle) searchState()    {}
func (Loading) searchState() {}
func (Success) searchState() {}
func (Empty) searchState()   {}
func (Error) searchState()   {}

// Searcher runs one resolved query against the data layer.
type Searcher func(ctx context.Context, q Query) ([]news.Article, error)

// Request is one submission from the search box.
type Request struct {
	Text   string
	Picked *PartialDate
}

// Machine drives the search screen. Every Submit re-enters Loading; a later
// Submit or Clear supersedes whatever is in flight, and the superseded
// result is dropped when it arrives.
type Machine struct {
	search Searcher

	mu        sync.Mutex
	state     State
	seq       uint64
	observers []func(State)
	wg        sync.WaitGroup
}

func NewMachine(search Searcher) *Machine {
	return &Machine{search: search, state: Idle{}}
}

// Subscribe registers fn for every subsequent transition and returns a func
// that removes it.
func (m *Machine) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, fn)
	idx := len(m.observers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.observers) {
			m.observers[idx] = nil
		}
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Submit resolves req and starts the search. Resolution failures go straight
// to Error; a blank request goes to Idle without searching.
func (m *Machine) Submit(ctx context.Context, req Request) {
	q, err := Resolve(req.Text, req.Picked)
	if err != nil {
		m.transition(m.bump(), Error{Err: err})
		return
	}
	if q.Empty() {
		m.transition(m.bump(), Idle{})
		return
	}

	seq := m.bump()
	m.transition(seq, Loading{Query: q})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		articles, err := m.search(ctx, q)
		switch {
		case err != nil:
			m.transition(seq, Error{Query: q, Err: err})
		case len(articles) == 0:
			m.transition(seq, Empty{Query: q})
		default:
			m.transition(seq, Success{Query: q, Articles: Rank(articles, q)})
		}
	}()
}

// Clear returns to Idle. It never touches the data layer.
func (m *Machine) Clear() {
	m.transition(m.bump(), Idle{})
}

// Wait blocks until every started search has finished.
func (m *Machine) Wait() {
	m.wg.Wait()
}

func (m *Machine) bump() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

func (m *Machine) transition(seq uint64, next State) {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.state = next
	observers := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		if fn != nil {
			observers = append(observers, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

// Describe renders a state for logs and API responses.
func Describe(s State) string {
	switch s.(type) {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Error:
		return "error"
	default:
		panic("search: unknown state")
	}
}
