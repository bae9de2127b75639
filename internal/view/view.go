package view

import (
	"sort"
	"strings"

	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/state"
)

// Engine projects the current search, filter and sort onto the available pool.
// Like the roster it is owned by one goroutine.
type Engine struct {
	roster *roster.Roster
	store  *state.Store
}

// New wires the engine as the roster's available-insert hook.
func New(r *roster.Roster, s *state.Store) *Engine {
	e := &Engine{roster: r, store: s}
	r.OnAvailableInsert(e.onInsert)
	return e
}

func (e *Engine) ApplySearch(query string) int {
	e.store.SetQuery(query)
	return e.filter()
}

func (e *Engine) ApplyFilter(position string) int {
	e.store.SetPosition(position)
	return e.filter()
}

// ApplySort reorders the available pool in place. Unknown keys leave the order alone.
func (e *Engine) ApplySort(key string) int {
	k, ok := state.ParseSortKey(key)
	if ok {
		e.store.SetSortKey(k)
		e.sort(k)
	}
	return e.visible()
}

// Reapply runs the stored search, filter and sort again.
func (e *Engine) Reapply() int {
	n := e.filter()
	e.sort(e.store.View().SortKey)
	return n
}

func (e *Engine) onInsert(c *roster.Card) {
	v := e.store.View()
	c.Hidden = !matches(c, v)
	e.sort(v.SortKey)
	e.roster.Available().EmptyState = e.visible() == 0
}

func (e *Engine) filter() int {
	v := e.store.View()
	pool := e.roster.Available()
	for _, c := range pool.Cards {
		c.Hidden = !matches(c, v)
	}
	n := e.visible()
	pool.EmptyState = n == 0
	return n
}

func (e *Engine) visible() int {
	n := 0
	for _, c := range e.roster.Available().Cards {
		if c.Visible() {
			n++
		}
	}
	return n
}

func matches(c *roster.Card, v state.ViewState) bool {
	if q := strings.ToLower(strings.TrimSpace(v.Query)); q != "" && !strings.Contains(c.NameKey, q) {
		return false
	}
	if p := strings.ToLower(strings.TrimSpace(v.Position)); p != "" && !strings.Contains(c.PositionKey, p) {
		return false
	}
	return true
}

func (e *Engine) sort(k state.SortKey) {
	less := comparator(k)
	if less == nil {
		return
	}
	cards := e.roster.Available().Cards
	sort.SliceStable(cards, func(i, j int) bool { return less(cards[i], cards[j]) })
}

func comparator(k state.SortKey) func(a, b *roster.Card) bool {
	switch k {
	case state.SortName:
		return func(a, b *roster.Card) bool { return a.NameKey < b.NameKey }
	case state.SortExperience:
		return func(a, b *roster.Card) bool { return a.Experience > b.Experience }
	case state.SortAttendance:
		return func(a, b *roster.Card) bool { return a.Attendance > b.Attendance }
	case state.SortGoals:
		return func(a, b *roster.Card) bool { return a.Goals > b.Goals }
	default:
		return nil
	}
}
