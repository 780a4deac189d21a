// Package schedule holds the weekly planning board and its persistence
// client. The board is pure state: placing, moving, and removing entries is
// the drag/drop model of the scheduler; nothing here talks to the network
// except the explicit save/load client.
package schedule

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

// DayCount is the number of planable days in a week board (Monday..Friday).
const DayCount = 5

// DayNames are the display names for board columns, indexed by day.
var DayNames = [DayCount]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var (
	ErrDayOutOfRange = errors.New("day out of range")
	ErrEntryNotFound = errors.New("entry not found")
)

// Entry is one placed activity on the board.
type Entry struct {
	ID       string         `json:"id"`
	Day      int            `json:"day"` // 0 = Monday
	Activity types.Activity `json:"activity"`
}

// Board is a week of planned activities: an ordered entry list per day.
// Safe for concurrent use; readers get snapshot copies.
type Board struct {
	mu   sync.RWMutex
	week int
	days [DayCount][]Entry
}

// NewBoard creates an empty board for the given week number.
func NewBoard(week int) *Board {
	return &Board{week: week}
}

// Week returns the board's week number.
func (b *Board) Week() int {
	return b.week
}

// Place appends an activity to the end of a day and returns the entry id.
func (b *Board) Place(day int, activity types.Activity) (string, error) {
	if day < 0 || day >= DayCount {
		return "", ErrDayOutOfRange
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry := Entry{ID: uuid.New().String(), Day: day, Activity: activity}
	b.days[day] = append(b.days[day], entry)
	return entry.ID, nil
}

// Move repositions an entry to the given day and index; this is the
// drag/drop operation. The index is clamped to the target day's bounds.
func (b *Board) Move(entryID string, toDay, toIndex int) error {
	if toDay < 0 || toDay >= DayCount {
		return ErrDayOutOfRange
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.take(entryID)
	if !ok {
		return ErrEntryNotFound
	}

	entry.Day = toDay
	day := b.days[toDay]
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(day) {
		toIndex = len(day)
	}

	day = append(day, Entry{})
	copy(day[toIndex+1:], day[toIndex:])
	day[toIndex] = entry
	b.days[toDay] = day
	return nil
}

// Remove deletes an entry from the board.
func (b *Board) Remove(entryID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.take(entryID); !ok {
		return ErrEntryNotFound
	}
	return nil
}

// take unlinks an entry from whichever day holds it. Caller holds the lock.
func (b *Board) take(entryID string) (Entry, bool) {
	for d := range b.days {
		for i, entry := range b.days[d] {
			if entry.ID == entryID {
				b.days[d] = append(b.days[d][:i], b.days[d][i+1:]...)
				return entry, true
			}
		}
	}
	return Entry{}, false
}

// Clear empties every day.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.days = [DayCount][]Entry{}
}

// Day returns a snapshot of one day's entries in order.
func (b *Board) Day(day int) ([]Entry, error) {
	if day < 0 || day >= DayCount {
		return nil, ErrDayOutOfRange
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Entry(nil), b.days[day]...), nil
}

// Entries returns a snapshot of the whole board in day order.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Entry
	for d := range b.days {
		out = append(out, b.days[d]...)
	}
	return out
}

// Load replaces the board's contents, assigning ids to entries that lack
// one. Entries with out-of-range days are dropped.
func (b *Board) Load(entries []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.days = [DayCount][]Entry{}
	for _, entry := range entries {
		if entry.Day < 0 || entry.Day >= DayCount {
			continue
		}
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		b.days[entry.Day] = append(b.days[entry.Day], entry)
	}
}
