package engine

import "sort"

// Indexer gives a unique 1-based variable index to every valid combination of
// start-variable attributes (activity, day, startHour) and vice versa. An
// activity whose block is n hours long may start at hours 1..maxHours-n+1, so
// the per-activity ranges are ragged and laid out contiguously.
type Indexer struct {
	days         int
	maxHours     int
	startsPerDay []int // per activity
	bases        []int // cumulative 0-based offset per activity, plus a final total
}

func NewIndexer(blockLengths []int, days, maxHours int) *Indexer {
	indexer := &Indexer{
		days:         days,
		maxHours:     maxHours,
		startsPerDay: make([]int, len(blockLengths)),
		bases:        make([]int, len(blockLengths)+1),
	}

	offset := 0
	for i, length := range blockLengths {
		starts := maxHours - length + 1
		if starts < 0 {
			starts = 0
		}
		indexer.startsPerDay[i] = starts
		indexer.bases[i] = offset
		offset += days * starts
	}
	indexer.bases[len(blockLengths)] = offset

	return indexer
}

// Variables returns the number of start variables; aux variables are
// allocated above this range by the instance itself.
func (indexer *Indexer) Variables() int {
	return indexer.bases[len(indexer.bases)-1]
}

// StartsPerDay returns how many start hours are valid for the activity.
func (indexer *Indexer) StartsPerDay(activity int) int {
	return indexer.startsPerDay[activity]
}

// Index returns the variable for "activity starts on day at startHour".
func (indexer *Indexer) Index(activity, day, startHour int) int {
	return indexer.bases[activity] + day*indexer.startsPerDay[activity] + (startHour - 1) + 1
}

// Attributes recovers (activity, day, startHour) from a start-variable index.
func (indexer *Indexer) Attributes(index int) (activity, day, startHour int) {
	offset := index - 1
	activity = sort.Search(len(indexer.bases)-1, func(i int) bool {
		return indexer.bases[i+1] > offset
	})

	offset -= indexer.bases[activity]
	day = offset / indexer.startsPerDay[activity]
	startHour = offset%indexer.startsPerDay[activity] + 1

	return activity, day, startHour
}

// IsStart reports whether the index belongs to the start-variable range, as
// opposed to an auxiliary indicator.
func (indexer *Indexer) IsStart(index int) bool {
	return index >= 1 && index <= indexer.Variables()
}
