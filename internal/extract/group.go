package extract

import "github.com/buildfmt/grpart/grp"

// rangeGroup represents a contiguous range of member payloads.
// All members in a group can be fetched with a single range read.
type rangeGroup struct {
	start   uint64 // Start byte offset in the archive
	end     uint64 // End byte offset (exclusive) in the archive
	entries []grp.Entry
}

// groupAdjacent groups members whose payloads are adjacent in the archive.
//
// Entries must be sorted by Offset before calling this function. Members
// packed back to back (one ends exactly where the next begins) are combined
// into a single group so they can be read together.
//
// The entries slice must be non-empty.
func groupAdjacent(entries []grp.Entry) []rangeGroup {
	groups := make([]rangeGroup, 0, len(entries))
	current := rangeGroup{
		start:   entries[0].Offset,
		end:     entries[0].Offset + uint64(entries[0].Size),
		entries: []grp.Entry{entries[0]},
	}

	for i := 1; i < len(entries); i++ {
		e := entries[i]
		entryEnd := e.Offset + uint64(e.Size)

		if e.Offset == current.end {
			current.end = entryEnd
			current.entries = append(current.entries, e)
		} else {
			groups = append(groups, current)
			current = rangeGroup{
				start:   e.Offset,
				end:     entryEnd,
				entries: []grp.Entry{e},
			}
		}
	}
	return append(groups, current)
}
