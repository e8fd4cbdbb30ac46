package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildfmt/grpart/grp"
)

func ent(name string, offset uint64, size uint32) grp.Entry {
	var e grp.Entry
	copy(e.RawName[:], name)
	e.Offset = offset
	e.Size = size
	return e
}

func TestGroupAdjacent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entries  []grp.Entry
		expected []rangeGroup
	}{
		{
			name: "single entry",
			entries: []grp.Entry{
				ent("A", 0, 10),
			},
			expected: []rangeGroup{
				{start: 0, end: 10, entries: []grp.Entry{ent("A", 0, 10)}},
			},
		},
		{
			name: "adjacent entries",
			entries: []grp.Entry{
				ent("A", 0, 10),
				ent("B", 10, 20),
				ent("C", 30, 15),
			},
			expected: []rangeGroup{
				{start: 0, end: 45, entries: []grp.Entry{
					ent("A", 0, 10),
					ent("B", 10, 20),
					ent("C", 30, 15),
				}},
			},
		},
		{
			name: "gap between entries",
			entries: []grp.Entry{
				ent("A", 0, 10),
				ent("B", 20, 10),
			},
			expected: []rangeGroup{
				{start: 0, end: 10, entries: []grp.Entry{ent("A", 0, 10)}},
				{start: 20, end: 30, entries: []grp.Entry{ent("B", 20, 10)}},
			},
		},
		{
			name: "multiple groups",
			entries: []grp.Entry{
				ent("A", 0, 10),
				ent("B", 10, 10),
				ent("C", 50, 10),
				ent("D", 60, 10),
			},
			expected: []rangeGroup{
				{start: 0, end: 20, entries: []grp.Entry{
					ent("A", 0, 10),
					ent("B", 10, 10),
				}},
				{start: 50, end: 70, entries: []grp.Entry{
					ent("C", 50, 10),
					ent("D", 60, 10),
				}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			groups := groupAdjacent(tc.entries)

			require.Len(t, groups, len(tc.expected))
			for i, g := range groups {
				assert.Equal(t, tc.expected[i].start, g.start, "group %d start", i)
				assert.Equal(t, tc.expected[i].end, g.end, "group %d end", i)
				assert.Equal(t, tc.expected[i].entries, g.entries, "group %d entries", i)
			}
		})
	}
}
