// Package extract writes archive members to a sink.
//
// Members are grouped into contiguous byte ranges so a run of adjacent
// payloads costs a single read on the underlying source, which matters
// when the source is remote. Reads can be pipelined ahead of the write
// stage with a bounded byte budget.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/buildfmt/grpart/grp"
	"github.com/buildfmt/grpart/internal/sizing"
)

// parallelMinAvgBytes is the minimum average member size for parallel writes.
const parallelMinAvgBytes = 64 << 10 // 64KB

// Source provides random access to an archive image.
// *os.File behind a thin adapter and http.Source both satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// Processor extracts archive members from a source.
type Processor struct {
	source           Source
	workers          int // 0 = auto, <0 = serial, >0 = fixed count
	readConcurrency  int
	readAheadBytes   uint64
	readAheadEnabled bool
	logger           *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of workers for parallel writes.
// Values < 0 force serial processing. Zero uses automatic heuristics.
// Values > 0 force a specific worker count.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithReadConcurrency sets the number of concurrent range reads.
// Values < 1 force serial reads.
func WithReadConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n < 1 {
			n = 1
		}
		p.readConcurrency = n
	}
}

// WithReadAheadBytes caps the total size of buffered range data.
// A value of 0 disables the byte budget.
func WithReadAheadBytes(limit uint64) ProcessorOption {
	return func(p *Processor) {
		p.readAheadBytes = limit
		p.readAheadEnabled = limit > 0
	}
}

// WithProcessorLogger sets the logger for extraction operations.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a processor over an archive image.
func NewProcessor(source Source, opts ...ProcessorOption) *Processor {
	p := &Processor{
		source:          source,
		readConcurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract enumerates the archive and writes every member through sink.
//
// Members the sink declines are counted as skipped. Any member whose
// decoded name is not a valid fs path aborts the run before anything is
// written. The first read or write error stops the run; in-flight
// payloads are discarded rather than left half-written.
func (p *Processor) Extract(sink Sink) (Stats, error) {
	size := p.source.Size()
	ar, err := grp.Open(io.NewSectionReader(p.source, 0, size))
	if err != nil {
		return Stats{}, err
	}
	entries, err := ar.Entries()
	if err != nil {
		return Stats{}, err
	}
	for _, e := range entries {
		if !fs.ValidPath(e.Name()) {
			return Stats{}, &fs.PathError{Op: "extract", Path: e.Name(), Err: fs.ErrInvalid}
		}
	}

	var stats Stats
	toProcess := make([]grp.Entry, 0, len(entries))
	for _, e := range entries {
		if !sink.ShouldProcess(e) {
			stats.Skipped++
			continue
		}
		toProcess = append(toProcess, e)
	}
	if len(toProcess) == 0 {
		return stats, nil
	}

	sourceSize := uint64(size) //nolint:gosec // Size is never negative
	for _, e := range toProcess {
		end, ok := sizing.AddUint64(e.Offset, uint64(e.Size))
		if !ok {
			return Stats{}, fmt.Errorf("extract: %s: %w", e.Name(), grp.ErrSizeOverflow)
		}
		if end > sourceSize {
			return Stats{}, fmt.Errorf("extract: %s: %w", e.Name(), grp.ErrTruncated)
		}
	}

	// Sort by payload offset for grouping
	slices.SortFunc(toProcess, func(a, b grp.Entry) int {
		if a.Offset < b.Offset {
			return -1
		}
		if a.Offset > b.Offset {
			return 1
		}
		return 0
	})

	groups := groupAdjacent(toProcess)
	p.log().Debug("extracting members", "members", len(toProcess), "groups", len(groups))

	var processed Stats
	if len(groups) > 1 && (p.readConcurrency > 1 || p.readAheadEnabled) {
		processed, err = p.processGroupsPipelined(groups, sink)
	} else {
		processed, err = p.processGroupsSequential(groups, sink)
	}
	if err != nil {
		return Stats{}, err
	}
	stats.add(processed)
	return stats, nil
}

// groupTask represents a pending range read for the pipeline.
type groupTask struct {
	index int
	group rangeGroup
	size  int64
}

// groupResult holds the completed read data for a group.
type groupResult struct {
	index int
	group rangeGroup
	data  []byte
	size  int64
}

// processGroupsSequential processes groups one at a time without pipelining.
func (p *Processor) processGroupsSequential(groups []rangeGroup, sink Sink) (Stats, error) {
	var stats Stats
	for _, group := range groups {
		data, err := p.readGroupData(group)
		if err != nil {
			return Stats{}, err
		}
		s, err := p.processGroupWithData(group, data, sink)
		if err != nil {
			return Stats{}, err
		}
		stats.add(s)
	}
	return stats, nil
}

//nolint:gocognit,gocyclo // pipeline logic requires coordination between producers and consumers
func (p *Processor) processGroupsPipelined(groups []rangeGroup, sink Sink) (Stats, error) {
	readWorkers := p.readConcurrency
	if readWorkers < 1 {
		readWorkers = 1
	}

	var budget *semaphore.Weighted
	if p.readAheadEnabled {
		limit, err := sizing.ToInt64(p.readAheadBytes, grp.ErrSizeOverflow)
		if err != nil {
			return Stats{}, fmt.Errorf("extract: %w", err)
		}
		budget = semaphore.NewWeighted(limit)
	}

	readCh := make(chan groupTask)
	readyCh := make(chan groupResult, readWorkers)
	eg, ctx := errgroup.WithContext(context.Background())

	var readWg sync.WaitGroup
	readWg.Add(readWorkers)

	for range readWorkers {
		eg.Go(func() error {
			defer readWg.Done()
			for task := range readCh {
				if err := ctx.Err(); err != nil {
					return err
				}
				if budget != nil {
					if err := budget.Acquire(ctx, task.size); err != nil {
						return err
					}
				}
				data, err := p.readGroupData(task.group)
				if err != nil {
					if budget != nil {
						budget.Release(task.size)
					}
					return err
				}
				result := groupResult{
					index: task.index,
					group: task.group,
					data:  data,
					size:  task.size,
				}
				select {
				case readyCh <- result:
				case <-ctx.Done():
					if budget != nil {
						budget.Release(task.size)
					}
					return ctx.Err()
				}
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(readCh)
		for i, group := range groups {
			size, err := groupSize(group)
			if err != nil {
				return err
			}
			task := groupTask{index: i, group: group, size: size}
			select {
			case readCh <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	go func() {
		readWg.Wait()
		close(readyCh)
	}()

	var stats Stats
	eg.Go(func() error {
		next := 0
		pending := make(map[int]groupResult, readWorkers)
		for next < len(groups) {
			select {
			case res, ok := <-readyCh:
				if !ok {
					if err := ctx.Err(); err != nil {
						return err
					}
					return errors.New("extract: read pipeline ended unexpectedly")
				}
				pending[res.index] = res
				for {
					res, ok := pending[next]
					if !ok {
						break
					}
					delete(pending, next)
					s, err := p.processGroupWithData(res.group, res.data, sink)
					if budget != nil {
						budget.Release(res.size)
					}
					if err != nil {
						return err
					}
					stats.add(s)
					next++
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// processGroupWithData writes all members in a group using pre-fetched data.
func (p *Processor) processGroupWithData(group rangeGroup, data []byte, sink Sink) (Stats, error) {
	if len(group.entries) == 0 {
		return Stats{}, nil
	}
	workers := p.workerCount(group.entries)
	var err error
	if workers < 2 {
		err = processEntriesSerial(group.entries, data, group.start, sink)
	} else {
		err = processEntriesParallel(group.entries, data, group.start, sink, workers)
	}
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.Processed = len(group.entries)
	for _, e := range group.entries {
		stats.TotalBytes += uint64(e.Size)
	}
	return stats, nil
}

// readGroupData reads the contiguous byte range for a group.
func (p *Processor) readGroupData(group rangeGroup) ([]byte, error) {
	size := group.end - group.start
	sizeInt, err := sizing.ToInt(size, grp.ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	data := make([]byte, sizeInt)
	n, err := p.source.ReadAt(data, int64(group.start)) //nolint:gosec // offset fits in int64 after validation
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if uint64(n) != size { //nolint:gosec // n is always non-negative
		return nil, fmt.Errorf("extract: short read (%d of %d bytes)", n, size)
	}
	return data, nil
}

// groupSize returns the total byte size of a group as int64.
func groupSize(group rangeGroup) (int64, error) {
	size := group.end - group.start
	return sizing.ToInt64(size, grp.ErrSizeOverflow)
}

// processEntriesSerial writes members one at a time.
func processEntriesSerial(entries []grp.Entry, data []byte, groupStart uint64, sink Sink) error {
	for _, e := range entries {
		if err := processEntry(e, data, groupStart, sink); err != nil {
			return err
		}
	}
	return nil
}

// processEntriesParallel writes members concurrently.
func processEntriesParallel(entries []grp.Entry, data []byte, groupStart uint64, sink Sink, workers int) error {
	var stop atomic.Bool
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(entries); i += workers {
				if stop.Load() {
					return
				}
				if err := processEntry(entries[i], data, groupStart, sink); err != nil {
					if stop.CompareAndSwap(false, true) {
						errCh <- err
					}
					return
				}
			}
		}(w)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// processEntry slices one member payload out of the group data and writes it.
func processEntry(e grp.Entry, groupData []byte, groupStart uint64, sink Sink) error {
	localOffset := e.Offset - groupStart
	localEnd := localOffset + uint64(e.Size)
	if localEnd < localOffset || localEnd > uint64(len(groupData)) {
		return fmt.Errorf("extract: %s: %w", e.Name(), grp.ErrSizeOverflow)
	}
	start, err := sizing.ToInt(localOffset, grp.ErrSizeOverflow)
	if err != nil {
		return err
	}
	end, err := sizing.ToInt(localEnd, grp.ErrSizeOverflow)
	if err != nil {
		return err
	}
	entryData := groupData[start:end]

	w, err := sink.Writer(e)
	if err != nil {
		return fmt.Errorf("extract: %s: %w", e.Name(), err)
	}
	if err := writeAll(w, entryData); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract: %s: %w", e.Name(), err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("extract: %s: commit: %w", e.Name(), err)
	}
	return nil
}

// workerCount determines the number of workers for writing a group.
func (p *Processor) workerCount(entries []grp.Entry) int {
	if len(entries) < 2 {
		return 1
	}
	if p.workers < 0 {
		return 1
	}

	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers < 2 {
			return 1
		}
		var total uint64
		for _, e := range entries {
			next, ok := sizing.AddUint64(total, uint64(e.Size))
			if !ok {
				total = ^uint64(0)
				break
			}
			total = next
		}
		if total/uint64(len(entries)) < parallelMinAvgBytes {
			return 1
		}
	}

	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 2 {
		return 1
	}
	return workers
}

// writeAll writes all data to w, handling partial writes.
func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
