// internal/services/board_service.go
package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"vtask/internal/models"
	"vtask/internal/realtime"
)

var ErrBusy = errors.New("another bulk action is in progress")

// Board is the per-owner column controller. It keeps three live projections
// (planned, today, done) fed by the snapshot hub, applies drag results to
// them optimistically before the confirming batch is issued, and guards bulk
// actions with a re-entrancy flag.
//
// The local projections are a cache: a failed batch is not rolled back here,
// the next authoritative snapshot from the hub overwrites whatever the
// optimistic application left behind.
type Board struct {
	ownerID string
	tasks   TaskService
	hub     *realtime.BoardHub

	mu      sync.RWMutex
	columns map[models.Status][]models.Task

	busy atomic.Bool

	subs   []*realtime.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newBoard(ownerID string, tasks TaskService, hub *realtime.BoardHub) *Board {
	return &Board{
		ownerID: ownerID,
		tasks:   tasks,
		hub:     hub,
		columns: make(map[models.Status][]models.Task),
	}
}

// open subscribes the three visible partitions. Each subscription delivers
// its current snapshot first, so the projections are populated before open
// returns control to the caller's first read.
func (b *Board) open(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for _, status := range models.VisibleStatuses {
		sub, err := b.hub.Subscribe(ctx, b.ownerID, status)
		if err != nil {
			b.Close()
			return err
		}
		b.subs = append(b.subs, sub)
		b.setColumn(status, <-sub.C)

		b.wg.Add(1)
		go func(status models.Status, sub *realtime.Subscription) {
			defer b.wg.Done()
			for {
				select {
				case snapshot := <-sub.C:
					b.setColumn(status, snapshot)
				case <-runCtx.Done():
					return
				}
			}
		}(status, sub)
	}
	return nil
}

// Close tears down the live subscriptions. The board must not be used after.
func (b *Board) Close() {
	for _, sub := range b.subs {
		sub.Close()
	}
	b.subs = nil
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Board) setColumn(status models.Status, list []models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.columns[status] = list
}

// Column returns the current projection of one visible column.
func (b *Board) Column(status models.Status) []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Task(nil), b.columns[status]...)
}

// Snapshot returns all three visible columns at once.
func (b *Board) Snapshot() map[models.Status][]models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[models.Status][]models.Task, len(models.VisibleStatuses))
	for _, status := range models.VisibleStatuses {
		out[status] = append([]models.Task(nil), b.columns[status]...)
	}
	return out
}

// DragEnd applies a finished drag: the local projections are updated first,
// then the confirming batch is issued. Within one column that batch is a
// renumber of the whole column; across columns it is the status change plus
// a renumber of both columns.
func (b *Board) DragEnd(ctx context.Context, taskID string, src, dest models.Status, destIndex int) error {
	if !src.Visible() || !dest.Visible() {
		return ErrInvalidStatus
	}

	b.mu.Lock()
	srcList := append([]models.Task(nil), b.columns[src]...)
	task, srcIdx := findTask(srcList, taskID)
	if task == nil {
		b.mu.Unlock()
		return nil
	}

	if src == dest {
		reordered := moveWithin(srcList, srcIdx, destIndex)
		b.columns[src] = reordered
		b.mu.Unlock()
		return b.tasks.ReorderColumn(ctx, b.ownerID, src, taskIDs(reordered))
	}

	moved := *task
	moved.Status = dest
	moved.Completed = dest == models.StatusDone
	srcList = append(srcList[:srcIdx], srcList[srcIdx+1:]...)
	destList := insertTask(append([]models.Task(nil), b.columns[dest]...), moved, destIndex)
	b.columns[src] = srcList
	b.columns[dest] = destList
	b.mu.Unlock()

	return b.tasks.MoveAndReorder(ctx, b.ownerID, taskID, dest, taskIDs(destList), taskIDs(srcList))
}

// TrashAllDone bulk-moves the done column to the trash. Re-entrant calls
// while one is running are no-ops, reported as ErrBusy.
func (b *Board) TrashAllDone(ctx context.Context) (int, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer b.busy.Store(false)
	return b.tasks.TrashAllDone(ctx, b.ownerID)
}

// PurgeAll permanently empties the trash, same guard discipline.
func (b *Board) PurgeAll(ctx context.Context) (int, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer b.busy.Store(false)
	return b.tasks.PurgeTrash(ctx, b.ownerID)
}

// Busy reports whether a bulk action is in flight, for trigger disabling.
func (b *Board) Busy() bool {
	return b.busy.Load()
}

func findTask(list []models.Task, id string) (*models.Task, int) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], i
		}
	}
	return nil, -1
}

func moveWithin(list []models.Task, from, to int) []models.Task {
	if from < 0 || from >= len(list) {
		return list
	}
	task := list[from]
	list = append(list[:from], list[from+1:]...)
	return insertTask(list, task, to)
}

func insertTask(list []models.Task, task models.Task, at int) []models.Task {
	if at < 0 {
		at = 0
	}
	if at > len(list) {
		at = len(list)
	}
	list = append(list, models.Task{})
	copy(list[at+1:], list[at:])
	list[at] = task
	return list
}

func taskIDs(list []models.Task) []string {
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	return ids
}

// BoardManager hands out one open Board per owner, created lazily on first
// use and kept for the life of the process.
type BoardManager struct {
	mu     sync.Mutex
	boards map[string]*Board
	tasks  TaskService
	hub    *realtime.BoardHub
}

func NewBoardManager(tasks TaskService, hub *realtime.BoardHub) *BoardManager {
	return &BoardManager{
		boards: make(map[string]*Board),
		tasks:  tasks,
		hub:    hub,
	}
}

func (m *BoardManager) Board(ctx context.Context, ownerID string) (*Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if board, ok := m.boards[ownerID]; ok {
		return board, nil
	}
	board := newBoard(ownerID, m.tasks, m.hub)
	if err := board.open(ctx); err != nil {
		return nil, err
	}
	m.boards[ownerID] = board
	log.Printf("[board][open] owner=%s", ownerID)
	return board, nil
}

func (m *BoardManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for owner, board := range m.boards {
		board.Close()
		delete(m.boards, owner)
	}
}
