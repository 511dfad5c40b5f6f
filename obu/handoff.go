/*
DESCRIPTION
  handoff.go implements the frame-handoff controller for multi-worker pixel
  decode pipelines, spec §4.H: a ring of worker slots with per-slot
  backpressure, atomic consumer cursors, and a cached worker error surfaced
  exactly once on the next call.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// workerSlot is one ring slot's output holder, spec §4.H.
type workerSlot struct {
	// tiles gates the slot: held at weight 1 while tile data is pending,
	// released once the worker has drained its tiles, giving Submit a
	// blocking wait with the same shape as the teacher's worker-pool
	// admission gates.
	tiles *semaphore.Weighted

	populated bool
	visible   bool
	err       error
	frame     *FrameHeader
	picture   Picture
}

// handoffController is the ring described in spec §4.H: nFC worker slots,
// a monotonically advancing submission cursor, and atomic consumer cursors
// (first/cur) so readers of published output never observe a slot the
// producer side is still mutating.
type handoffController struct {
	mu    sync.Mutex
	slots []workerSlot
	next  uint64

	first int32
	cur   int32

	cachedErr      error
	cachedErrStamp int64

	publish func(hdr *FrameHeader, pic Picture)
}

// newHandoffController returns a controller with nFC ring slots, each
// initially free (no pending tiles).
func newHandoffController(nFC int, publish func(hdr *FrameHeader, pic Picture)) *handoffController {
	h := &handoffController{
		slots:   make([]workerSlot, nFC),
		first:   -1,
		publish: publish,
	}
	for i := range h.slots {
		h.slots[i].tiles = semaphore.NewWeighted(1)
	}
	return h
}

// EnableHandoff installs a handoff controller with nFC ring slots on the
// context; its Submit calls publish with frames in strict submission order
// as they become visible. DecoderContext.emit does not route frames through
// the controller: it always calls Submitter directly.
func (c *DecoderContext) EnableHandoff(nFC int, publish func(hdr *FrameHeader, pic Picture)) {
	c.handoff = newHandoffController(nFC, publish)
}

// markTilesPending is called once a frame's tile groups start arriving for
// the ring slot the frame will occupy, modeling the "n_tile_data > 0" gate
// from spec §4.H.
func (h *handoffController) markTilesPending(ctx context.Context, slot int) error {
	return h.slots[slot].tiles.Acquire(ctx, 1)
}

// markTilesDrained releases the slot's tile gate, unblocking step 1 of the
// next submission that lands on this slot.
func (h *handoffController) markTilesDrained(slot int) {
	h.slots[slot].tiles.Release(1)
}

// Submit runs the five-step submission protocol from spec §4.H for one
// completed frame, assigning it the next ring slot in round-robin order.
// workerErr, if non-nil, is the worker-reported failure for this frame; pic is
// nil for header-only (skip) submissions.
func (h *handoffController) Submit(ctx context.Context, hdr *FrameHeader, pic Picture, workerErr error, dataStamp int64, outputInvisibleFrames bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	slotIdx := int(h.next % uint64(len(h.slots)))
	h.next++
	slot := &h.slots[slotIdx]

	// Step 1: wait until this slot has no pending tiles (a previous
	// occupant, if any, has fully drained).
	if err := h.markTilesPending(ctx, slotIdx); err != nil {
		return err
	}
	h.markTilesDrained(slotIdx)

	// Step 2: if the slot already holds output or an error from a prior
	// occupant, advance the consumer cursors before reusing it.
	if slot.populated || slot.err != nil {
		h.advanceCursors()
	}

	// Step 3: cache a worker error, dropping any output.
	if workerErr != nil {
		h.cachedErr = workerErr
		h.cachedErrStamp = dataStamp
		slot.err = workerErr
		slot.populated = false
		slot.frame = nil
		slot.picture = nil
		return nil
	}

	// Step 4: publish visible output that isn't an error, in submission
	// order.
	visible := hdr.ShowFrame || hdr.ShowExistingFrame || outputInvisibleFrames
	if visible && h.publish != nil {
		h.publish(hdr, pic)
	}

	// Step 5: attach the frame to the slot and mark it populated/visible.
	slot.frame = hdr
	slot.picture = pic
	slot.populated = true
	slot.visible = visible
	slot.err = nil
	return nil
}

// advanceCursors implements the first/cur bookkeeping from spec §4.H: first
// advances cyclically, and cur is decremented once if it is in
// 1..len(slots).
func (h *handoffController) advanceCursors() {
	n := int32(len(h.slots))
	if n == 0 {
		return
	}
	atomic.StoreInt32(&h.first, (atomic.LoadInt32(&h.first)+1)%n)
	for {
		cur := atomic.LoadInt32(&h.cur)
		if cur <= 0 || cur > n {
			return
		}
		if atomic.CompareAndSwapInt32(&h.cur, cur, cur-1) {
			return
		}
	}
}

// PendingError returns and clears the cached worker error, per spec §7
// "surfaced exactly once on the next call".
func (h *handoffController) PendingError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.cachedErr
	h.cachedErr = nil
	return err
}
