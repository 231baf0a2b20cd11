package layout

import (
	"context"
	"time"
)

// AutoLayout recomputes the boxes below id and snaps its subtree beneath
// it. It does not touch siblings or ancestors, so it suits a root or a
// freshly arranged subtree.
func (e *Engine) AutoLayout(ctx context.Context, id string) error {
	start := time.Now()
	if _, err := e.UpdateBox(ctx, id); err != nil {
		return err
	}
	if err := e.Reposition(ctx, id, Down); err != nil {
		return err
	}
	e.logger.Info("auto layout", "node", id, "duration", time.Since(start))
	return nil
}

// CascadeLayoutChange repairs the layout after id was resized, collapsed,
// expanded or gained or lost children.
//
// When the recomputed box of id equals the cached one, only the subtree of
// id is re-snapped: a manual drag may have displaced children without
// changing the footprint. Otherwise, or when no box was cached, the subtree
// is re-snapped, the siblings are re-levelled around the new footprint and
// the change is propagated to every ancestor.
//
// The first error aborts the cascade. Positions already written stay; the
// next cascade heals them.
func (e *Engine) CascadeLayoutChange(ctx context.Context, id string) (err error) {
	start := time.Now()
	full := true
	e.hook().OnCascadeStart(ctx, id)
	defer func() {
		e.hook().OnCascadeComplete(ctx, id, full, time.Since(start), err)
		if err != nil {
			e.logger.Error("cascade aborted", "node", id, "err", err)
			return
		}
		e.logger.Info("cascade", "node", id, "full", full, "duration", time.Since(start))
	}()

	prev, cached, err := e.cachedBox(ctx, id)
	if err != nil {
		return err
	}
	curr, err := e.UpdateBox(ctx, id)
	if err != nil {
		return err
	}
	full = !cached || prev != curr

	if err := e.Reposition(ctx, id, Down); err != nil {
		return err
	}
	if !full {
		return nil
	}
	if err := e.Reposition(ctx, id, Across); err != nil {
		return err
	}
	return e.Reposition(ctx, id, Up)
}
