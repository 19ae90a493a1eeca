package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/events"
)

const defaultWatchTimeout = 25 * time.Second

// ChangesHandler serves the dashboard change feed as a long-poll. The
// client re-fetches whatever list it is showing when a notice arrives.
type ChangesHandler struct {
	broadcaster *events.Broadcaster
}

// NewChangesHandler constructs handler.
func NewChangesHandler(broadcaster *events.Broadcaster) *ChangesHandler {
	return &ChangesHandler{broadcaster: broadcaster}
}

// Watch GET /admin/changes/watch blocks until a change lands in the
// admin's scope or the poll window elapses. Department admins only see
// notices for their own department; oversight sees everything.
func (h *ChangesHandler) Watch(c *fiber.Ctx) error {
	admin := mustAdmin(c)

	timeout := defaultWatchTimeout
	if secs := parseInt(c.Query("timeout"), 0); secs > 0 && secs <= 60 {
		timeout = time.Duration(secs) * time.Second
	}

	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	notices := h.broadcaster.Subscribe(ctx)
	collected := make([]events.ChangeNotice, 0, 4)

	for {
		select {
		case <-ctx.Done():
			return c.JSON(fiber.Map{"data": fiber.Map{"changes": collected}})
		case notice, ok := <-notices:
			if !ok {
				return c.JSON(fiber.Map{"data": fiber.Map{"changes": collected}})
			}
			if !admin.CanAccessDepartment(notice.DepartmentID) {
				continue
			}
			collected = append(collected, notice)
			// Drain anything already queued, then respond immediately.
			drain := time.After(100 * time.Millisecond)
			for {
				select {
				case extra, ok := <-notices:
					if !ok {
						return c.JSON(fiber.Map{"data": fiber.Map{"changes": collected}})
					}
					if admin.CanAccessDepartment(extra.DepartmentID) {
						collected = append(collected, extra)
					}
				case <-drain:
					return c.JSON(fiber.Map{"data": fiber.Map{"changes": collected}})
				}
			}
		}
	}
}
