package sync

import (
	"errors"

	"lesson-sync/core/logger"
	"lesson-sync/core/reconcile"
	"lesson-sync/core/tombstone"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync passes and tombstones.
type Handler struct {
	service         *Service
	principalHeader string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, principalHeader string) *Handler {
	if principalHeader == "" {
		principalHeader = "X-Principal"
	}
	return &Handler{service: service, principalHeader: principalHeader}
}

// RegisterRoutes registers the sync and tombstone routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	syncGroup := app.Group("/sync")
	syncGroup.Post("/:collection", h.HandleSync)
	syncGroup.Get("/:collection/preview", h.HandlePreview)
	syncGroup.Get("/:collection/cursor", h.HandleCursor)

	tombstones := app.Group("/tombstones")
	tombstones.Get("/:collection", h.HandleListTombstones)
	tombstones.Post("/:collection/clear-token", h.HandleClearToken)
	tombstones.Post("/:collection/:identity", h.HandleMarkTombstone)
	tombstones.Delete("/:collection", h.HandleClearTombstones)

	app.Delete("/records/:collection/:identity", h.HandleDeleteRecord)
}

// HandleSync runs a reconciliation pass.
// @Summary Run Sync Pass
// @Description Reconciles the local collection into the remote store for the principal. Throttled passes return 200 with state "throttled".
// @Tags sync
// @Produce json
// @Param collection path string true "Collection (lessons, compositions, progressions)"
// @Param force query bool false "Bypass the throttle"
// @Param X-Principal header string true "Remote principal"
// @Success 200 {object} reconcile.Report "Pass report"
// @Success 207 {object} reconcile.Report "Some records failed to apply"
// @Failure 403 {object} reconcile.Report "Principal not authorized"
// @Failure 404 {object} map[string]string "Unknown collection"
// @Failure 502 {object} reconcile.Report "Store unavailable"
// @Router /sync/{collection} [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	collection := c.Params("collection")
	principal := c.Get(h.principalHeader)
	l := logger.WithRayID(h.service.logger, c).With(zap.String("collection", collection), zap.String("principal", principal))

	report, err := h.service.Sync(c.UserContext(), collection, principal, c.QueryBool("force"))
	if err != nil {
		l.Warn("Sync pass did not complete", zap.Error(err))
	}
	status := statusFor(err)
	if report == nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(status).JSON(report)
}

// HandlePreview returns the pending changes of a pass.
// @Summary Preview Sync Pass
// @Description Computes the diff of a pass without applying it. The throttle and the cursor are untouched.
// @Tags sync
// @Produce json
// @Param collection path string true "Collection"
// @Param X-Principal header string true "Remote principal"
// @Success 200 {object} Preview "Pending changes"
// @Failure 403 {object} map[string]string "Principal not authorized"
// @Failure 502 {object} map[string]string "Store unavailable"
// @Router /sync/{collection}/preview [get]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	collection := c.Params("collection")
	preview, err := h.service.Preview(c.UserContext(), collection, c.Get(h.principalHeader))
	if err != nil {
		return h.fail(c, "Sync preview failed", err)
	}
	return c.JSON(preview)
}

// HandleCursor returns the last successful pass of a scope.
// @Summary Get Sync Cursor
// @Tags sync
// @Produce json
// @Param collection path string true "Collection"
// @Param X-Principal header string true "Remote principal"
// @Success 200 {object} Cursor "Cursor"
// @Failure 404 {object} map[string]string "Unknown collection"
// @Router /sync/{collection}/cursor [get]
func (h *Handler) HandleCursor(c *fiber.Ctx) error {
	cursor, err := h.service.Cursor(c.Params("collection"), c.Get(h.principalHeader))
	if err != nil {
		return h.fail(c, "Cursor lookup failed", err)
	}
	return c.JSON(cursor)
}

// HandleListTombstones lists the tombstones of a collection.
// @Summary List Tombstones
// @Tags tombstones
// @Produce json
// @Param collection path string true "Collection"
// @Success 200 {array} tombstone.Tombstone "Tombstones"
// @Failure 404 {object} map[string]string "Unknown collection"
// @Router /tombstones/{collection} [get]
func (h *Handler) HandleListTombstones(c *fiber.Ctx) error {
	list, err := h.service.ListTombstones(c.UserContext(), c.Params("collection"))
	if err != nil {
		return h.fail(c, "Tombstone listing failed", err)
	}
	return c.JSON(list)
}

// HandleMarkTombstone tombstones an identity.
// @Summary Mark Tombstone
// @Tags tombstones
// @Produce json
// @Param collection path string true "Collection"
// @Param identity path string true "Identity (e.g. 'lesson-3')"
// @Success 201 {object} map[string]string "Marked"
// @Failure 404 {object} map[string]string "Unknown collection"
// @Router /tombstones/{collection}/{identity} [post]
func (h *Handler) HandleMarkTombstone(c *fiber.Ctx) error {
	collection, identity := c.Params("collection"), c.Params("identity")
	if err := h.service.MarkTombstone(c.UserContext(), collection, identity); err != nil {
		return h.fail(c, "Tombstone mark failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"collection": collection, "identity": identity})
}

// HandleClearToken issues a confirmation token for clearing tombstones.
// @Summary Request Tombstone Clear Token
// @Description Returns a single-use token valid for a few minutes. Pass it to DELETE /tombstones/{collection}.
// @Tags tombstones
// @Produce json
// @Param collection path string true "Collection"
// @Success 200 {object} tombstone.Token "Token"
// @Failure 404 {object} map[string]string "Unknown collection"
// @Router /tombstones/{collection}/clear-token [post]
func (h *Handler) HandleClearToken(c *fiber.Ctx) error {
	token, err := h.service.RequestClear(c.Params("collection"))
	if err != nil {
		return h.fail(c, "Clear token request failed", err)
	}
	return c.JSON(token)
}

// HandleClearTombstones clears every tombstone of a collection.
// @Summary Clear Tombstones
// @Tags tombstones
// @Produce json
// @Param collection path string true "Collection"
// @Param token query string true "Confirmation token"
// @Success 200 {object} map[string]int "Cleared count"
// @Failure 428 {object} map[string]string "Confirmation required"
// @Router /tombstones/{collection} [delete]
func (h *Handler) HandleClearTombstones(c *fiber.Ctx) error {
	cleared, err := h.service.ClearTombstones(c.UserContext(), c.Params("collection"), c.Query("token"))
	if err != nil {
		return h.fail(c, "Tombstone clear failed", err)
	}
	return c.JSON(fiber.Map{"cleared": cleared})
}

// HandleDeleteRecord deletes a local record and tombstones its identity.
// @Summary Delete Local Record
// @Tags records
// @Param collection path string true "Collection"
// @Param identity path string true "Identity"
// @Success 204
// @Failure 404 {object} map[string]string "Unknown collection"
// @Router /records/{collection}/{identity} [delete]
func (h *Handler) HandleDeleteRecord(c *fiber.Ctx) error {
	if err := h.service.DeleteRecord(c.UserContext(), c.Params("collection"), c.Params("identity")); err != nil {
		return h.fail(c, "Record delete failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps sync errors to HTTP statuses.
func statusFor(err error) int {
	var (
		authErr    *reconcile.AuthorizationError
		partialErr *reconcile.PartialApplyError
		storeErr   *reconcile.StoreError
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, reconcile.ErrUnknownCollection):
		return fiber.StatusNotFound
	case errors.Is(err, tombstone.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired
	case errors.As(err, &authErr):
		return fiber.StatusForbidden
	case errors.As(err, &partialErr):
		return fiber.StatusMultiStatus
	case errors.As(err, &storeErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
