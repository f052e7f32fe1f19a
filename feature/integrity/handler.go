package integrity

import (
	"lesson-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/local", h.HandleLocalCheck)
	group.Get("/remote", h.HandleRemoteCheck)
}

// HandleIntegrityCheck runs every check.
// @Summary Run All Integrity Checks
// @Description Checks local identities and tombstones, then the remote schema or bucket. Nothing is repaired.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	if local, err := h.service.CheckLocal(ctx); err != nil {
		report["local"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["local"] = local
	}

	if remote, err := h.service.CheckRemote(ctx, false); err != nil {
		report["remote"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["remote"] = remote
	}

	return c.JSON(report)
}

// HandleLocalCheck checks the local store.
// @Summary Check Local Store
// @Description Reports untagged records, duplicate identities and records shadowed by tombstones.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.LocalReport "Local Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/local [get]
func (h *Handler) HandleLocalCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckLocal(c.UserContext())
	if err != nil {
		l.Error("Local check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Healthy {
		l.Warn("Local store has integrity warnings")
	}
	return c.JSON(report)
}

// HandleRemoteCheck checks and optionally fixes the remote store.
// @Summary Check Remote Store
// @Description Verifies the remote tables (sql) or bucket (object). With fix, missing tables or the bucket are created.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create missing tables or bucket"
// @Success 200 {object} checks.RemoteReport "Remote Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/remote [get]
func (h *Handler) HandleRemoteCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckRemote(c.UserContext(), fix)
	if err != nil {
		l.Error("Remote check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Remote store does not match", zap.Strings("errors", report.Errors))
	}
	return c.JSON(report)
}
