// Package handlers implements the kiosk's HTTP surface: the claim redirect
// chain scanned QR codes land on, the challenge-to-code exchange, and the
// organiser admin endpoints.
package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/backend/models"
	"github.com/dropkiosk/dropkiosk/backend/utils"
	"github.com/dropkiosk/dropkiosk/kiosk"
	"github.com/dropkiosk/dropkiosk/kiosk/allocation"
	"github.com/dropkiosk/dropkiosk/kiosk/database"
	dbmodels "github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/services"
	"github.com/gofiber/fiber/v2"
)

// The messages claim frontends key their UX flows off. Changing them breaks
// deployed kiosks.
const (
	msgChallengeUsed    = "This link was already used by somebody else, scan the QR code again please"
	msgChallengeExpired = "This link expired, please make sure to claim your collectible right after scanning the QR."
	msgQRError          = "Error validating your QR"
	msgCodeUsed         = "This QR was already used and is no longer valid."
)

// WebApp bundles the dependencies every handler closure needs.
type WebApp struct {
	Config      *kiosk.Config
	DB          *database.DB
	Drops       repositories.DropRepository
	Proofs      repositories.ProofRepository
	Rotator     *allocation.Rotator
	Issuer      *allocation.Issuer
	Allocator   *allocation.Allocator
	Reconciler  *allocation.Reconciler
	DropService *services.DropService
	Redeem      *services.RedeemService
	Version     string
}

// ClaimRedirect handles the URL a scanned QR resolves to. Valid tokens get
// a fresh single-use challenge, invalid ones get the bot-detection redirect
// carrying the classification flag trail.
func ClaimRedirect(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dropID := c.Params("dropID")
		token := c.Params("token")
		base := webApp.Config.Kiosk.PublicURL

		if dropID == "" || token == "" {
			return c.Redirect(base+"/#/claim/robot/syntax_error", fiber.StatusTemporaryRedirect)
		}

		drop, err := webApp.Drops.GetByID(c.Context(), dropID)
		if err != nil {
			slog.Warn("Claim request for unknown drop",
				slog.String("type", "http"),
				slog.String("drop_id", dropID),
				slog.Any("error", err))
			return c.SendString(msgQRError)
		}

		classification := webApp.Rotator.Classify(drop, token)
		if !classification.Valid() {
			url := fmt.Sprintf("%s/#/claim/robot/%s_miss_%s", base, token, classification.Trail())
			return c.Redirect(url, fiber.StatusTemporaryRedirect)
		}

		challenge, err := webApp.Issuer.Issue(c.Context(), drop)
		if err != nil {
			slog.Error("Failed to issue challenge",
				slog.String("type", "http"),
				slog.String("drop_id", dropID),
				slog.Any("error", err))
			return c.SendString(msgQRError)
		}

		// Rotate only after the triggering scanner got its challenge, so
		// the person currently holding the kiosk screen is never locked out.
		if _, err := webApp.Rotator.RotateIfExpired(c.Context(), drop); err != nil {
			slog.Error("Failed to rotate access token",
				slog.String("type", "http"),
				slog.String("drop_id", dropID),
				slog.Any("error", err))
		}

		if webApp.Issuer.Bypass(drop) {
			code, err := webApp.Allocator.Allocate(c.Context(), challenge.Token, "")
			if err != nil {
				slog.Error("Naive-mode allocation failed",
					slog.String("type", "http"),
					slog.String("drop_id", dropID),
					slog.Any("error", err))
				return c.SendString(msgQRError)
			}
			return c.Redirect(webApp.Config.Kiosk.ClaimBaseURL+"/"+code, fiber.StatusTemporaryRedirect)
		}

		link := base + "/#/claim/" + challenge.Token
		if drop.IsTest() {
			// CI asserts on the classification trail in the query string
			link += "?trail=" + classification.Trail()
		}
		return c.Redirect(link, fiber.StatusTemporaryRedirect)
	}
}

// CodeByChallenge exchanges a single-use challenge token (plus an optional
// human-verification proof) for a ledger-confirmed claim code.
func CodeByChallenge(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if token == "" {
			return utils.SendBadRequest(c, "missing challenge token")
		}

		var req models.CodeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.SendBadRequest(c, "unparseable request body")
			}
		}

		code, err := webApp.Allocator.Allocate(c.Context(), token, req.ProofToken)
		if err != nil {
			return allocationError(c, err)
		}

		return utils.SendSuccess(c, fiber.Map{"code": code}, "")
	}
}

func allocationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, allocation.ErrChallengeNotFound):
		return utils.SendNotFound(c, msgChallengeUsed)
	case errors.Is(err, allocation.ErrChallengeExpired):
		return utils.SendGone(c, "CHALLENGE_EXPIRED", msgChallengeExpired)
	case errors.Is(err, allocation.ErrPoolExhausted):
		return utils.SendGone(c, "POOL_EXHAUSTED", "No more codes available for this drop!")
	case errors.Is(err, allocation.ErrProofRequired):
		return utils.SendForbidden(c, "Verification required for this drop")
	case errors.Is(err, allocation.ErrProofInvalid):
		return utils.SendForbidden(c, "Invalid verification proof")
	case errors.Is(err, allocation.ErrProofExpired):
		return utils.SendForbidden(c, "Expired verification proof")
	default:
		slog.Error("Allocation failed",
			slog.String("type", "http"),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to allocate a code")
	}
}

// CodeClaim redeems an allocated code to the claimer's email address or
// wallet through the ledger's claim endpoint.
func CodeClaim(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")

		var req models.ClaimRequest
		if err := c.BodyParser(&req); err != nil || req.Address == "" {
			return utils.SendBadRequest(c, "missing claim address")
		}

		err := webApp.Redeem.Redeem(c.Context(), code, req.Address)
		switch {
		case errors.Is(err, services.ErrInvalidAddress):
			return utils.SendBadRequest(c, "Invalid email/wallet format")
		case errors.Is(err, services.ErrCodeAlreadyClaimed):
			return utils.SendGone(c, "CODE_CLAIMED", msgCodeUsed)
		case err != nil:
			slog.Error("Code redemption failed",
				slog.String("type", "http"),
				slog.String("code", code),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to claim your code, please try again")
		}

		return utils.SendSuccess(c, fiber.Map{"success": true}, "")
	}
}

// Proofs the verifier never stamps an expiry on stay usable this long.
const defaultProofValidity = 5 * time.Minute

// ProofsCreate is the webhook the external human-verification service
// posts completed proof results to. Disabled unless a verifier key is
// configured.
func ProofsCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := webApp.Config.Web.VerifierKey
		if key == "" {
			return utils.SendNotFound(c, "Not found")
		}
		if subtle.ConstantTimeCompare([]byte(c.Get("X-Verifier-Key")), []byte(key)) != 1 {
			return utils.SendForbidden(c, "Invalid verifier key")
		}

		var req models.ProofRequest
		if err := c.BodyParser(&req); err != nil || req.Token == "" {
			return utils.SendBadRequest(c, "unparseable proof payload")
		}

		validity := defaultProofValidity
		if req.ExpiresInSeconds > 0 {
			validity = time.Duration(req.ExpiresInSeconds) * time.Second
		}

		proof := &dbmodels.Proof{
			Token:     req.Token,
			Valid:     req.Valid,
			ExpiresAt: time.Now().Add(validity),
		}
		if err := webApp.Proofs.Create(c.Context(), proof); err != nil {
			slog.Error("Failed to store verification proof",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to store proof")
		}

		return utils.SendCreated(c, fiber.Map{"token": proof.Token}, "")
	}
}

// DropsCreate registers a new drop with its code pool.
func DropsCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.RegisterDropRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "unparseable request body")
		}

		input := services.RegisterDropInput{
			Name:  req.Name,
			Email: req.Email,
			Date:  req.Date,
			Codes: req.Codes,
			Kinds: req.Kinds,
		}
		if req.Game != nil {
			input.Game = &dbmodels.GameConfig{
				DurationSeconds: req.Game.Duration,
				TargetScore:     req.Game.TargetScore,
			}
		}

		result, err := webApp.DropService.RegisterDrop(c.Context(), input)
		if err != nil {
			if errors.Is(err, services.ErrCodeClash) {
				return utils.SendConflict(c, err.Error())
			}
			return utils.SendBadRequest(c, err.Error())
		}

		return utils.SendCreated(c, fiber.Map{
			"id":          result.ID,
			"name":        result.Name,
			"admin_token": result.AdminToken,
			"codes":       result.CodeCount,
		}, "Drop registered")
	}
}

// DropsDelete removes a drop and cascades over its codes and challenges.
func DropsDelete(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dropID := c.Params("id")

		adminToken := c.Get("X-Admin-Token")
		if adminToken == "" {
			var req models.DeleteDropRequest
			if len(c.Body()) > 0 && c.BodyParser(&req) == nil {
				adminToken = req.AdminToken
			}
		}

		err := webApp.DropService.DeleteDrop(c.Context(), dropID, adminToken)
		switch {
		case errors.Is(err, repositories.ErrDropNotFound):
			return utils.SendNotFound(c, "Drop not found")
		case errors.Is(err, services.ErrInvalidAdminToken):
			return utils.SendForbidden(c, "Invalid admin code")
		case err != nil:
			slog.Error("Drop deletion failed",
				slog.String("type", "http"),
				slog.String("drop_id", dropID),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to delete drop")
		}

		return utils.SendSuccess(c, fiber.Map{"deleted": dropID}, "")
	}
}

// DropsSearch fuzzy matches drops by name for admin tooling.
func DropsSearch(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")

		drops, err := webApp.DropService.SearchDrops(c.Context(), query)
		if err != nil {
			return utils.SendInternalServerError(c, "Search failed")
		}

		summaries := make([]models.DropSummary, len(drops))
		for i, d := range drops {
			summaries[i] = models.DropSummary{
				ID:             d.ID,
				Name:           d.Name,
				CodeCount:      d.CodeCount,
				AvailableCount: d.AvailableCount,
				ExpiresAt:      d.ExpiresAt,
				CreatedAt:      d.CreatedAt,
			}
		}
		return utils.SendSuccess(c, summaries, "")
	}
}

// DropsEmails lists the distinct organiser addresses.
func DropsEmails(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		emails, err := webApp.DropService.OrganiserEmails(c.Context())
		if err != nil {
			slog.Error("Failed to list organiser emails",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to list organisers")
		}
		return utils.SendSuccess(c, emails, "")
	}
}

// DropsRefresh triggers both reconciliation sweeps for one drop on demand.
// A sweep already debounced is reported, not retried.
func DropsRefresh(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dropID := c.Params("id")

		if _, err := webApp.Drops.GetByID(c.Context(), dropID); err != nil {
			if errors.Is(err, repositories.ErrDropNotFound) {
				return utils.SendNotFound(c, "Drop not found")
			}
			return utils.SendInternalServerError(c, "Failed to load drop")
		}

		refreshed, refreshErr := webApp.Reconciler.RefreshUnknownAndUnchecked(c.Context(), dropID)
		checked, reset, scannedErr := webApp.Reconciler.RefreshScanned(c.Context(), dropID)

		for _, err := range []error{refreshErr, scannedErr} {
			if err != nil && !errors.Is(err, allocation.ErrDebounced) {
				slog.Error("On-demand reconciliation failed",
					slog.String("type", "http"),
					slog.String("drop_id", dropID),
					slog.Any("error", err))
				return utils.SendInternalServerError(c, "Reconciliation failed")
			}
		}

		return utils.SendSuccess(c, fiber.Map{
			"refreshed": refreshed,
			"checked":   checked,
			"reset":     reset,
			"debounced": errors.Is(refreshErr, allocation.ErrDebounced) ||
				errors.Is(scannedErr, allocation.ErrDebounced),
		}, "")
	}
}

// HealthCheck reports service and database health.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := models.NewHealthCheck(webApp.Version)

		if err := webApp.DB.Ping(c.Context()); err != nil {
			health.AddComponent("database", "unhealthy", err.Error())
		} else {
			health.AddComponent("database", "healthy", "")
		}

		status := fiber.StatusOK
		if health.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}
