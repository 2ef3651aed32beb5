package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

// LiveViews hands out a reconciled view per proposal query.
type LiveViews interface {
	Watch(ctx context.Context, query usecase.ProposalQuery) (*usecase.Reconciler, error)
}

type Handler struct {
	proposalService *usecase.ProposalService
	sessionService  *usecase.SessionService
	rsvpService     *usecase.RsvpService
	liveViews       LiveViews
	location        *time.Location
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	proposalService *usecase.ProposalService,
	sessionService *usecase.SessionService,
	rsvpService *usecase.RsvpService,
	liveViews LiveViews,
	location *time.Location,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}

	return &Handler{
		proposalService: proposalService,
		sessionService:  sessionService,
		rsvpService:     rsvpService,
		liveViews:       liveViews,
		location:        location,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a strict JSON body into payload and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, payload)
}
