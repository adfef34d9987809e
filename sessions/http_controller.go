package sessions

import (
	"time"

	"github.com/devshare/auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Controller serves the protected sessions resource.
type Controller struct {
	Logger auth.Logger
	Repo   Sessions
}

// ControllerOption configures the sessions controller.
type ControllerOption func(*Controller) *Controller

// NewController builds the controller, panicking on missing collaborators
// the same way the auth controller does.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing Sessions repository in sessions controller...")
	}

	if c.Logger == nil {
		c.Logger = auth.DefaultLogger()
	}

	return c
}

func WithRepo(repo Sessions) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

// RegisterRoutes mounts list and propose handlers on the given group. The
// status patch route is returned separately so the caller can wrap it in a
// stricter guard.
func (c *Controller) RegisterRoutes(group fiber.Router) {
	group.Get("/", c.List).Name("sessions.list")
	group.Post("/", c.Propose).Name("sessions.propose")
}

// RegisterAdminRoutes mounts the routes reserved for moderators and up.
func (c *Controller) RegisterAdminRoutes(group fiber.Router) {
	group.Patch("/:id/status", c.UpdateStatus).Name("sessions.status.patch")
}

// List returns the catalog, optionally filtered with ?status=.
func (c *Controller) List(ctx *fiber.Ctx) error {
	filter := []Status{}
	if raw := ctx.Query("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			return ErrInvalidStatus
		}
		filter = append(filter, status)
	}

	records, err := c.Repo.ListByStatus(ctx.UserContext(), filter...)
	if err != nil {
		return err
	}

	return auth.Success(ctx, fiber.StatusOK, auth.Envelope{
		Data: fiber.Map{
			"sessions": records,
			"results":  len(records),
		},
	})
}

// ProposeRequest payload
type ProposeRequest struct {
	Title        string    `json:"title" form:"title"`
	Description  string    `json:"description" form:"description"`
	SpeakerName  string    `json:"speaker_name" form:"speaker_name"`
	StartsAt     time.Time `json:"starts_at" form:"starts_at"`
	DurationMins int       `json:"duration_mins" form:"duration_mins"`
}

// Validate will run validation rules
func (r ProposeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.SpeakerName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.DurationMins, validation.Min(0), validation.Max(24*60)),
	)
}

// Propose creates a pending session on behalf of the caller.
func (c *Controller) Propose(ctx *fiber.Ctx) error {
	payload := ProposeRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return auth.WrapValidationError(err)
	}

	if err := payload.Validate(); err != nil {
		return auth.WrapValidationError(err)
	}

	identity, ok := auth.IdentityFromContext(ctx.UserContext())
	if !ok {
		return auth.ErrUnauthenticated
	}

	proposedBy, err := uuid.Parse(identity.ID())
	if err != nil {
		return auth.ErrStaleIdentity
	}

	record, err := c.Repo.Propose(ctx.UserContext(), &Session{
		Title:        payload.Title,
		Description:  payload.Description,
		SpeakerName:  payload.SpeakerName,
		StartsAt:     payload.StartsAt,
		DurationMins: payload.DurationMins,
		ProposedBy:   proposedBy,
	})
	if err != nil {
		return err
	}

	return auth.Success(ctx, fiber.StatusCreated, auth.Envelope{
		Data: record,
	})
}

// UpdateStatusRequest payload
type UpdateStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// Validate will run validation rules
func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Status,
			validation.Required,
			validation.In(
				string(StatusApproved),
				string(StatusCompleted),
			),
		),
	)
}

// UpdateStatus moves a session through its lifecycle.
func (c *Controller) UpdateStatus(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ErrSessionNotFound
	}

	payload := UpdateStatusRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return auth.WrapValidationError(err)
	}

	if err := payload.Validate(); err != nil {
		return auth.WrapValidationError(err)
	}

	status, _ := ParseStatus(payload.Status)

	record, err := c.Repo.UpdateStatus(ctx.UserContext(), id, status)
	if err != nil {
		return err
	}

	return auth.Success(ctx, fiber.StatusOK, auth.Envelope{
		Data: record,
	})
}
