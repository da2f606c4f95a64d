package invites

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// SenderResolver extracts the already-authenticated actor from the request.
// Authentication and permission checks happen in middleware upstream; the
// controller only needs the resulting identity to attribute invitations.
type SenderResolver func(ctx router.Context) (Identity, error)

func RegisterInviteRoutes[T any](app router.Router[T], opts ...InvitesControllerOption) {

	controller := NewInvitesController(opts...)

	app.
		Post(controller.Routes.Search, controller.SearchPost).
		SetName("invites.search")

	app.
		Post(controller.Routes.Base, controller.CreatePost).
		SetName("invites.create")

	app.
		Post(fmt.Sprintf("%s/:inviteId/resend", controller.Routes.Base), controller.ResendPost).
		SetName("invites.resend")

	app.
		Delete(fmt.Sprintf("%s/:inviteId", controller.Routes.Base), controller.RevokeDelete).
		SetName("invites.revoke")
}

type InvitesControllerRoutes struct {
	Base   string
	Search string
}

type InvitesController struct {
	Debug          bool
	Logger         Logger
	Repo           RepositoryManager
	Tokens         TokenService
	Notifier       Notifier
	Activity       ActivitySink
	Routes         *InvitesControllerRoutes
	SenderResolver SenderResolver
	ErrorHandler   router.ErrorHandler
}

type InvitesControllerOption func(*InvitesController) *InvitesController

func NewInvitesController(opts ...InvitesControllerOption) *InvitesController {
	c := &InvitesController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &InvitesControllerRoutes{
			Base:   "/invites",
			Search: "/invites/search",
		},
		SenderResolver: func(router.Context) (Identity, error) {
			return nil, nil
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in invites controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in invites controller...")
	}

	if c.Notifier == nil {
		c.Notifier = NewLogNotifier(c.Logger)
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens TokenService) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerNotifier(notifier Notifier) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		c.Activity = sink
		return c
	}
}

func WithControllerLogger(logger Logger) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerSenderResolver(resolver SenderResolver) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		if resolver != nil {
			c.SenderResolver = resolver
		}
		return c
	}
}

func WithControllerErrorHandler(handler router.ErrorHandler) InvitesControllerOption {
	return func(c *InvitesController) *InvitesController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

// SearchSort is the sort clause of a search request.
type SearchSort struct {
	Field string `form:"field" json:"field"`
	Order string `form:"order" json:"order"`
}

// Validate will run validation rules
func (s SearchSort) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(
			&s.Order,
			validation.In("", "asc", "desc"),
		),
	)
}

// SearchInvitesRequest payload
type SearchInvitesRequest struct {
	Skip  int         `form:"skip" json:"skip"`
	Sort  *SearchSort `form:"sort" json:"sort,omitempty"`
	Limit int         `form:"limit" json:"limit"`
}

// Validate will run validation rules
func (r SearchInvitesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Skip, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(0)),
		validation.Field(&r.Sort),
	)
}

func (a *InvitesController) SearchPost(ctx router.Context) error {
	payload := new(SearchInvitesRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("search invites parse payload: ", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("search invites validate payload: ", "error", err)
		return a.validationError(ctx, err)
	}

	msg := SearchInvitesMessage{
		Skip:  payload.Skip,
		Limit: payload.Limit,
	}
	if payload.Sort != nil {
		msg.SortField = payload.Sort.Field
		msg.SortOrder = payload.Sort.Order
	}

	var res *SearchInvitesResponse
	msg.OnResponse = func(resp *SearchInvitesResponse) {
		res = resp
	}

	search := SearchInvitesHandler{repo: a.Repo}
	if err := search.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("search invites error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= INVITES SEARCH ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("=============================")
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"data": res.Result.Items,
		"meta": map[string]any{
			"total": res.Result.Total,
			"skip":  res.Result.Skip,
			"limit": res.Result.Limit,
		},
	})
}

// CreateInvitesRequest payload
type CreateInvitesRequest struct {
	Emails []string `form:"emails" json:"emails"`
}

// Validate will run validation rules
func (r CreateInvitesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Emails,
			validation.Required,
			validation.By(validateEmailList),
		),
	)
}

func validateEmailList(value any) error {
	emails, ok := value.([]string)
	if !ok || len(emails) == 0 {
		return errors.New("must contain at least one email")
	}

	for _, email := range emails {
		if err := validation.Validate(email, validation.Required, is.Email); err != nil {
			return fmt.Errorf("%q is not a valid email", email)
		}
	}

	return nil
}

func (a *InvitesController) CreatePost(ctx router.Context) error {
	payload := new(CreateInvitesRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create invites parse payload: ", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("create invites validate payload: ", "error", err)
		return a.validationError(ctx, err)
	}

	sender, err := a.SenderResolver(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= INVITES CREATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	createInvites := CreateInvitesHandler{
		repo:     a.Repo,
		tokens:   a.Tokens,
		notifier: a.Notifier,
		activity: a.Activity,
	}

	msg := CreateInvitesMessage{
		Emails: payload.Emails,
		Sender: sender,
	}

	if err := createInvites.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("create invites error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *InvitesController) ResendPost(ctx router.Context) error {
	inviteID, err := parseInviteID(ctx.Param("inviteId"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	sender, err := a.SenderResolver(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	resendInvite := ResendInviteHandler{
		repo:     a.Repo,
		tokens:   a.Tokens,
		notifier: a.Notifier,
		activity: a.Activity,
	}

	msg := ResendInviteMessage{
		InviteID: inviteID,
		Sender:   sender,
	}

	if err := resendInvite.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("resend invite error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *InvitesController) RevokeDelete(ctx router.Context) error {
	inviteID, err := parseInviteID(ctx.Param("inviteId"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	sender, err := a.SenderResolver(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	revokeInvite := RevokeInviteHandler{
		repo:     a.Repo,
		activity: a.Activity,
	}

	msg := RevokeInviteMessage{
		InviteID: inviteID,
		Sender:   sender,
	}

	if err := revokeInvite.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("revoke invite error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).SendString("")
}

func (a *InvitesController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		},
	})
}

func parseInviteID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid invite id").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{
				"invite_id": raw,
			})
	}
	return id, nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
			"metadata":  richErr.Metadata,
		},
	})
}
