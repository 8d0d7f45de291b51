package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
)

const (
	msgSubmitted = "Application submitted successfully"
	msgUpdated   = "Application updated successfully"
)

type applicationApi struct {
	svc application.Service
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc application.Service) {
	api := applicationApi{svc: svc}

	ag := g.Group("/applications", jwt)

	throttle := rateLimitMiddleware(rate.Limit(core.Conf.Server.RateLimit), core.Conf.Server.RateBurst)
	ag.POST("", api.submit, throttle)

	ag.GET("/me", api.mine)
	ag.PUT("/me/draft", api.saveDraft)
	ag.GET("/me/draft", api.getDraft)
	ag.DELETE("/me/draft", api.deleteDraft)

	// review endpoints
	ag.GET("", api.query, adminMiddleware())
	ag.GET("/stats", api.stats, adminMiddleware())
	ag.GET("/:id", api.retrieve, adminMiddleware())
	ag.PATCH("/:id/status", api.updateStatus, adminMiddleware())
}

// Handlers

// submit creates the caller's application on first submission and fully
// overwrites it on any later one. The owner always comes from the token;
// a userId in the body is ignored.
func (api *applicationApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data application.SubmitApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitApplication")
	}
	data.UserID = claims.Subject

	rec, created, err := api.svc.Submit(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == application.ErrAuthRequired {
			return errUnauthorized
		}
		submissionsTotal.WithLabelValues("rejected").Inc()
		return errors.Wrap(err, "submitting application")
	}

	if created {
		submissionsTotal.WithLabelValues("created").Inc()
		return ctx.JSON(http.StatusCreated, ApplicationResponse{Data: rec, Message: msgSubmitted})
	}
	submissionsTotal.WithLabelValues("updated").Inc()
	return ctx.JSON(http.StatusOK, ApplicationResponse{Data: rec, Message: msgUpdated})
}

func (api *applicationApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.GetForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding application by user")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *applicationApi) saveDraft(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var draft application.Update
	if err := ctx.Bind(&draft); err != nil {
		return errors.Wrap(err, "binding to Update")
	}

	if err := api.svc.SaveDraft(ctx.Request().Context(), claims.Subject, draft); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	draftSavesTotal.Inc()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicationApi) getDraft(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	draft, err := api.svc.GetDraft(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == application.ErrDraftNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "fetching draft")
	}
	return ctx.JSON(http.StatusOK, draft)
}

func (api *applicationApi) deleteDraft(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.DeleteDraft(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicationApi) query(ctx echo.Context) error {
	filter := &application.QueryFilter{
		Status: core.CleanString(ctx.QueryParam("status"), true /* lower */),
		Search: core.CleanString(ctx.QueryParam("search")),
	}
	if from := ctx.QueryParam("submitted_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.SubmittedFrom = t
		}
	}
	if to := ctx.QueryParam("submitted_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.SubmittedTo = t
		}
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if recs == nil {
		recs = []application.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding application by ID")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *applicationApi) updateStatus(ctx echo.Context) error {
	var data StatusUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating application status")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *applicationApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing application stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type (
	ApplicationResponse struct {
		Data    application.Record `json:"data"`
		Message string             `json:"message"`
	}

	StatusUpdateRequest struct {
		Status string `json:"status" validate:"required,reviewstatus"`
	}
)

func (sr *StatusUpdateRequest) Validate() error {
	sr.Status = core.CleanString(sr.Status, true /* lower */)
	return core.Validate.Struct(sr)
}
