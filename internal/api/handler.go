package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yakoovad/member-search/internal/auth"
	"github.com/yakoovad/member-search/internal/model"
	"github.com/yakoovad/member-search/internal/service"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	team   *service.TeamService
	member *service.MemberService
	report *service.ReportService

	healthChecker HealthChecker
	metrics       *Metrics

	defaultPageSize int

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:          logger,
		defaultPageSize: 20,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithMetrics(m *Metrics) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) WithTeamService(team *service.TeamService) *Handler {
	h.team = team
	return h
}

func (h *Handler) WithMemberService(member *service.MemberService) *Handler {
	h.member = member
	return h
}

func (h *Handler) WithReportService(report *service.ReportService) *Handler {
	h.report = report
	return h
}

func (h *Handler) WithDefaultPageSize(size int) *Handler {
	if size > 0 {
		h.defaultPageSize = size
	}
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.metrics != nil {
		e.Use(h.metrics.Middleware())
		e.GET("/metrics", h.metrics.Handler())
	}
	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	userSecurity := e.Group("", AuthMiddleware(auth.TokenTypeUser, auth.TokenTypeAdmin))

	userSecurity.GET("/members", h.ListMembers)
	userSecurity.GET("/members/:id", h.GetMember)
	userSecurity.GET("/members/search", h.SearchMembers)
	userSecurity.GET("/members/search/page", h.SearchMembersPage)
	userSecurity.GET("/members/page", h.MembersPage)
	userSecurity.GET("/members/with-team", h.GetMemberWithTeam)
	userSecurity.GET("/teams/:id", h.GetTeam)
	userSecurity.GET("/reports/age-stats", h.AgeStats)
	userSecurity.GET("/reports/team-ages", h.TeamAverageAges)
	userSecurity.GET("/reports/age-bands", h.AgeBands)
	userSecurity.GET("/reports/oldest", h.OldestMembers)

	adminSecurity := e.Group("", AuthMiddleware(auth.TokenTypeAdmin))

	adminSecurity.POST("/teams", h.AddTeam)
	adminSecurity.POST("/members", h.JoinMember)
	adminSecurity.POST("/members/bulk/rename", h.BulkRename)
	adminSecurity.POST("/members/bulk/age", h.BulkAdjustAges)
	adminSecurity.POST("/members/bulk/delete", h.BulkDelete)
}

func (h *Handler) AddTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	team := &model.Team{}

	if err := h.decodeRequest(e, team); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("adding team", zap.String("team_name", team.Name))

	if err := h.team.AddTeam(e.Request().Context(), team); err != nil {
		l.Error("failed to add team", zap.String("team_name", team.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) GetTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	id, err := pathID(e)
	if err != nil {
		return h.transportError(e, err)
	}

	l.Info("getting team", zap.Int64("team_id", id))

	team, err := h.team.GetTeam(e.Request().Context(), id)
	if err != nil {
		l.Error("failed to get team", zap.Int64("team_id", id), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) JoinMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username *string `json:"username"`
		Age      int     `json:"age" validate:"gte=0"`
		TeamID   *int64  `json:"team_id"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member := &model.Member{Username: req.Username, Age: req.Age}

	if err := h.member.Join(e.Request().Context(), member, req.TeamID); err != nil {
		l.Error("failed to join member", zap.String("username", member.Name()), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, member)
}

func (h *Handler) GetMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	id, err := pathID(e)
	if err != nil {
		return h.transportError(e, err)
	}

	member, err := h.member.GetMember(e.Request().Context(), id)
	if err != nil {
		l.Error("failed to get member", zap.Int64("member_id", id), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, member)
}

func (h *Handler) ListMembers(e echo.Context) error {
	var username *string
	if v := e.QueryParam("username"); v != "" {
		username = &v
	}

	members, err := h.member.ListMembers(e.Request().Context(), username)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, members)
}

func (h *Handler) SearchMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &searchRequest{}
	if err := ProcessRequest(e, req, conditionFromQuery); err != nil {
		l.Warn("invalid search request", zap.Error(err))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidCondition, err.Error()))
	}

	style := service.SearchStyle(e.QueryParam("style"))

	items, err := h.member.Search(e.Request().Context(), &req.Condition, style)
	if err != nil {
		l.Error("failed to search members", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, items)
}

func (h *Handler) SearchMembersPage(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &searchRequest{}
	if err := ProcessRequest(e, req, conditionFromQuery, pageFromQuery(h.defaultPageSize)); err != nil {
		l.Warn("invalid search request", zap.Error(err))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidPage, err.Error()))
	}

	mode := service.PageMode(e.QueryParam("mode"))

	page, err := h.member.SearchPage(e.Request().Context(), &req.Condition, req.Page, mode)
	if err != nil {
		l.Error("failed to search member page", zap.Any("error", err))
		return h.transportError(e, err)
	}

	if h.metrics != nil {
		h.metrics.ObserveSearchPage(mode)
	}

	return e.JSON(http.StatusOK, pageResponse(page))
}

func (h *Handler) MembersPage(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &searchRequest{}
	if err := ProcessRequest(e, req, conditionFromQuery, pageFromQuery(h.defaultPageSize)); err != nil {
		l.Warn("invalid search request", zap.Error(err))
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidPage, err.Error()))
	}

	page, err := h.member.SearchMembersPage(e.Request().Context(), &req.Condition, req.Page)
	if err != nil {
		l.Error("failed to page members", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, pageResponse(page))
}

func (h *Handler) GetMemberWithTeam(e echo.Context) error {
	username := e.QueryParam("username")
	if username == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "username is required"))
	}

	res, err := h.member.GetMemberWithTeam(e.Request().Context(), username)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, res)
}

func (h *Handler) AgeStats(e echo.Context) error {
	stats, err := h.report.AgeStats(e.Request().Context())
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, stats)
}

func (h *Handler) TeamAverageAges(e echo.Context) error {
	avgs, err := h.report.TeamAverageAges(e.Request().Context())
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, avgs)
}

func (h *Handler) AgeBands(e echo.Context) error {
	bands, err := h.report.AgeBands(e.Request().Context())
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, bands)
}

func (h *Handler) OldestMembers(e echo.Context) error {
	members, err := h.report.OldestMembers(e.Request().Context())
	if err != nil {
		return h.transportError(e, err)
	}
	return e.JSON(http.StatusOK, members)
}

func (h *Handler) BulkRename(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		AgeBelow int    `json:"age_below" validate:"gte=0"`
		Username string `json:"username" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	affected, err := h.report.RenameYoungerThan(e.Request().Context(), req.AgeBelow, req.Username)
	if err != nil {
		return h.transportError(e, err)
	}

	return h.bulkResponse(e, "rename", affected)
}

func (h *Handler) BulkAdjustAges(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Add      *int `json:"add"`
		Multiply *int `json:"multiply"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	affected, err := h.report.AdjustAges(e.Request().Context(), req.Add, req.Multiply)
	if err != nil {
		return h.transportError(e, err)
	}

	return h.bulkResponse(e, "adjust_ages", affected)
}

func (h *Handler) BulkDelete(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		AgeAbove int `json:"age_above" validate:"gte=0"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	affected, err := h.report.DeleteOlderThan(e.Request().Context(), req.AgeAbove)
	if err != nil {
		return h.transportError(e, err)
	}

	return h.bulkResponse(e, "delete", affected)
}

func (h *Handler) bulkResponse(e echo.Context, operation string, affected int64) error {
	if h.metrics != nil {
		h.metrics.ObserveBulk(operation, affected)
	}
	return e.JSON(http.StatusOK, map[string]int64{"affected": affected})
}

func pathID(e echo.Context) (int64, *service.Error) {
	id, err := strconv.ParseInt(e.Param("id"), 10, 64)
	if err != nil {
		return 0, service.NewError(service.ErrorCodeInvalidBody, "id must be an integer")
	}
	return id, nil
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeTeamExists:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodeInvalidBody, service.ErrorCodeEmptyFilter,
		service.ErrorCodeInvalidCondition, service.ErrorCodeInvalidPage:
		return e.JSON(http.StatusBadRequest, response)
	case errorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case errorCodeForbidden:
		return e.JSON(http.StatusForbidden, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
