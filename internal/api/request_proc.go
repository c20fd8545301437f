package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yakoovad/member-search/internal/model"
)

// ProcessRequest fills req by running steps in order and stops at the first failure.
func ProcessRequest[T any](e echo.Context, req *T, steps ...func(echo.Context, *T) error) error {
	for _, step := range steps {
		if err := step(e, req); err != nil {
			return err
		}
	}
	return nil
}

type searchRequest struct {
	Condition model.MemberSearchCondition
	Page      model.PageRequest
}

func conditionFromQuery(e echo.Context, req *searchRequest) error {
	b := echo.QueryParamsBinder(e)
	c := &req.Condition

	optionalParam(e, b.String, "username", &c.Username)
	optionalParam(e, b.String, "team_name", &c.TeamName)
	optionalParam(e, b.Int, "age_goe", &c.AgeGoe)
	optionalParam(e, b.Int, "age_loe", &c.AgeLoe)

	return b.BindError()
}

// optionalParam binds name only when it is present, so an absent filter stays nil.
func optionalParam[T any](e echo.Context, bind func(string, *T) *echo.ValueBinder, name string, dest **T) {
	if e.QueryParam(name) == "" {
		return
	}
	v := new(T)
	bind(name, v)
	*dest = v
}

// pageFromQuery reads page, size and repeated sort=property[,asc|desc][,nullslast] parameters.
func pageFromQuery(defaultSize int) func(echo.Context, *searchRequest) error {
	return func(e echo.Context, req *searchRequest) error {
		req.Page = model.NewPageRequest(0, defaultSize)

		var sorts []string
		err := echo.QueryParamsBinder(e).
			Int("page", &req.Page.Page).
			Int("size", &req.Page.Size).
			Strings("sort", &sorts).
			BindError()
		if err != nil {
			return err
		}

		for _, raw := range sorts {
			order, err := parseSortOrder(raw)
			if err != nil {
				return err
			}
			req.Page.Sort = append(req.Page.Sort, order)
		}
		return nil
	}
}

func parseSortOrder(raw string) (model.SortOrder, error) {
	parts := strings.Split(raw, ",")
	order := model.SortOrder{Property: strings.TrimSpace(parts[0]), Direction: model.Asc}
	if order.Property == "" {
		return order, errors.New("sort property is empty")
	}

	for _, p := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "asc":
			order.Direction = model.Asc
		case "desc":
			order.Direction = model.Desc
		case "nullslast":
			order.NullsLast = true
		default:
			return order, errors.Errorf("unknown sort option %q", p)
		}
	}
	return order, nil
}

type pageBody[T any] struct {
	*model.Page[T]
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func pageResponse[T any](p *model.Page[T]) pageBody[T] {
	return pageBody[T]{
		Page:       p,
		TotalPages: p.TotalPages(),
		HasNext:    p.HasNext(),
	}
}
