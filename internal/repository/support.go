package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
)

type builder interface {
	Build(ctx context.Context) (string, []any, error)
}

// sortColumns whitelists the properties a page request may sort by.
var sortColumns = map[string]func() dialect.Expression{
	"id":        func() dialect.Expression { return memberCol("member_id") },
	"username":  func() dialect.Expression { return memberCol("username") },
	"age":       func() dialect.Expression { return memberCol("age") },
	"team.name": func() dialect.Expression { return teamCol("name") },
}

func sortMods(orders []model.SortOrder) ([]bob.Mod[*dialect.SelectQuery], error) {
	mods := make([]bob.Mod[*dialect.SelectQuery], 0, len(orders))
	for _, o := range orders {
		col, ok := sortColumns[o.Property]
		if !ok {
			return nil, errors.Wrap(ErrUnknownSortProperty, o.Property)
		}

		ob := sm.OrderBy(col())
		if o.Direction == model.Desc {
			ob = ob.Desc()
		} else {
			ob = ob.Asc()
		}
		if o.NullsLast {
			ob = ob.NullsLast()
		}
		mods = append(mods, ob)
	}
	return mods, nil
}

// applyPagination adds the page's sort orders, offset and limit to q.
// Without explicit orders the member id keeps pages stable.
func applyPagination(q bob.BaseQuery[*dialect.SelectQuery], page model.PageRequest) error {
	mods, err := sortMods(page.Sort)
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		mods = append(mods, sm.OrderBy(memberCol("member_id")).Asc())
	}
	q.Apply(mods...)
	q.Apply(
		sm.Offset(page.Offset()),
		sm.Limit(int64(page.Size)),
	)
	return nil
}

func collect[T any](ctx context.Context, e db.Executor, q builder, scan pgx.RowToFunc[T]) ([]T, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "run query")
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, errors.Wrap(err, "collect rows")
	}
	return items, nil
}

func fetchCount(ctx context.Context, e db.Executor, q builder) (int64, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "build count query")
	}

	var total int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "run count query")
	}
	return total, nil
}

func execAffected(ctx context.Context, e db.Executor, q builder) (int64, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "build statement")
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec statement")
	}
	return tag.RowsAffected(), nil
}

// fetchPage runs content and then counts lazily through model.PageOf.
func fetchPage[T any](
	ctx context.Context,
	e db.Executor,
	content bob.BaseQuery[*dialect.SelectQuery],
	count builder,
	page model.PageRequest,
	scan pgx.RowToFunc[T],
) (*model.Page[T], error) {
	if err := applyPagination(content, page); err != nil {
		return nil, err
	}

	items, err := collect(ctx, e, content, scan)
	if err != nil {
		return nil, err
	}

	return model.PageOf(ctx, items, page, func(ctx context.Context) (int64, error) {
		return fetchCount(ctx, e, count)
	})
}
