package repository

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/member-search/internal/model"
)

func build(t *testing.T, q builder) (string, []any) {
	t.Helper()
	sql, args, err := q.Build(context.Background())
	require.NoError(t, err)
	return sql, args
}

func TestBuilderSearchQuery(t *testing.T) {
	cond := &model.MemberSearchCondition{TeamName: strPtr("teamB"), AgeGoe: intPtr(35), AgeLoe: intPtr(40)}

	sql, args := build(t, builderSearchQuery(cond))

	assert.Contains(t, sql, "LEFT JOIN")
	assert.Contains(t, sql, `"t"."name" = $1`)
	assert.Contains(t, sql, `"m"."age" >= $2`)
	assert.Contains(t, sql, `"m"."age" <= $3`)
	assert.Equal(t, []any{"teamB", 35, 40}, args)
}

func TestBuilderSearchQuery_SingleBound(t *testing.T) {
	sql, args := build(t, builderSearchQuery(&model.MemberSearchCondition{AgeGoe: intPtr(35)}))

	assert.Contains(t, sql, `"m"."age" >= $1`)
	assert.Equal(t, []any{35}, args)
}

func TestSearchQuery_EmptyConditionHasNoWhere(t *testing.T) {
	sql, args := build(t, searchQuery(&model.MemberSearchCondition{}))

	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestSearchCountQuery(t *testing.T) {
	tests := []struct {
		name     string
		cond     *model.MemberSearchCondition
		wantJoin bool
	}{
		{name: "no team filter skips join", cond: &model.MemberSearchCondition{Username: strPtr("member1")}},
		{name: "team filter keeps join", cond: &model.MemberSearchCondition{TeamName: strPtr("teamA")}, wantJoin: true},
		{name: "nil condition", cond: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := build(t, searchCountQuery(tt.cond))

			assert.Contains(t, sql, `count("m"."member_id")`)
			if tt.wantJoin {
				assert.Contains(t, sql, "JOIN")
			} else {
				assert.NotContains(t, sql, "JOIN")
			}
		})
	}
}

func TestApplyPagination(t *testing.T) {
	q := searchQuery(nil)
	page := model.NewPageRequest(1, 3,
		model.SortOrder{Property: "team.name", Direction: model.Desc, NullsLast: true},
		model.SortOrder{Property: "age", Direction: model.Asc},
	)

	require.NoError(t, applyPagination(q, page))
	sql, _ := build(t, q)

	assert.Contains(t, sql, "ORDER BY")
	assert.Contains(t, sql, `"t"."name" DESC`)
	assert.Contains(t, sql, "NULLS LAST")
	assert.Contains(t, sql, `"m"."age" ASC`)
	assert.Contains(t, sql, "OFFSET")
	assert.Contains(t, sql, "LIMIT")
}

func TestApplyPagination_DefaultOrder(t *testing.T) {
	q := searchQuery(nil)
	require.NoError(t, applyPagination(q, model.NewPageRequest(0, 10)))

	sql, _ := build(t, q)
	assert.Contains(t, sql, `ORDER BY "m"."member_id" ASC`)
}

func TestApplyPagination_UnknownProperty(t *testing.T) {
	err := applyPagination(searchQuery(nil), model.NewPageRequest(0, 10, model.SortOrder{Property: "password"}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSortProperty))
	assert.Contains(t, err.Error(), "password")
}

func TestDerivedCountQuery(t *testing.T) {
	cond := &model.MemberSearchCondition{Username: strPtr("member1")}

	sql, args := build(t, derivedCountQuery(membersQuery(cond)))

	assert.Contains(t, sql, "count(*)")
	assert.Contains(t, sql, `"m"."username" = $1`)
	assert.Equal(t, []any{"member1"}, args)
}
