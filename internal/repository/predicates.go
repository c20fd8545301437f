package repository

import (
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/member-search/internal/model"
)

// Each predicate returns nil when its input is absent, so callers can pass them straight to allOf.

func usernameEq(username *string) bob.Expression {
	if !model.HasText(username) {
		return nil
	}
	return memberCol("username").EQ(psql.Arg(*username))
}

func teamNameEq(teamName *string) bob.Expression {
	if !model.HasText(teamName) {
		return nil
	}
	return teamCol("name").EQ(psql.Arg(*teamName))
}

func ageGoe(age *int) bob.Expression {
	if age == nil {
		return nil
	}
	return memberCol("age").GTE(psql.Arg(*age))
}

func ageLoe(age *int) bob.Expression {
	if age == nil {
		return nil
	}
	return memberCol("age").LTE(psql.Arg(*age))
}

// ageBetween needs both bounds; a half-open range yields no condition at all.
func ageBetween(loe, goe *int) bob.Expression {
	if loe == nil || goe == nil {
		return nil
	}
	return psql.And(ageLoe(loe), ageGoe(goe))
}

// searchConditions is shared by content and count queries so both see the same filter.
func searchConditions(cond *model.MemberSearchCondition) []bob.Expression {
	if cond == nil {
		return nil
	}
	return []bob.Expression{
		usernameEq(cond.Username),
		teamNameEq(cond.TeamName),
		ageBetween(cond.AgeLoe, cond.AgeGoe),
	}
}

// FiltersWhere reports whether the where-args search would put any condition on cond.
// A lone age bound does not count there.
func FiltersWhere(cond *model.MemberSearchCondition) bool {
	_, ok := allOf(searchConditions(cond)...)
	return ok
}

// FiltersBuilder is FiltersWhere for the builder search.
func FiltersBuilder(cond *model.MemberSearchCondition) bool {
	return builderPredicates(cond).HasValue()
}

// allOf ANDs the non-nil conditions. ok is false when nothing is left.
func allOf(conds ...bob.Expression) (bob.Expression, bool) {
	present := make([]bob.Expression, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			present = append(present, c)
		}
	}

	switch len(present) {
	case 0:
		return nil, false
	case 1:
		return present[0], true
	default:
		return psql.And(present...), true
	}
}

func whereAll(conds ...bob.Expression) []bob.Mod[*dialect.SelectQuery] {
	e, ok := allOf(conds...)
	if !ok {
		return nil
	}
	return []bob.Mod[*dialect.SelectQuery]{sm.Where(e)}
}

// predicateBuilder accumulates conditions imperatively.
type predicateBuilder struct {
	conds []bob.Expression
}

func (b *predicateBuilder) And(e bob.Expression) *predicateBuilder {
	if e != nil {
		b.conds = append(b.conds, e)
	}
	return b
}

func (b *predicateBuilder) HasValue() bool {
	return len(b.conds) > 0
}

func (b *predicateBuilder) Where() []bob.Mod[*dialect.SelectQuery] {
	return whereAll(b.conds...)
}
