package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/yakoovad/member-search/internal/model"
)

const defaultMaxPageSize = 100

var validate = validator.New()

// validateCondition checks field ranges and that the age range is not inverted.
func validateCondition(cond *model.MemberSearchCondition) *Error {
	if cond == nil {
		return nil
	}
	if err := validate.Struct(cond); err != nil {
		return NewError(ErrorCodeInvalidCondition, err.Error())
	}
	if cond.AgeGoe != nil && cond.AgeLoe != nil && *cond.AgeLoe < *cond.AgeGoe {
		return NewError(ErrorCodeInvalidCondition, fmt.Sprintf("age_loe %d is below age_goe %d", *cond.AgeLoe, *cond.AgeGoe))
	}
	return nil
}

func validatePage(page model.PageRequest, maxSize int) *Error {
	if err := validate.Struct(page); err != nil {
		return NewError(ErrorCodeInvalidPage, err.Error())
	}
	if page.Size > maxSize {
		return NewError(ErrorCodeInvalidPage, fmt.Sprintf("page size must not exceed %d", maxSize))
	}
	for _, o := range page.Sort {
		if o.Direction != "" && o.Direction != model.Asc && o.Direction != model.Desc {
			return NewError(ErrorCodeInvalidPage, fmt.Sprintf("unknown sort direction %q", o.Direction))
		}
	}
	return nil
}
