package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// GetIDParam extracts and validates the id path parameter.
func GetIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ProblemBadRequest(c, "Invalid ID parameter")
		return 0, false
	}
	return id, true
}

// GetPagination extracts limit and offset from query parameters.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = 20 // default
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return
}

// BindAndValidate handles JSON binding with developer-friendly error messages.
func BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		errors := formatValidationErrors(err)
		ProblemValidationError(c, "Request validation failed", errors)
		return false
	}
	return true
}

// formatValidationErrors converts validation errors to developer-friendly messages.
func formatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			var message string
			switch tag {
			case "required":
				message = fmt.Sprintf("%s is required", field)
			case "min":
				if param == "1" {
					message = fmt.Sprintf("%s cannot be empty", field)
				} else {
					message = fmt.Sprintf("%s must be at least %s characters", field, param)
				}
			case "max":
				message = fmt.Sprintf("%s cannot exceed %s characters", field, param)
			case "email":
				message = fmt.Sprintf("%s must be a valid email address", field)
			case "gte":
				message = fmt.Sprintf("%s must be at least %s", field, param)
			case "lte":
				message = fmt.Sprintf("%s must be at most %s", field, param)
			case "oneof":
				message = fmt.Sprintf("%s must be one of: %s", field, param)
			case "alphanum":
				message = fmt.Sprintf("%s can only contain letters and numbers", field)
			default:
				message = fmt.Sprintf("%s failed validation (%s)", field, tag)
			}
			errors = append(errors, ValidationError{Field: field, Message: message})
		}
	} else {
		errors = append(errors, ValidationError{Field: "body", Message: "Invalid JSON format"})
	}

	return errors
}
