package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StartAttemptRequest joins a quiz through an access code.
type StartAttemptRequest struct {
	QuizID     int64  `json:"quizId" validate:"gt=0"`
	AccessCode string `json:"accessCode" validate:"len=6,alphanum"`
}

// SubmitResponseRequest saves one answer.
type SubmitResponseRequest struct {
	QuestionID        int64   `json:"questionId" validate:"gt=0"`
	SelectedAnswerIDs []int64 `json:"selectedAnswerIds"`
	TextResponse      string  `json:"textResponse,omitempty"`
	ResponseTime      int     `json:"responseTime" validate:"gte=0"`
	IsMultipleChoice  bool    `json:"isMultipleChoice"`
	IsOpenEnded       bool    `json:"isOpenEnded"`
}

// SubmitAttemptRequest finalises an attempt.
type SubmitAttemptRequest struct {
	TotalTime int `json:"totalTime" validate:"gte=0"`
}

// CreateSessionRequest opens an access-code window for a quiz.
type CreateSessionRequest struct {
	QuizID          int64 `json:"quizId" validate:"gt=0"`
	DurationMinutes int   `json:"durationMinutes" validate:"min=1,max=600"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest checks a request struct before it is sent. Failures are
// *Error with Fields filled in, the same shape a server-side validation
// error takes.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	e := &Error{Fields: make(map[string]string, len(verrs))}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		e.Fields[fe.Field()] = msg
		msgs = append(msgs, msg)
	}
	e.Message = strings.Join(msgs, ", ")
	return e
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
