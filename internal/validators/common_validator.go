package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"sahayak/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their json name so errors line up with the form fields.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("description_length", validateDescriptionLength)
	validate.RegisterStructValidation(validateAttachment, Attachment{})
	validate.RegisterStructValidation(validateSubmission, SubmitIssueInput{})
}

// Attachment describes one uploaded file before it is opened.
type Attachment struct {
	Filename string `json:"filename" validate:"required"`
	Size     int64  `json:"size"`
	Voice    bool   `json:"-"`
}

// SubmitIssueInput is the text and file metadata of a help request.
type SubmitIssueInput struct {
	// Location is [lng, lat], the GeoJSON order.
	Location    []float64    `json:"location" validate:"required,coordinates"`
	Description string       `json:"description" validate:"description_length"`
	Media       []Attachment `json:"media" validate:"dive"`
	Voice       []Attachment `json:"voice" validate:"dive"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Fields flattens the errors into the field→message map the error envelope
// carries. The last error for a field wins.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "coordinates":
		return utils.ErrInvalidCoordinate
	case "description_length":
		return fmt.Sprintf("description must be at most %d characters", utils.MaxDescriptionLength)
	case "attachment_count":
		return fmt.Sprintf("at most %s attachments are allowed", err.Param())
	case "attachment_type":
		return fmt.Sprintf("%v has an unsupported file type", err.Value())
	case "attachment_size":
		return fmt.Sprintf("%v exceeds the %s size limit", err.Value(), err.Param())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}

	lng, lat := coords[0], coords[1]
	return utils.IsValidCoordinates(lat, lng)
}

func validateDescriptionLength(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(fl.Field().String()) <= utils.MaxDescriptionLength
}

// validateAttachment checks type and size. Voice notes must be audio; media may
// be an image or a video.
func validateAttachment(sl validator.StructLevel) {
	a := sl.Current().Interface().(Attachment)

	field, kind, limit := "media", "", int64(0)
	switch {
	case a.Voice && utils.IsAudioFile(a.Filename):
		field, kind, limit = "voice", "audio", utils.MaxAudioSize
	case !a.Voice && utils.IsImageFile(a.Filename):
		kind, limit = "image", utils.MaxImageSize
	case !a.Voice && utils.IsVideoFile(a.Filename):
		kind, limit = "video", utils.MaxVideoSize
	default:
		if a.Voice {
			field = "voice"
		}
		sl.ReportError(a.Filename, field, "Filename", "attachment_type", "")
		return
	}

	if a.Size > limit {
		sl.ReportError(a.Filename, field, "Size", "attachment_size", kind)
	}
}

func validateSubmission(sl validator.StructLevel) {
	in := sl.Current().Interface().(SubmitIssueInput)
	if len(in.Media)+len(in.Voice) > utils.MaxMediaFiles {
		sl.ReportError(in.Media, "media", "Media", "attachment_count", fmt.Sprint(utils.MaxMediaFiles))
	}
}
