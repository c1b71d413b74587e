package handlers

import (
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// validationDetails flattens validator errors into a field -> constraint
// map for the error payload.
func validationDetails(err error) map[string]any {
	details := make(map[string]any)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		details["error"] = err.Error()
		return details
	}

	for _, fieldErr := range validationErrs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}
