package require

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"mime"
	"reflect"
	"strconv"
	"strings"

	// Codecs for the image form field.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

type jsonBody[T any] struct{}

// JSON resolves a typed, validated JSON payload. The content type must be
// exactly application/json.
func JSON[T any]() Requirement {
	return jsonBody[T]{}
}

func (jsonBody[T]) Resolve(c *gin.Context) (any, error) {
	contentType, _, _ := mime.ParseMediaType(c.ContentType())
	if contentType != "application/json" {
		return nil, BadRequest("only application/json content type accepted")
	}

	var payload T
	if err := json.Unmarshal(bufferedBody(c), &payload); err != nil {
		return nil, BadRequest("malformed JSON body")
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, validationFailure(err)
	}
	return payload, nil
}

type queryParams[T any] struct{}

// Query resolves typed, validated URL query parameters. Parameters occurring
// more than once bind to slice fields, the rest to scalars.
func Query[T any]() Requirement {
	return queryParams[T]{}
}

func (queryParams[T]) Resolve(c *gin.Context) (any, error) {
	var params T
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, validationFailure(err)
	}
	return params, nil
}

type formBody[T any] struct{}

// Form resolves a typed, validated urlencoded or multipart form body.
func Form[T any]() Requirement {
	return formBody[T]{}
}

func (formBody[T]) Resolve(c *gin.Context) (any, error) {
	if err := checkFormContentType(c); err != nil {
		return nil, err
	}
	var payload T
	if err := c.ShouldBind(&payload); err != nil {
		return nil, validationFailure(err)
	}
	return payload, nil
}

type formString struct {
	name string
}

// FormString resolves one required string field from a form body.
func FormString(name string) Requirement {
	return formString{name: name}
}

func (f formString) Resolve(c *gin.Context) (any, error) {
	if err := checkFormContentType(c); err != nil {
		return nil, err
	}
	value, ok := formValue(c, f.name)
	if !ok {
		return nil, fieldRequired(f.name)
	}
	return value, nil
}

type formInt struct {
	name string
}

// FormInt resolves one required integer field from a form body.
func FormInt(name string) Requirement {
	return formInt{name: name}
}

func (f formInt) Resolve(c *gin.Context) (any, error) {
	if err := checkFormContentType(c); err != nil {
		return nil, err
	}
	value, ok := formValue(c, f.name)
	if !ok {
		return nil, fieldRequired(f.name)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("cannot cast form field %q to int", f.name))
	}
	return n, nil
}

type formImage struct {
	name string
}

// FormImage resolves one required image file field from a multipart body,
// decoded into an image.Image.
func FormImage(name string) Requirement {
	return formImage{name: name}
}

func (f formImage) Resolve(c *gin.Context) (any, error) {
	if err := checkFormContentType(c); err != nil {
		return nil, err
	}

	form := c.Request.MultipartForm
	if form == nil || len(form.File[f.name]) == 0 {
		if _, ok := formValue(c, f.name); ok {
			return nil, BadRequest(fmt.Sprintf("form field %q does not contain a file", f.name))
		}
		return nil, fieldRequired(f.name)
	}

	file, err := form.File[f.name][0].Open()
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("cannot read form field %q", f.name))
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, BadRequest("cannot identify image file, unrecognized format")
	}
	return img, nil
}

func checkFormContentType(c *gin.Context) error {
	contentType, _, _ := mime.ParseMediaType(c.ContentType())
	if contentType != "application/x-www-form-urlencoded" && contentType != "multipart/form-data" {
		return BadRequest("only application/x-www-form-urlencoded or multipart/form-data content types accepted")
	}
	return nil
}

func formValue(c *gin.Context, name string) (string, bool) {
	req := c.Request
	if req.MultipartForm != nil {
		if values := req.MultipartForm.Value[name]; len(values) > 0 {
			return values[0], true
		}
	}
	if values := req.PostForm[name]; len(values) > 0 {
		return values[0], true
	}
	return "", false
}

func fieldRequired(name string) *Failure {
	return BadRequest(fmt.Sprintf("form field %q is required", name))
}

func validationFailure(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		fields := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			detail := fe.Tag()
			if fe.Param() != "" {
				detail += "=" + fe.Param()
			}
			fields[fe.Field()] = detail
		}
		return &Failure{Status: 400, Message: "validation failed", Fields: fields}
	}
	return BadRequest("malformed request payload")
}
