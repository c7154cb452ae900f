// Package require decouples what a handler needs from how it is extracted
// and validated. A handler declares checkers (side-effecting validation,
// e.g. a role gate) and named requirements (each resolving a typed value);
// the pipeline resolves them all concurrently and invokes the handler only
// when every one succeeded.
package require

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Checker validates a request for its side effect only; its value, if any,
// is discarded.
type Checker interface {
	Check(c *gin.Context) error
}

// Requirement resolves one named, typed input for a handler.
type Requirement interface {
	Resolve(c *gin.Context) (any, error)
}

// Named maps requirement names to resolvers.
type Named map[string]Requirement

// Values carries resolved requirement values into the handler.
type Values map[string]any

// Value returns the resolved requirement under name. The type parameter must
// match what the requirement produced; a mismatch is a programming error and
// panics.
func Value[T any](values Values, name string) T {
	return values[name].(T)
}

// HandlerFunc is a handler that receives its resolved requirements.
type HandlerFunc func(c *gin.Context, values Values)

// Pipeline composes checkers and named requirements over a handler.
type Pipeline struct {
	Checkers     []Checker
	Requirements Named
}

// MaxBodyBytes caps request bodies across the HTTP surface. Multipart
// parsing keeps at most this much of the form in memory before spilling to
// disk, so the cap and the memory bound stay one value.
const MaxBodyBytes = 20 << 20

const bodyKey = "require_body"

// Handle builds the gin handler. The request body is drained exactly once
// before the fan-out so concurrent resolvers never race on the body stream.
// When several resolvers fail at once, which failure is reported is
// unspecified: the group surfaces whichever error it observed first.
func (p Pipeline) Handle(handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := drainBody(c); err != nil {
			abort(c, err)
			return
		}

		var g errgroup.Group
		var mu sync.Mutex
		values := make(Values, len(p.Requirements))

		for _, checker := range p.Checkers {
			g.Go(func() error {
				return checker.Check(c)
			})
		}
		for name, requirement := range p.Requirements {
			g.Go(func() error {
				value, err := requirement.Resolve(c)
				if err != nil {
					return err
				}
				mu.Lock()
				values[name] = value
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			abort(c, err)
			return
		}

		handler(c, values)
	}
}

func drainBody(c *gin.Context) error {
	req := c.Request
	if req.Body == nil {
		return nil
	}

	contentType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch contentType {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(MaxBodyBytes); err != nil {
			return BadRequest("malformed form body")
		}
	case "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			return BadRequest("malformed form body")
		}
	default:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return BadRequest("cannot read request body")
		}
		c.Set(bodyKey, body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	return nil
}

func bufferedBody(c *gin.Context) []byte {
	if raw, ok := c.Get(bodyKey); ok {
		if body, ok := raw.([]byte); ok {
			return body
		}
	}
	return nil
}

func abort(c *gin.Context, err error) {
	var failure *Failure
	if !errors.As(err, &failure) {
		failure = &Failure{Status: http.StatusInternalServerError, Message: "internal server error"}
	}
	c.Error(err)
	c.AbortWithStatusJSON(failure.Status, failure)
}
