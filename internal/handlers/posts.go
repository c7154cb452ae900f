package handlers

import (
	"errors"
	"image"
	"net/http"
	"strconv"

	"pulsefeed/internal/middleware"
	"pulsefeed/internal/models"
	"pulsefeed/internal/require"
	"pulsefeed/internal/services"
	"pulsefeed/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

type PostHandler struct {
	images    *storage.ImageStore
	sanitizer *bluemonday.Policy
}

func NewPostHandler(images *storage.ImageStore) *PostHandler {
	return &PostHandler{
		images:    images,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ratedPost is a post annotated with the caller's own reaction, if any.
type ratedPost struct {
	models.Post
	Rate *models.ReactionKind `json:"rate"`
}

// List returns one page of the feed with the caller's reactions and the
// total post count.
func (h *PostHandler) List() gin.HandlerFunc {
	type listQuery struct {
		Page    int                 `form:"page,default=1" binding:"gte=1"`
		PerPage int                 `form:"per_page,default=5" binding:"gte=1"`
		Order   services.PostsOrder `form:"order,default=new_first" binding:"oneof=new_first more_likes_first more_dislikes_first"`
	}

	return require.Pipeline{
		Requirements: require.Named{
			"auth":  require.Auth(models.RoleUser, models.RoleAdmin),
			"query": require.Query[listQuery](),
		},
	}.Handle(func(c *gin.Context, values require.Values) {
		auth := require.Value[services.AuthInfo](values, "auth")
		query := require.Value[listQuery](values, "query")

		service := services.NewPostService(middleware.Tx(c), h.images)

		posts, err := service.List(query.PerPage, (query.Page-1)*query.PerPage, query.Order)
		if err != nil {
			abortInternal(c, err)
			return
		}

		rates := map[uint]models.ReactionKind{}
		if len(posts) > 0 {
			postIDs := make([]uint, len(posts))
			for i, post := range posts {
				postIDs[i] = post.ID
			}
			if rates, err = service.Reactions(auth.UserID, postIDs...); err != nil {
				abortInternal(c, err)
				return
			}
		}

		items := make([]ratedPost, len(posts))
		for i, post := range posts {
			items[i] = ratedPost{Post: post}
			if kind, ok := rates[post.ID]; ok {
				items[i].Rate = &kind
			}
		}

		total, err := service.TotalQuantity()
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items":          items,
			"total_quantity": total,
		})
	})
}

// Create stores a new post from multipart text and image fields. Admins only.
func (h *PostHandler) Create() gin.HandlerFunc {
	return require.Pipeline{
		Checkers: []require.Checker{
			require.Auth(models.RoleAdmin),
		},
		Requirements: require.Named{
			"text":  require.FormString("text"),
			"image": require.FormImage("image"),
		},
	}.Handle(func(c *gin.Context, values require.Values) {
		text := require.Value[string](values, "text")
		img := require.Value[image.Image](values, "image")

		post, err := services.NewPostService(middleware.Tx(c), h.images).
			Create(h.sanitizer.Sanitize(text), img)
		if errors.Is(err, services.ErrBadPostImage) {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, post)
	})
}

// SetReaction sets or clears the caller's reaction on a post.
func (h *PostHandler) SetReaction() gin.HandlerFunc {
	type rateRequest struct {
		Rate *models.ReactionKind `json:"rate" binding:"omitempty,oneof=like dislike"`
	}

	return require.Pipeline{
		Requirements: require.Named{
			"auth":    require.Auth(models.RoleUser),
			"payload": require.JSON[rateRequest](),
		},
	}.Handle(func(c *gin.Context, values require.Values) {
		auth := require.Value[services.AuthInfo](values, "auth")
		payload := require.Value[rateRequest](values, "payload")

		postID, err := parsePostID(c)
		if err != nil {
			abortError(c, http.StatusNotFound, services.ErrUnknownPost)
			return
		}

		err = services.NewPostService(middleware.Tx(c), h.images).
			SetReaction(postID, auth.UserID, payload.Rate)
		if errors.Is(err, services.ErrUnknownPost) {
			abortError(c, http.StatusNotFound, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{})
	})
}

// Delete removes a post and its reactions. Admins only.
func (h *PostHandler) Delete() gin.HandlerFunc {
	return require.Pipeline{
		Checkers: []require.Checker{
			require.Auth(models.RoleAdmin),
		},
	}.Handle(func(c *gin.Context, _ require.Values) {
		postID, err := parsePostID(c)
		if err != nil {
			abortError(c, http.StatusNotFound, services.ErrUnknownPost)
			return
		}

		err = services.NewPostService(middleware.Tx(c), h.images).Delete(postID)
		if errors.Is(err, services.ErrUnknownPost) {
			abortError(c, http.StatusNotFound, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{})
	})
}

func parsePostID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 32)
	return uint(id), err
}
