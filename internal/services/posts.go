package services

import (
	"errors"
	"image"

	"pulsefeed/internal/models"
	"pulsefeed/internal/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownPost  = errors.New("unknown post")
	ErrBadPostImage = errors.New("bad post image")
)

// PostsOrder selects the feed sort order.
type PostsOrder string

const (
	OrderNewFirst          PostsOrder = "new_first"
	OrderMoreLikesFirst    PostsOrder = "more_likes_first"
	OrderMoreDislikesFirst PostsOrder = "more_dislikes_first"
)

type PostService struct {
	tx     *gorm.DB
	images *storage.ImageStore
}

func NewPostService(tx *gorm.DB, images *storage.ImageStore) *PostService {
	return &PostService{tx: tx, images: images}
}

func (s *PostService) List(limit, offset int, order PostsOrder) ([]models.Post, error) {
	orderBy := "created_at DESC, id DESC"
	switch order {
	case OrderMoreLikesFirst:
		orderBy = "likes_quantity DESC, id DESC"
	case OrderMoreDislikesFirst:
		orderBy = "dislikes_quantity DESC, id DESC"
	}

	var posts []models.Post
	err := s.tx.Order(orderBy).Limit(limit).Offset(offset).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) TotalQuantity() (int64, error) {
	var count int64
	err := s.tx.Model(&models.Post{}).Count(&count).Error
	return count, err
}

// Reactions returns the user's reactions keyed by post id, restricted to the
// given posts when any are named.
func (s *PostService) Reactions(userID uint, postIDs ...uint) (map[uint]models.ReactionKind, error) {
	query := s.tx.Where("user_id = ?", userID)
	if len(postIDs) > 0 {
		query = query.Where("post_id IN ?", postIDs)
	}

	var rows []models.Reaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	reactions := make(map[uint]models.ReactionKind, len(rows))
	for _, row := range rows {
		reactions[row.PostID] = row.Kind
	}
	return reactions, nil
}

// Create stores the image, then inserts the post row with zeroed counters.
func (s *PostService) Create(text string, img image.Image) (models.Post, error) {
	imageURL, err := s.images.Save(img)
	if err != nil {
		return models.Post{}, ErrBadPostImage
	}

	post := models.Post{Text: text, ImageURL: imageURL}
	if err := s.tx.Create(&post).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Delete removes the post and its reactions in the current transaction.
// Stored image files are retained.
func (s *PostService) Delete(postID uint) error {
	exists, err := s.postExists(postID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownPost
	}

	if err := s.tx.Where("post_id = ?", postID).Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	return s.tx.Delete(&models.Post{}, postID).Error
}

// SetReaction drives the per-(post,user) reaction state machine. A nil kind
// clears the reaction. Repeating the current state writes nothing at all.
// Counter deltas and the row mutation always land in the same transaction.
func (s *PostService) SetReaction(postID, userID uint, kind *models.ReactionKind) error {
	exists, err := s.postExists(postID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownPost
	}

	var existing models.Reaction
	var old *models.ReactionKind
	err = s.tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	switch {
	case err == nil:
		old = &existing.Kind
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if sameKind(old, kind) {
		// Reaction not changed
		return nil
	}

	likes, dislikes := 0, 0
	if old != nil {
		if *old == models.ReactionLike {
			likes--
		} else {
			dislikes--
		}
	}
	if kind != nil {
		if *kind == models.ReactionLike {
			likes++
		} else {
			dislikes++
		}
	}

	err = s.tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(map[string]interface{}{
		"likes_quantity":    gorm.Expr("likes_quantity + ?", likes),
		"dislikes_quantity": gorm.Expr("dislikes_quantity + ?", dislikes),
	}).Error
	if err != nil {
		return err
	}

	if kind == nil {
		return s.tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Reaction{}).Error
	}

	reaction := models.Reaction{PostID: postID, UserID: userID, Kind: *kind}
	return s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind"}),
	}).Create(&reaction).Error
}

func (s *PostService) postExists(postID uint) (bool, error) {
	var count int64
	err := s.tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error
	return count > 0, err
}

func sameKind(a, b *models.ReactionKind) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
