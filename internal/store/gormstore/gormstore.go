package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gamenews/internal/models"
	"gamenews/internal/store"
)

// Store implements store.Store on top of gorm/Postgres.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	return err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Create(profile).Error)
	})
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, translate(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, translate(err)
}

// --- profiles ---

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	return profile, translate(err)
}

func (s *Store) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	out := make(map[uuid.UUID]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.db.WithContext(ctx).Save(profile).Error)
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Create(post).Error)
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	return post, translate(err)
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&posts).Error
	return posts, err
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at desc").Find(&posts).Error
	return posts, err
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Save(post).Error)
}

// DeletePost removes the post together with its comments and every vote
// cast on the post or its comments, so no orphan ledger rows survive.
func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("target_id IN ? AND target_kind = ?", commentIDs, models.TargetComment).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_id = ? AND target_kind = ?", id, models.TargetPost).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error)
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	return comment, translate(err)
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Find(&comments).Error
	return comments, err
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Save(comment).Error)
}

func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_id = ? AND target_kind = ?", id, models.TargetComment).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		// Replies go with their root.
		var replyIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", id).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		if len(replyIDs) > 0 {
			if err := tx.Where("target_id IN ? AND target_kind = ?", replyIDs, models.TargetComment).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// --- votes ---

// CastVote locks the target row FOR UPDATE and runs fn inside the same
// transaction. The lock serializes all vote units for one target, so the
// read-record/write-record/adjust-score sequence never interleaves and the
// score column cannot drift from the sum of vote rows.
func (s *Store) CastVote(ctx context.Context, targetID uuid.UUID, kind models.TargetKind, fn func(store.VoteTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vt := &voteTx{tx: tx, targetID: targetID, kind: kind}
		if err := vt.lockTarget(); err != nil {
			return err
		}
		return fn(vt)
	})
}

type voteTx struct {
	tx       *gorm.DB
	targetID uuid.UUID
	kind     models.TargetKind
}

func (vt *voteTx) target() interface{} {
	if vt.kind == models.TargetComment {
		return &models.Comment{}
	}
	return &models.Post{}
}

func (vt *voteTx) lockTarget() error {
	var row struct{ Score int }
	err := vt.tx.Model(vt.target()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", vt.targetID).
		Select("score").
		Take(&row).Error
	return translate(err)
}

func (vt *voteTx) Vote(voterID uuid.UUID) (models.Vote, error) {
	var vote models.Vote
	err := vt.tx.Where("voter_id = ? AND target_id = ? AND target_kind = ?",
		voterID, vt.targetID, vt.kind).Take(&vote).Error
	return vote, translate(err)
}

func (vt *voteTx) PutVote(vote models.Vote) error {
	vote.UpdatedAt = time.Now().UTC()
	return vt.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "voter_id"}, {Name: "target_id"}, {Name: "target_kind"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&vote).Error
}

func (vt *voteTx) AddScore(delta int) (int, error) {
	err := vt.tx.Model(vt.target()).Where("id = ?", vt.targetID).
		UpdateColumn("score", gorm.Expr("score + ?", delta)).Error
	if err != nil {
		return 0, err
	}
	return vt.Score()
}

func (vt *voteTx) Score() (int, error) {
	var row struct{ Score int }
	err := vt.tx.Model(vt.target()).Where("id = ?", vt.targetID).
		Select("score").Take(&row).Error
	return row.Score, translate(err)
}
