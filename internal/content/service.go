package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store"
	"gamenews/internal/thread"
	"gamenews/internal/vote"
)

var (
	// ErrForbidden - the acting identity does not own the record it is
	// trying to mutate.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidParent - the parent references a reply or a comment on a
	// different post. Enforced at write time so threads never exceed two
	// levels and reads never need a tree walk.
	ErrInvalidParent = errors.New("parent must be a top-level comment on the same post")
	// ErrEmptyContent - blank body after trimming.
	ErrEmptyContent = errors.New("content must not be empty")
)

// Service orchestrates post and comment operations, delegating vote
// arithmetic to the ledger and thread reads to the assembler. Score columns
// are never written here.
type Service struct {
	store     store.Store
	ledger    *vote.Ledger
	assembler *thread.Assembler
}

func NewService(s store.Store) *Service {
	return &Service{
		store:     s,
		ledger:    vote.NewLedger(s),
		assembler: thread.NewAssembler(s, s),
	}
}

// --- posts ---

func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, req models.CreatePostRequest) (models.Post, error) {
	if strings.TrimSpace(req.Title) == "" {
		return models.Post{}, ErrEmptyContent
	}
	post := models.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     req.Title,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now().UTC(),
	}
	post.UpdatedAt = post.CreatedAt
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

// GetPost returns the post with its assembled comment thread. The view
// counter bump is fire-and-forget: a lost increment under race or store
// failure is acceptable and never fails the read.
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (models.Post, thread.Thread, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, thread.Thread{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.IncrementViews(ctx, id); err != nil {
			log.Printf("view counter increment failed for post %s: %v", id, err)
		}
	}()

	t, err := s.assembler.Assemble(ctx, id)
	if err != nil {
		return models.Post{}, thread.Thread{}, fmt.Errorf("assemble thread: %w", err)
	}
	return post, t, nil
}

func (s *Service) UpdatePost(ctx context.Context, actorID, id uuid.UUID, req models.UpdatePostRequest) (models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if post.AuthorID != actorID {
		return models.Post{}, ErrForbidden
	}
	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Body != "" {
		post.Body = req.Body
	}
	if req.ImageURL != "" {
		post.ImageURL = req.ImageURL
	}
	post.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, actorID, id uuid.UUID) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return ErrForbidden
	}
	return s.store.DeletePost(ctx, id)
}

// --- comments ---

// CreateComment validates threading depth at write time: a supplied parent
// must be a top-level comment on the same post, so replies-to-replies are
// rejected here rather than flattened or filtered on read.
func (s *Service) CreateComment(ctx context.Context, postID, authorID uuid.UUID, body string, parentID *uuid.UUID) (models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return models.Comment{}, ErrEmptyContent
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return models.Comment{}, err
	}
	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil {
			return models.Comment{}, err
		}
		if parent.ParentID != nil || parent.PostID != postID {
			return models.Comment{}, ErrInvalidParent
		}
	}

	comment := models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		ParentID:  parentID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	comment.UpdatedAt = comment.CreatedAt
	if err := s.store.CreateComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *Service) UpdateComment(ctx context.Context, actorID, id uuid.UUID, body string) (models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return models.Comment{}, ErrEmptyContent
	}
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if comment.AuthorID != actorID {
		return models.Comment{}, ErrForbidden
	}
	comment.Body = body
	comment.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, actorID, id uuid.UUID) error {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID {
		return ErrForbidden
	}
	return s.store.DeleteComment(ctx, id)
}

// Thread assembles the comment tree for a post without touching the post row.
func (s *Service) Thread(ctx context.Context, postID uuid.UUID) (thread.Thread, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return thread.Thread{}, err
	}
	return s.assembler.Assemble(ctx, postID)
}

// --- votes ---

// Vote delegates to the ledger; the returned score is authoritative.
func (s *Service) Vote(ctx context.Context, voterID, targetID uuid.UUID, kind models.TargetKind, value int) (int, error) {
	return s.ledger.Cast(ctx, voterID, targetID, kind, value)
}

// --- profiles ---

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, []models.Post, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, nil, err
	}
	posts, err := s.store.ListPostsByAuthor(ctx, id)
	if err != nil {
		return models.Profile{}, nil, err
	}
	return profile, posts, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actorID, id uuid.UUID, req models.UpdateProfileRequest) (models.Profile, error) {
	if actorID != id {
		return models.Profile{}, ErrForbidden
	}
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	if req.Username != "" {
		profile.Username = req.Username
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	profile.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateProfile(ctx, &profile); err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
