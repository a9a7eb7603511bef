package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gamenews/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is the single injected adapter every component talks to. The
// relational database behind it is the only synchronization point in the
// system; no score or vote state is cached in process.
type Store interface {
	UserStore
	ProfileStore
	PostStore
	CommentStore
	VoteStore
	Close() error
}

type UserStore interface {
	// CreateUser persists the auth identity and its profile as one unit.
	CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error)
	// GetProfiles batch-resolves profiles; missing ids are simply absent
	// from the result, never an error.
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	// IncrementViews is a single atomic counter bump; callers treat it as
	// best-effort.
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

type VoteStore interface {
	// CastVote runs fn as one indivisible unit scoped to the target: the
	// target row is locked for the duration, so no two units for the same
	// target interleave. Returns ErrNotFound if the target does not exist.
	CastVote(ctx context.Context, targetID uuid.UUID, kind models.TargetKind, fn func(VoteTx) error) error
}

// VoteTx is the view of the store inside a vote-casting unit. All methods
// operate on the target locked by CastVote.
type VoteTx interface {
	// Vote returns the voter's existing record for the target, or
	// ErrNotFound.
	Vote(voterID uuid.UUID) (models.Vote, error)
	// PutVote inserts the record or replaces the voter's prior one.
	PutVote(vote models.Vote) error
	// AddScore applies delta to the target's score and returns the stored
	// result.
	AddScore(delta int) (int, error)
	// Score reads the target's current score.
	Score() (int, error)
}
