package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store"
)

func TestUserLifecycle(t *testing.T) {
	st := New()
	id := uuid.New()
	user := models.User{ID: id, Email: "a@example.com", PasswordHash: "h"}
	profile := models.Profile{ID: id, Username: "a"}

	if err := st.CreateUser(context.Background(), &user, &profile); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := st.CreateUser(context.Background(), &models.User{ID: uuid.New(), Email: "a@example.com"}, &models.Profile{}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := st.GetUserByEmail(context.Background(), "a@example.com")
	if err != nil || got.ID != id {
		t.Fatalf("get by email: %v", err)
	}
	p, err := st.GetProfile(context.Background(), id)
	if err != nil || p.Username != "a" {
		t.Fatalf("profile created alongside identity: %v", err)
	}
}

func TestDeletePostCascades(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := models.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "t", CreatedAt: time.Now()}
	if err := st.CreatePost(ctx, &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	comment := models.Comment{ID: uuid.New(), PostID: post.ID, AuthorID: uuid.New(), Body: "c"}
	if err := st.CreateComment(ctx, &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	voter := uuid.New()
	err := st.CastVote(ctx, comment.ID, models.TargetComment, func(tx store.VoteTx) error {
		if err := tx.PutVote(models.Vote{VoterID: voter, TargetID: comment.ID, TargetKind: models.TargetComment, Value: 1}); err != nil {
			return err
		}
		_, err := tx.AddScore(1)
		return err
	})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	if err := st.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetComment(ctx, comment.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected comment gone, got %v", err)
	}
}

// A failed vote unit must leave prior state fully intact.
func TestCastVoteRollsBackOnError(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := models.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "t", Score: 3}
	if err := st.CreatePost(ctx, &post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	boom := errors.New("boom")
	err := st.CastVote(ctx, post.ID, models.TargetPost, func(tx store.VoteTx) error {
		if err := tx.PutVote(models.Vote{VoterID: uuid.New(), TargetID: post.ID, TargetKind: models.TargetPost, Value: 1}); err != nil {
			return err
		}
		if _, err := tx.AddScore(1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Score != 3 {
		t.Fatalf("expected score restored to 3, got %d", got.Score)
	}
}

func TestCastVoteMissingTarget(t *testing.T) {
	st := New()

	err := st.CastVote(context.Background(), uuid.New(), models.TargetPost, func(tx store.VoteTx) error {
		t.Fatal("unit must not run for a missing target")
		return nil
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
