package thread

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store/memstore"
)

func seedComment(t *testing.T, st *memstore.Store, postID uuid.UUID, parent *uuid.UUID, author uuid.UUID, score int, createdAt time.Time) models.Comment {
	t.Helper()
	c := models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		ParentID:  parent,
		AuthorID:  author,
		Body:      "text",
		Score:     score,
		CreatedAt: createdAt,
	}
	if err := st.CreateComment(context.Background(), &c); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

func seedProfile(t *testing.T, st *memstore.Store, username string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	user := models.User{ID: id, Email: username + "@example.com", PasswordHash: "x"}
	profile := models.Profile{ID: id, Username: username, AvatarURL: "/avatars/" + username + ".png"}
	if err := st.CreateUser(context.Background(), &user, &profile); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func TestAssembleEmptyPost(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)

	thread, err := a.Assemble(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 0 || thread.Total != 0 {
		t.Fatalf("expected empty thread, got %d roots total %d", len(thread.Roots), thread.Total)
	}
}

// Roots order by score desc; two roots tied at score 5 order with the more
// recently created one first.
func TestAssembleRootOrdering(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)
	postID := uuid.New()
	author := seedProfile(t, st, "alice")

	base := time.Now()
	r2 := seedComment(t, st, postID, nil, author, 5, base.Add(-2*time.Hour)) // older of the tied pair
	r1 := seedComment(t, st, postID, nil, author, 5, base.Add(-1*time.Hour))
	r3 := seedComment(t, st, postID, nil, author, 2, base)

	thread, err := a.Assemble(context.Background(), postID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(thread.Roots))
	}
	got := []uuid.UUID{thread.Roots[0].ID, thread.Roots[1].ID, thread.Roots[2].ID}
	want := []uuid.UUID{r1.ID, r2.ID, r3.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestAssembleRepliesOrderedUnderRoot(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)
	postID := uuid.New()
	author := seedProfile(t, st, "bob")

	base := time.Now()
	root := seedComment(t, st, postID, nil, author, 0, base.Add(-3*time.Hour))
	low := seedComment(t, st, postID, &root.ID, author, 1, base.Add(-2*time.Hour))
	highOld := seedComment(t, st, postID, &root.ID, author, 4, base.Add(-1*time.Hour))
	highNew := seedComment(t, st, postID, &root.ID, author, 4, base)

	thread, err := a.Assemble(context.Background(), postID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(thread.Roots))
	}
	replies := thread.Roots[0].Replies
	if len(replies) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(replies))
	}
	want := []uuid.UUID{highNew.ID, highOld.ID, low.ID}
	for i := range want {
		if replies[i].ID != want[i] {
			t.Fatalf("reply %d: expected %s, got %s", i, want[i], replies[i].ID)
		}
	}
	if thread.Total != 4 {
		t.Fatalf("expected total 4, got %d", thread.Total)
	}
}

// A root by user A with one reply by user B yields a one-root tree with the
// reply bucketed under it and total count 2.
func TestAssembleRootAndReply(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)
	postID := uuid.New()
	userA := seedProfile(t, st, "a")
	userB := seedProfile(t, st, "b")

	root := seedComment(t, st, postID, nil, userA, 0, time.Now().Add(-time.Minute))
	reply := seedComment(t, st, postID, &root.ID, userB, 0, time.Now())

	thread, err := a.Assemble(context.Background(), postID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(thread.Roots))
	}
	if thread.Roots[0].ID != root.ID {
		t.Fatalf("wrong root")
	}
	if len(thread.Roots[0].Replies) != 1 || thread.Roots[0].Replies[0].ID != reply.ID {
		t.Fatalf("expected the single reply under the root")
	}
	if thread.Total != 2 {
		t.Fatalf("expected total 2, got %d", thread.Total)
	}
	if thread.Roots[0].AuthorName != "a" || thread.Roots[0].Replies[0].AuthorName != "b" {
		t.Fatalf("author names not resolved: %q / %q", thread.Roots[0].AuthorName, thread.Roots[0].Replies[0].AuthorName)
	}
}

func TestAssembleMissingProfileUsesPlaceholder(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)
	postID := uuid.New()

	seedComment(t, st, postID, nil, uuid.New(), 0, time.Now())

	thread, err := a.Assemble(context.Background(), postID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(thread.Roots))
	}
	if thread.Roots[0].AuthorName != UnknownAuthor {
		t.Fatalf("expected %q placeholder, got %q", UnknownAuthor, thread.Roots[0].AuthorName)
	}
	if thread.Roots[0].AuthorAvatar != "" {
		t.Fatalf("expected empty avatar for unknown author")
	}
}

// A reply chained under another reply is a write-side integrity violation;
// if one sneaks into storage the assembler must not emit it nested.
func TestAssembleDropsNestedReply(t *testing.T) {
	st := memstore.New()
	a := NewAssembler(st, st)
	postID := uuid.New()
	author := seedProfile(t, st, "c")

	root := seedComment(t, st, postID, nil, author, 0, time.Now().Add(-2*time.Minute))
	reply := seedComment(t, st, postID, &root.ID, author, 0, time.Now().Add(-time.Minute))
	seedComment(t, st, postID, &reply.ID, author, 0, time.Now()) // bad row

	thread, err := a.Assemble(context.Background(), postID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(thread.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(thread.Roots))
	}
	if len(thread.Roots[0].Replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(thread.Roots[0].Replies))
	}
	if thread.Total != 2 {
		t.Fatalf("nested reply must not count, got total %d", thread.Total)
	}
}
