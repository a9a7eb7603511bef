package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store"
)

type voteKey struct {
	voter  uuid.UUID
	target uuid.UUID
	kind   models.TargetKind
}

// Store is a mutex-guarded in-memory implementation of store.Store. A vote
// unit holds the lock for its whole duration, which over-serializes compared
// to the per-target contract but trivially satisfies it.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.Profile
	posts    map[uuid.UUID]models.Post
	comments map[uuid.UUID]models.Comment
	votes    map[voteKey]models.Vote
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		profiles: make(map[uuid.UUID]models.Profile),
		posts:    make(map[uuid.UUID]models.Post),
		comments: make(map[uuid.UUID]models.Comment),
		votes:    make(map[voteKey]models.Vote),
	}
}

func (s *Store) Close() error { return nil }

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

// --- profiles ---

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return profile, nil
}

func (s *Store) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]models.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return store.ErrNotFound
	}
	s.profiles[profile.ID] = *profile
	return nil
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = *post
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var posts []models.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[post.ID]; !ok {
		return store.ErrNotFound
	}
	s.posts[post.ID] = *post
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
			s.dropVotesLocked(cid, models.TargetComment)
		}
	}
	s.dropVotesLocked(id, models.TargetPost)
	return nil
}

func (s *Store) IncrementViews(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	post.Views++
	s.posts[id] = post
	return nil
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = *comment
	return nil
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, store.ErrNotFound
	}
	return comment, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var comments []models.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; !ok {
		return store.ErrNotFound
	}
	s.comments[comment.ID] = *comment
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	s.dropVotesLocked(id, models.TargetComment)
	for cid, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == id {
			delete(s.comments, cid)
			s.dropVotesLocked(cid, models.TargetComment)
		}
	}
	return nil
}

func (s *Store) dropVotesLocked(targetID uuid.UUID, kind models.TargetKind) {
	for k := range s.votes {
		if k.target == targetID && k.kind == kind {
			delete(s.votes, k)
		}
	}
}

// --- votes ---

func (s *Store) CastVote(ctx context.Context, targetID uuid.UUID, kind models.TargetKind, fn func(store.VoteTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.targetExistsLocked(targetID, kind) {
		return store.ErrNotFound
	}
	snapshot := s.snapshotLocked(targetID, kind)
	if err := fn(&voteTx{s: s, targetID: targetID, kind: kind}); err != nil {
		// Failed units leave prior state fully intact.
		s.restoreLocked(targetID, kind, snapshot)
		return err
	}
	return nil
}

func (s *Store) targetExistsLocked(targetID uuid.UUID, kind models.TargetKind) bool {
	if kind == models.TargetComment {
		_, ok := s.comments[targetID]
		return ok
	}
	_, ok := s.posts[targetID]
	return ok
}

type voteSnapshot struct {
	votes map[voteKey]models.Vote
	score int
}

func (s *Store) snapshotLocked(targetID uuid.UUID, kind models.TargetKind) voteSnapshot {
	snap := voteSnapshot{votes: make(map[voteKey]models.Vote)}
	for k, v := range s.votes {
		if k.target == targetID && k.kind == kind {
			snap.votes[k] = v
		}
	}
	if kind == models.TargetComment {
		snap.score = s.comments[targetID].Score
	} else {
		snap.score = s.posts[targetID].Score
	}
	return snap
}

func (s *Store) restoreLocked(targetID uuid.UUID, kind models.TargetKind, snap voteSnapshot) {
	s.dropVotesLocked(targetID, kind)
	for k, v := range snap.votes {
		s.votes[k] = v
	}
	if kind == models.TargetComment {
		c := s.comments[targetID]
		c.Score = snap.score
		s.comments[targetID] = c
	} else {
		p := s.posts[targetID]
		p.Score = snap.score
		s.posts[targetID] = p
	}
}

type voteTx struct {
	s        *Store
	targetID uuid.UUID
	kind     models.TargetKind
}

func (vt *voteTx) Vote(voterID uuid.UUID) (models.Vote, error) {
	v, ok := vt.s.votes[voteKey{voterID, vt.targetID, vt.kind}]
	if !ok {
		return models.Vote{}, store.ErrNotFound
	}
	return v, nil
}

func (vt *voteTx) PutVote(vote models.Vote) error {
	vt.s.votes[voteKey{vote.VoterID, vote.TargetID, vote.TargetKind}] = vote
	return nil
}

func (vt *voteTx) AddScore(delta int) (int, error) {
	if vt.kind == models.TargetComment {
		c := vt.s.comments[vt.targetID]
		c.Score += delta
		vt.s.comments[vt.targetID] = c
		return c.Score, nil
	}
	p := vt.s.posts[vt.targetID]
	p.Score += delta
	vt.s.posts[vt.targetID] = p
	return p.Score, nil
}

func (vt *voteTx) Score() (int, error) {
	if vt.kind == models.TargetComment {
		return vt.s.comments[vt.targetID].Score, nil
	}
	return vt.s.posts[vt.targetID].Score, nil
}

func sortPostsNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
