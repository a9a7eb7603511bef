package thread

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"gamenews/internal/models"
	"gamenews/internal/store"
)

// UnknownAuthor is substituted when a comment's author has no profile, so a
// deleted account never fails a whole page.
const UnknownAuthor = "unknown"

// Comment is a stored comment joined with its author's display data.
type Comment struct {
	models.Comment
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
}

// Root is a top-level comment with its direct replies.
type Root struct {
	Comment
	Replies []Comment `json:"replies"`
}

// Thread is the assembled two-level tree for one post.
type Thread struct {
	Roots []Root `json:"comments"`
	Total int    `json:"total"`
}

// Assembler builds comment threads from the flat comment table.
type Assembler struct {
	comments store.CommentStore
	profiles store.ProfileStore
}

func NewAssembler(comments store.CommentStore, profiles store.ProfileStore) *Assembler {
	return &Assembler{comments: comments, profiles: profiles}
}

// Assemble loads every comment on the post in one fetch and groups them in
// memory: roots first, then replies bucketed under their root. Both levels
// order by score descending, ties broken newest-first. The single fetch
// bounds store round-trips regardless of comment count.
func (a *Assembler) Assemble(ctx context.Context, postID uuid.UUID) (Thread, error) {
	flat, err := a.comments.ListCommentsByPost(ctx, postID)
	if err != nil {
		return Thread{}, err
	}

	profiles, err := a.resolveAuthors(ctx, flat)
	if err != nil {
		return Thread{}, err
	}

	byRoot := make(map[uuid.UUID][]Comment)
	var roots []Root
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, Root{Comment: withAuthor(c, profiles)})
		} else {
			byRoot[*c.ParentID] = append(byRoot[*c.ParentID], withAuthor(c, profiles))
		}
	}

	total := 0
	for i := range roots {
		replies := byRoot[roots[i].ID]
		if replies == nil {
			replies = []Comment{}
		}
		sortByScoreThenRecency(replies)
		roots[i].Replies = replies
		total += 1 + len(replies)
	}
	sortRoots(roots)

	if roots == nil {
		roots = []Root{}
	}
	return Thread{Roots: roots, Total: total}, nil
}

func (a *Assembler) resolveAuthors(ctx context.Context, comments []models.Comment) (map[uuid.UUID]models.Profile, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, c := range comments {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			ids = append(ids, c.AuthorID)
		}
	}
	return a.profiles.GetProfiles(ctx, ids)
}

func withAuthor(c models.Comment, profiles map[uuid.UUID]models.Profile) Comment {
	out := Comment{Comment: c, AuthorName: UnknownAuthor}
	if p, ok := profiles[c.AuthorID]; ok {
		out.AuthorName = p.Username
		out.AuthorAvatar = p.AvatarURL
	}
	return out
}

func sortByScoreThenRecency(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Score != comments[j].Score {
			return comments[i].Score > comments[j].Score
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}

func sortRoots(roots []Root) {
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].Score != roots[j].Score {
			return roots[i].Score > roots[j].Score
		}
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
}
