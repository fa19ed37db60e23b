package likecache

import "context"

// User identifies the author of a like.
type User struct {
	ID string `json:"id"`
}

// Like is one element of the remote "get likes for post" response.
type Like struct {
	User User `json:"user"`
}

// Fetcher returns the full list of users who liked a post
type Fetcher interface {
	GetLikes(ctx context.Context, postID string) ([]Like, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, postID string) ([]Like, error)

// GetLikes calls f
func (f FetcherFunc) GetLikes(ctx context.Context, postID string) ([]Like, error) {
	return f(ctx, postID)
}

// Identity reports who the current authenticated user is
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// IdentityFunc adapts a function to the Identity interface
type IdentityFunc func(ctx context.Context) (string, error)

// CurrentUserID calls f
func (f IdentityFunc) CurrentUserID(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticIdentity always reports the same user ID
func StaticIdentity(userID string) Identity {
	return IdentityFunc(func(context.Context) (string, error) {
		return userID, nil
	})
}

// statusFromLikes derives an entry from a like list. LastChecked is left zero.
func statusFromLikes(likes []Like, userID string) Entry {
	entry := Entry{LikesCount: len(likes)}
	if userID == "" {
		return entry
	}
	for _, l := range likes {
		if l.User.ID == userID {
			entry.UserLiked = true
			break
		}
	}
	return entry
}
