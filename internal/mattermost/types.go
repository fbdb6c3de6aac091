package mattermost

// Wire types for the Mattermost v4 REST API. Only the fields the client
// reads are declared; the server sends more.

// User is an authenticated account on the server.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns the best human-readable name for a user.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}

// Team types as the server encodes them.
const (
	TeamOpen   = "O"
	TeamInvite = "I"
)

// Team is a workspace grouping channels and members (a "vessel" in the UI).
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Channel types as the server encodes them.
const (
	ChannelOpen    = "O"
	ChannelPrivate = "P"
	ChannelDirect  = "D"
	ChannelGroup   = "G"
)

// Channel is a message stream within a team.
type Channel struct {
	ID            string `json:"id"`
	TeamID        string `json:"team_id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Type          string `json:"type"`
	Header        string `json:"header"`
	TotalMsgCount int64  `json:"total_msg_count"`
}

// Post is a single message within a channel. Timestamps are server-assigned
// milliseconds since epoch; the client never orders posts by its own clock.
type Post struct {
	ID            string `json:"id"`
	ChannelID     string `json:"channel_id"`
	UserID        string `json:"user_id"`
	CreateAt      int64  `json:"create_at"`
	UpdateAt      int64  `json:"update_at"`
	EditAt        int64  `json:"edit_at"`
	DeleteAt      int64  `json:"delete_at"`
	RootID        string `json:"root_id"`
	Message       string `json:"message"`
	PendingPostID string `json:"pending_post_id,omitempty"`
}

// PostList is the server's paged post response: ids in display order
// (newest first) plus a map of id to post.
type PostList struct {
	Order []string        `json:"order"`
	Posts map[string]Post `json:"posts"`
}

// Ascending returns the posts sorted oldest-first following Order.
// Ids missing from the map are skipped.
func (pl *PostList) Ascending() []Post {
	posts := make([]Post, 0, len(pl.Order))
	for i := len(pl.Order) - 1; i >= 0; i-- {
		if p, ok := pl.Posts[pl.Order[i]]; ok {
			posts = append(posts, p)
		}
	}
	return posts
}
