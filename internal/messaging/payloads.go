package messaging

// MatchRequest is the matchmaking.request payload. Published by the chat
// front end on /find and by the dispatcher as the re-enter-pool signal.
type MatchRequest struct {
	UserID int64 `json:"user_id"`
}

// DecideRequest is the interactions.decide payload: the user's like/skip
// answer to a previously proposed candidate.
type DecideRequest struct {
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id"`
	Action     string `json:"action"`
}

// UserInfo is the presentable slice of the *other* party's profile carried in
// a card payload.
type UserInfo struct {
	ToUserID  int64  `json:"to_user_id"`
	Nickname  string `json:"nickname"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Interests string `json:"interests"`
	City      string `json:"city"`
}

// ProfileCard is the payload of notifications.match and matchmaking.candidate:
// a profile to render to ToUserID, with up to 3 newest photo keys.
type ProfileCard struct {
	UserInfo   UserInfo `json:"user_info"`
	ObjectKeys []string `json:"object_keys"`
}
