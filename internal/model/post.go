package model

// Post is a note written by a user (`posts`).  Posts are owned: only the
// author may change them, only a superuser may erase them for good.
type Post struct {
	Base
	UUID            string  `json:"uuid"`               // posts.uuid
	CreatedByUserID int64   `json:"created_by_user_id"` // posts.created_by_user_id -> users.id
	Title           string  `json:"title"`              // posts.title
	Text            string  `json:"text"`               // posts.text
	MediaURL        *string `json:"media_url"`          // posts.media_url
}
