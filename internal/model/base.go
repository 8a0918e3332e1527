package model

import "time"

// Base holds the columns every table shares: surrogate key, timestamps and
// soft-delete metadata.  It is embedded in each entity so the generic
// repository can reach these fields without knowing the concrete type.
type Base struct {
	ID        int64      `json:"id"`         // <table>.id
	CreatedAt time.Time  `json:"created_at"` // <table>.created_at
	UpdatedAt *time.Time `json:"updated_at"` // <table>.updated_at (null until first update)
	DeletedAt *time.Time `json:"-"`          // <table>.deleted_at
	IsDeleted bool       `json:"-"`          // <table>.is_deleted
}

// Row returns the embedded Base.  Entities get this method through
// embedding, which lets the repository address Base generically.
func (b *Base) Row() *Base { return b }
