package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/middleware"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/queue"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/service"
)

// UserLookup resolves the :username path segment.
type UserLookup interface {
	GetActiveByUsername(ctx context.Context, username string) (*model.User, error)
}

// PostStore adds hard deletion to the generic store.
type PostStore interface {
	Store[model.Post]
	HardDelete(ctx context.Context, conds ...repository.Cond) error
}

// PostHandler serves the owner-scoped post endpoints under /:username.
type PostHandler struct {
	Users UserLookup
	Posts PostStore
	Audit service.AuditPublisher
}

func NewPostHandler(users UserLookup, posts PostStore, audit service.AuditPublisher) *PostHandler {
	if audit == nil {
		audit = service.NopPublisher{}
	}
	return &PostHandler{Users: users, Posts: posts, Audit: audit}
}

type postCreate struct {
	Title    string  `json:"title" validate:"required,min=2,max=30"`
	Text     string  `json:"text" validate:"required,min=1,max=63206"`
	MediaURL *string `json:"media_url" validate:"omitempty,max=255,url"`
}

func (r *postCreate) trim() {
	r.Title = strings.TrimSpace(r.Title)
	trimPtr(r.MediaURL)
}

type postUpdate struct {
	Title    *string `json:"title" validate:"omitempty,min=2,max=30"`
	Text     *string `json:"text" validate:"omitempty,min=1,max=63206"`
	MediaURL *string `json:"media_url" validate:"omitempty,max=255,url"`
}

func (r *postUpdate) trim() {
	trimPtr(r.Title)
	trimPtr(r.MediaURL)
}

// pathUser loads the :username user.  The response has been written when
// the returned user is nil.
func (h *PostHandler) pathUser(ctx context.Context, c echo.Context) (*model.User, error) {
	u, err := h.Users.GetActiveByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(c, http.StatusNotFound, "User not found")
		}
		return nil, dbFail(c, "get user", err)
	}
	return u, nil
}

// owner is like pathUser but also requires the caller to be that user.
func (h *PostHandler) owner(ctx context.Context, c echo.Context) (*model.User, error) {
	u, err := h.pathUser(ctx, c)
	if u == nil {
		return nil, err
	}
	if err := ownedBy(middleware.CurrentUser(c), u); err != nil {
		return nil, fail(c, http.StatusForbidden, err.Error())
	}
	return u, nil
}

// ownedBy returns repository.ErrForbidden unless actor is owner.
func ownedBy(actor, owner *model.User) error {
	if actor == nil || actor.ID != owner.ID {
		return repository.ErrForbidden
	}
	return nil
}

func postID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *PostHandler) find(ctx context.Context, c echo.Context, owner *model.User) (*model.Post, error) {
	id, ok := postID(c)
	if !ok {
		return nil, fail(c, http.StatusNotFound, "Post not found")
	}
	p, err := h.Posts.Get(ctx, repository.Eq("id", id), repository.Eq("created_by_user_id", owner.ID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(c, http.StatusNotFound, "Post not found")
		}
		return nil, dbFail(c, "get post", err)
	}
	return p, nil
}

// Create handles POST /:username/post.
func (h *PostHandler) Create(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.owner(ctx, c)
	if u == nil {
		return err
	}
	var req postCreate
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	p := &model.Post{
		UUID:            uuid.NewString(),
		CreatedByUserID: u.ID,
		Title:           req.Title,
		Text:            req.Text,
		MediaURL:        req.MediaURL,
	}
	if err := h.Posts.Create(ctx, p); err != nil {
		return dbFail(c, "create post", err)
	}
	h.Audit.Publish(queue.NewEntityEvent("create", "Post", p.UUID, u.Username))
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /:username/posts.
func (h *PostHandler) List(c echo.Context) error {
	page, perPage, err := pagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.pathUser(ctx, c)
	if u == nil {
		return err
	}
	items, total, err := h.Posts.List(ctx, (page-1)*perPage, perPage, repository.Eq("created_by_user_id", u.ID))
	if err != nil {
		return dbFail(c, "list posts", err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, page, perPage))
}

// Get handles GET /:username/post/:id.
func (h *PostHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.pathUser(ctx, c)
	if u == nil {
		return err
	}
	p, err := h.find(ctx, c, u)
	if p == nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Patch handles PATCH /:username/post/:id.
func (h *PostHandler) Patch(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.owner(ctx, c)
	if u == nil {
		return err
	}
	var req postUpdate
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	p, err := h.find(ctx, c, u)
	if p == nil {
		return err
	}

	cs := change(nil, "title", req.Title)
	cs = change(cs, "text", req.Text)
	cs = change(cs, "media_url", req.MediaURL)
	if err := h.Posts.Update(ctx, cs, repository.Eq("id", p.ID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Post not found")
		}
		return dbFail(c, "update post", err)
	}
	h.Audit.Publish(queue.NewEntityEvent("update", "Post", p.UUID, u.Username))
	return message(c, http.StatusOK, "Post updated")
}

// Delete handles DELETE /:username/post/:id with a soft delete.
func (h *PostHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.owner(ctx, c)
	if u == nil {
		return err
	}
	p, err := h.find(ctx, c, u)
	if p == nil {
		return err
	}
	if err := h.Posts.SoftDelete(ctx, repository.Eq("id", p.ID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Post not found")
		}
		return dbFail(c, "delete post", err)
	}
	h.Audit.Publish(queue.NewEntityEvent("delete", "Post", p.UUID, u.Username))
	return message(c, http.StatusOK, "Post deleted")
}

// HardDelete handles DELETE /:username/db_post/:id.  It removes the row
// even when it was already soft deleted; superusers only.
func (h *PostHandler) HardDelete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.pathUser(ctx, c)
	if u == nil {
		return err
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Post not found")
	}
	err = h.Posts.HardDelete(ctx, repository.Eq("id", id), repository.Eq("created_by_user_id", u.ID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Post not found")
		}
		return dbFail(c, "hard delete post", err)
	}
	actor := ""
	if a := middleware.CurrentUser(c); a != nil {
		actor = a.Username
	}
	h.Audit.Publish(queue.NewEntityEvent("hard_delete", "Post", strconv.FormatInt(id, 10), actor))
	return message(c, http.StatusOK, "Post deleted from the database")
}
