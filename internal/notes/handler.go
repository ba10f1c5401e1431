package notes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AyanMustafa/Anevo/internal/access"
	"github.com/AyanMustafa/Anevo/internal/auth"
	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/AyanMustafa/Anevo/internal/notify"
	"github.com/AyanMustafa/Anevo/internal/responses"
	"github.com/AyanMustafa/Anevo/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	notes  *store.NoteStore
	shares *store.ShareStore
	users  *store.UserStore
	hub    *notify.Hub
	logger *slog.Logger
}

func NewHandler(notes *store.NoteStore, shares *store.ShareStore, users *store.UserStore, hub *notify.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		notes:  notes,
		shares: shares,
		users:  users,
		hub:    hub,
		logger: logger,
	}
}

// NoteView is the client-facing shape of a note. Owner and CanEdit let
// the client label shared notes and hide controls the user cannot use;
// SharedWith appears only on notes the user owns.
type NoteView struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	LastEdited time.Time `json:"lastEdited"`
	Owner      string    `json:"owner"`
	IsShared   bool      `json:"isShared"`
	CanEdit    bool      `json:"canEdit"`
	SharedWith []string  `json:"sharedWith,omitempty"`
}

func ownedView(note *models.Note, owner string, sharedWith []string) NoteView {
	return NoteView{
		ID:         note.ID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       note.TagList(),
		LastEdited: note.UpdatedAt,
		Owner:      owner,
		CanEdit:    true,
		SharedWith: sharedWith,
	}
}

func sharedView(note *models.Note, owner string, canEdit bool) NoteView {
	return NoteView{
		ID:         note.ID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       note.TagList(),
		LastEdited: note.UpdatedAt,
		Owner:      owner,
		IsShared:   true,
		CanEdit:    canEdit,
	}
}

type createRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type updateRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type shareRequest struct {
	Username string `json:"username" binding:"required"`
	CanEdit  bool   `json:"canEdit"`
}

// List returns the user's notes split into owned and shared sequences
// so the client can label provenance.
func (h *Handler) List(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	reqCtx := ctx.Request.Context()

	user, err := h.users.FindByID(reqCtx, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	ownedNotes, err := h.notes.ListOwned(reqCtx, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}
	owned := make([]NoteView, 0, len(ownedNotes))
	for i := range ownedNotes {
		sharedWith, err := h.shares.SharedWithUsernames(reqCtx, ownedNotes[i].ID)
		if err != nil {
			responses.FromError(ctx, err)
			return
		}
		owned = append(owned, ownedView(&ownedNotes[i], user.Username, sharedWith))
	}

	sharedNotes, err := h.shares.ListSharedWith(reqCtx, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}
	shared := make([]NoteView, 0, len(sharedNotes))
	for i := range sharedNotes {
		shared = append(shared, sharedView(&sharedNotes[i].Note, sharedNotes[i].OwnerUsername, sharedNotes[i].CanEdit))
	}

	ctx.JSON(http.StatusOK, gin.H{"owned": owned, "shared": shared})
}

func (h *Handler) Create(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)

	var req createRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "title is required")
		return
	}

	note, err := h.notes.Create(ctx.Request.Context(), userID, req.Title, req.Content, req.Tags)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	user, err := h.users.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	h.hub.Notify(userID)
	ctx.JSON(http.StatusCreated, ownedView(note, user.Username, nil))
}

func (h *Handler) Get(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	note, level, err := h.notes.Get(reqCtx, noteID, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}
	owner, err := h.users.FindByID(reqCtx, note.OwnerID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	if level == access.LevelOwner {
		sharedWith, err := h.shares.SharedWithUsernames(reqCtx, note.ID)
		if err != nil {
			responses.FromError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, ownedView(note, owner.Username, sharedWith))
		return
	}
	ctx.JSON(http.StatusOK, sharedView(note, owner.Username, level.CanEdit()))
}

func (h *Handler) Update(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	var req updateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.notes.Update(reqCtx, noteID, userID, store.NotePatch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	owner, err := h.users.FindByID(reqCtx, note.OwnerID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	h.notifyAudience(ctx, note)

	if note.OwnerID == userID {
		sharedWith, err := h.shares.SharedWithUsernames(reqCtx, note.ID)
		if err != nil {
			responses.FromError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, ownedView(note, owner.Username, sharedWith))
		return
	}
	ctx.JSON(http.StatusOK, sharedView(note, owner.Username, true))
}

func (h *Handler) Delete(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	// Capture the audience before the grants are cascade-deleted.
	note, _, err := h.notes.Get(reqCtx, noteID, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}
	audience, err := h.shares.Audience(reqCtx, note)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	if err := h.notes.Delete(reqCtx, noteID, userID); err != nil {
		responses.FromError(ctx, err)
		return
	}

	h.hub.Notify(audience...)
	ctx.Status(http.StatusNoContent)
}

func (h *Handler) Share(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	var req shareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "username is required")
		return
	}

	grant, err := h.shares.Share(ctx.Request.Context(), noteID, userID, req.Username, req.CanEdit)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	h.hub.Notify(userID, grant.GranteeID)
	ctx.JSON(http.StatusOK, gin.H{
		"message":    "note shared successfully",
		"sharedWith": req.Username,
	})
}

func (h *Handler) Unshare(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	username := ctx.Param("username")
	if err := h.shares.Unshare(reqCtx, noteID, userID, username); err != nil {
		responses.FromError(ctx, err)
		return
	}

	if grantee, err := h.users.FindByUsername(reqCtx, username); err == nil {
		h.hub.Notify(userID, grantee.ID)
	}
	ctx.Status(http.StatusNoContent)
}

// ListGrants lets the owner see who a note is shared with.
func (h *Handler) ListGrants(ctx *gin.Context) {
	userID, _ := auth.CurrentUser(ctx)
	noteID, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	grants, err := h.shares.ListGrants(ctx.Request.Context(), noteID, userID)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, grants)
}

func (h *Handler) notifyAudience(ctx *gin.Context, note *models.Note) {
	audience, err := h.shares.Audience(ctx.Request.Context(), note)
	if err != nil {
		// Notification is best-effort; the mutation already succeeded.
		h.logger.Warn("failed to resolve notification audience", "note", note.ID, "error", err)
		return
	}
	h.hub.Notify(audience...)
}

func parseNoteID(ctx *gin.Context) (uuid.UUID, bool) {
	noteID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		responses.Error(ctx, http.StatusBadRequest, "invalid note id")
		return uuid.Nil, false
	}
	return noteID, true
}
