package http

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/blob"
	"github.com/beesmart/beesmart/internal/entities"
)

const defaultMaxPhotoSize = 10 << 20

// photoOwner binds a blob owner prefix to the rows that reference photos.
type photoOwner struct {
	entity string
	ref    func(ctx context.Context, id uint) (ref *string, found bool, err error)
	setRef func(ctx context.Context, id uint, ref *string) error
}

func apiaryPhotoOwner(store ApiaryStore) photoOwner {
	return photoOwner{
		entity: entities.EntityApiary,
		ref: func(ctx context.Context, id uint) (*string, bool, error) {
			a, err := store.GetByID(ctx, id)
			if err != nil || a == nil {
				return nil, false, err
			}
			return a.PhotoRef, true, nil
		},
		setRef: store.SetPhotoRef,
	}
}

func hivePhotoOwner(store HiveStore) photoOwner {
	return photoOwner{
		entity: entities.EntityHive,
		ref: func(ctx context.Context, id uint) (*string, bool, error) {
			h, err := store.GetByID(ctx, id)
			if err != nil || h == nil {
				return nil, false, err
			}
			return h.PhotoRef, true, nil
		},
		setRef: store.SetPhotoRef,
	}
}

// PhotosController stores apiary and hive photos in the blob store and
// keeps photo_ref pointing at them.
type PhotosController struct {
	store      blob.Store
	owners     map[string]photoOwner
	auditor    Auditor
	log        logrus.FieldLogger
	maxSize    int64
	presignTTL time.Duration
}

func NewPhotosController(store blob.Store, apiaries ApiaryStore, hives HiveStore, auditor Auditor, maxSize int64, presignTTL time.Duration, log logrus.FieldLogger) *PhotosController {
	if maxSize <= 0 {
		maxSize = defaultMaxPhotoSize
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &PhotosController{
		store: store,
		owners: map[string]photoOwner{
			blob.OwnerApiary: apiaryPhotoOwner(apiaries),
			blob.OwnerHive:   hivePhotoOwner(hives),
		},
		auditor:    auditor,
		log:        log.WithField("controller", "photos"),
		maxSize:    maxSize,
		presignTTL: presignTTL,
	}
}

// RegisterRoutes mounts the photo endpoints under /apiaries/:id/photo and
// /hives/:id/photo.
func (pc *PhotosController) RegisterRoutes(group *gin.RouterGroup) {
	for owner := range pc.owners {
		base := "/" + owner + "/:id/photo"
		group.PUT(base, pc.handler(owner, pc.Upload))
		group.GET(base, pc.handler(owner, pc.Download))
		group.GET(base+"/url", pc.handler(owner, pc.URL))
		group.DELETE(base, pc.handler(owner, pc.Delete))
	}
}

type photoHandler func(c *gin.Context, owner string, id uint, current *string)

// handler resolves the owner row before calling h.
func (pc *PhotosController) handler(owner string, h photoHandler) gin.HandlerFunc {
	o := pc.owners[owner]
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		current, found, err := o.ref(c.Request.Context(), id)
		if err != nil {
			respondInternalError(c, pc.log, err, "get "+o.entity)
			return
		}
		if !found {
			respondNotFound(c, o.entity)
			return
		}
		h(c, owner, id, current)
	}
}

// Upload stores the multipart "photo" file and points photo_ref at it.
// A previous photo under a different key is removed.
// PUT /api/{apiaries|hives}/:id/photo
func (pc *PhotosController) Upload(c *gin.Context, owner string, id uint, current *string) {
	limit := pc.maxSize + 1<<20
	if c.Request.ContentLength > limit {
		respondError(c, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		respondBadRequest(c, "photo file is required")
		return
	}
	if fh.Size > pc.maxSize {
		respondError(c, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondInternalError(c, pc.log, err, "open upload")
		return
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusUnsupportedMediaType, "photo must be an image")
		return
	}

	o := pc.owners[owner]
	userID := auth.GetUserID(c)
	ctx := c.Request.Context()
	key := blob.PhotoKey(owner, id, path.Base(fh.Filename))

	info, err := pc.store.Put(ctx, key, br, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"original-name": fh.Filename},
	})
	if err != nil {
		pc.audit(userID, "upload", o.entity, id, key, err)
		respondInternalError(c, pc.log, err, "store photo")
		return
	}
	if err := o.setRef(ctx, id, &key); err != nil {
		pc.audit(userID, "upload", o.entity, id, key, err)
		respondStoreError(c, pc.log, err, "set photo ref")
		return
	}

	if current != nil && *current != key && ownsKey(owner, id, *current) {
		if _, err := pc.store.Delete(ctx, *current); err != nil {
			pc.log.WithError(err).WithField("key", *current).Warn("failed to remove replaced photo")
		}
	}

	pc.audit(userID, "upload", o.entity, id, key, nil)
	respondCreated(c, gin.H{"photo_ref": key, "photo": info})
}

// Download streams the current photo.
// GET /api/{apiaries|hives}/:id/photo
func (pc *PhotosController) Download(c *gin.Context, owner string, id uint, current *string) {
	if current == nil {
		respondNotFound(c, "photo")
		return
	}

	info, rc, err := pc.store.Get(c.Request.Context(), *current)
	if errors.Is(err, blob.ErrNotFound) {
		respondNotFound(c, "photo")
		return
	}
	if err != nil {
		respondInternalError(c, pc.log, err, "get photo")
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

// URL returns a time-limited URL for the current photo. Stores that cannot
// presign get the download endpoint instead.
// GET /api/{apiaries|hives}/:id/photo/url
func (pc *PhotosController) URL(c *gin.Context, owner string, id uint, current *string) {
	if current == nil {
		respondNotFound(c, "photo")
		return
	}

	url, err := pc.store.PresignURL(c.Request.Context(), *current, pc.presignTTL)
	switch {
	case errors.Is(err, blob.ErrUnsupported):
		c.JSON(http.StatusOK, gin.H{"url": c.Request.URL.Path[:len(c.Request.URL.Path)-len("/url")], "presigned": false})
	case err != nil:
		respondInternalError(c, pc.log, err, "presign photo")
	default:
		c.JSON(http.StatusOK, gin.H{
			"url":        url,
			"presigned":  true,
			"expires_at": time.Now().Add(pc.presignTTL).UTC().Format(time.RFC3339),
		})
	}
}

// Delete clears photo_ref and removes the blob.
// DELETE /api/{apiaries|hives}/:id/photo
func (pc *PhotosController) Delete(c *gin.Context, owner string, id uint, current *string) {
	if current == nil {
		respondNotFound(c, "photo")
		return
	}

	o := pc.owners[owner]
	ctx := c.Request.Context()
	if err := o.setRef(ctx, id, nil); err != nil {
		respondStoreError(c, pc.log, err, "clear photo ref")
		return
	}
	var err error
	if ownsKey(owner, id, *current) {
		if _, err = pc.store.Delete(ctx, *current); err != nil {
			pc.log.WithError(err).WithField("key", *current).Warn("failed to remove photo")
		}
	}

	pc.audit(auth.GetUserID(c), "delete", o.entity, id, *current, err)
	respondSuccess(c, "photo deleted")
}

// ownsKey reports whether key lives under the photo prefix of owner/id.
// Blobs outside it belong to another row and are never removed here.
func ownsKey(owner string, id uint, key string) bool {
	return strings.HasPrefix(key, blob.PhotoPrefix(owner, id))
}

func (pc *PhotosController) audit(userID uint, action, entity string, id uint, key string, err error) {
	if pc.auditor != nil {
		pc.auditor.LogPhoto(userID, action, entity, id, key, err)
	}
}
