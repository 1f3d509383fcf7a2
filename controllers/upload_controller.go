// controllers/upload_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/lifecycle"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
	"github.com/rooftrack/rooftrack_backend/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxPhotosPerUpload caps one multipart request; the app batches bigger sets.
const maxPhotosPerUpload = 10

// dealPhotoFields maps the photo set name to the deal array it lands in.
var dealPhotoFields = map[string]string{
	"inspection": "inspectionPhotos",
	"install":    "installPhotos",
	"completion": "completionPhotos",
}

// dealDocumentFields maps a document kind to the URL field the app reads it
// from. Kinds outside this map only land in the documents array.
var dealDocumentFields = map[string]string{
	"contract":       "contractUrl",
	"permit":         "permitUrl",
	"loss_statement": "lossStatementUrl",
	"supplement":     "supplementUrl",
}

// UploadController handles media uploads for deals, pins and rep profiles.
// Install photos, completion photos and the signed contract are lifecycle
// prerequisites, so deal uploads re-run the engine after the write.
type UploadController struct {
	db          *mongo.Client
	deals       *repositories.DealRepository
	pins        *repositories.PinRepository
	reps        *repositories.RepRepository
	users       *repositories.UserRepository
	commissions *repositories.CommissionRepository
	hub         *websocket.Hub
	logger      *log.Logger
}

// NewUploadController creates a new upload controller
func NewUploadController(db *mongo.Client, hub *websocket.Hub) *UploadController {
	return &UploadController{
		db:          db,
		deals:       repositories.NewDealRepository(db),
		pins:        repositories.NewPinRepository(db),
		reps:        repositories.NewRepRepository(db),
		users:       repositories.NewUserRepository(db),
		commissions: repositories.NewCommissionRepository(db),
		hub:         hub,
		logger:      log.New(os.Stdout, "[UPLOAD] ", log.LstdFlags),
	}
}

// readMultipartFile pulls the bytes out of one multipart part.
func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// reapplyLifecycle re-runs the engine after a media write. Install photos can
// finish the installed step and completion photos the final one, so a deal
// may advance without any field edit.
func (uc *UploadController) reapplyLifecycle(ctx context.Context, deal *models.Deal, ownerRepIDs []primitive.ObjectID) (*models.Deal, error) {
	prev := deal.Status
	status, patch := lifecycle.Apply(deal, time.Now())
	if len(patch) == 0 {
		return deal, nil
	}

	updated, err := uc.deals.UpdateSet(ctx, deal.ID, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("deal %s not found", deal.ID.Hex())
		}
		return nil, err
	}

	uc.logger.Printf("Deal %s advanced from %s to %s after upload", deal.ID.Hex(), prev, status)
	notifyDealAdvance(ctx, uc.db, uc.hub, uc.reps, updated, ownerRepIDs)
	return updated, nil
}

// UploadDealPhotos stores a batch of photos on a deal. The set field selects
// the array: inspection (the default), install or completion.
func (uc *UploadController) UploadDealPhotos(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	deal, err := uc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, uc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid form data",
		})
	}

	set := c.FormValue("set")
	if set == "" {
		set = "inspection"
	}
	field, ok := dealPhotoFields[set]
	if !ok {
		return utils.RespondError(c, apperrors.Validation("set"))
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return utils.RespondError(c, apperrors.Validation("photos"))
	}
	if len(files) > maxPhotosPerUpload {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Too many files, upload at most %d photos per request", maxPhotosPerUpload),
		})
	}

	// Reject the whole batch before writing any of it.
	for _, file := range files {
		if err := utils.ValidateFileType(file.Filename, "image"); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		data, err := readMultipartFile(file)
		if err != nil {
			uc.logger.Printf("Error reading upload %s: %v", file.Filename, err)
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Could not read uploaded file " + file.Filename,
			})
		}

		filename := id.Hex() + "_" + uuid.New().String() + filepath.Ext(file.Filename)
		url, err := utils.UploadFileToPath(data, filename, "image", "deals")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}

		if _, thumbErr := utils.GenerateImageThumbnail(url); thumbErr != nil {
			uc.logger.Printf("Thumbnail for %s failed: %v", filename, thumbErr)
		}
		urls = append(urls, url)
	}

	updated, err := uc.deals.PushMedia(ctx, id, field, urls)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	uc.logger.Printf("Deal %s: %d %s photos uploaded", id.Hex(), len(urls), set)

	updated, err = uc.reapplyLifecycle(ctx, updated, resource.OwnerRepIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("%d photos uploaded", len(urls)),
		Data: map[string]interface{}{
			"urls": urls,
			"deal": dealWithProgress{
				Deal:     *updated,
				Progress: models.ProgressFor(updated.Status),
			},
		},
	})
}

// UploadDealDocument stores one document on a deal and files its URL under
// the matching field. Contracts matter to the engine: the closeout step
// requires a stored contract URL.
func (uc *UploadController) UploadDealDocument(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	deal, err := uc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, uc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No file uploaded or invalid file",
		})
	}

	kind := c.FormValue("kind")
	if kind == "" {
		kind = "other"
	}
	urlField, known := dealDocumentFields[kind]
	if !known && kind != "other" {
		return utils.RespondError(c, apperrors.Validation("kind"))
	}

	if err := utils.ValidateFileType(file.Filename, "document"); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		uc.logger.Printf("Error reading upload %s: %v", file.Filename, err)
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Could not read uploaded file " + file.Filename,
		})
	}

	filename := id.Hex() + "_" + kind + "_" + uuid.New().String() + filepath.Ext(file.Filename)
	url, err := utils.UploadFileToPath(data, filename, "document", "documents")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	updated, err := uc.deals.PushMedia(ctx, id, "documents", []string{url})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if urlField != "" {
		updated, err = uc.deals.UpdateSet(ctx, id, bson.M{urlField: url})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
			}
			return utils.RespondError(c, err)
		}
	}
	uc.logger.Printf("Deal %s: %s document uploaded", id.Hex(), kind)

	updated, err = uc.reapplyLifecycle(ctx, updated, resource.OwnerRepIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Document uploaded successfully",
		Data: map[string]interface{}{
			"url":  url,
			"kind": kind,
			"deal": dealWithProgress{
				Deal:     *updated,
				Progress: models.ProgressFor(updated.Status),
			},
		},
	})
}

// DeleteDealDocument removes one stored document URL from a deal. Admin only;
// the file itself stays on disk.
func (uc *UploadController) DeleteDealDocument(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	url := c.QueryParam("url")
	if url == "" {
		return utils.RespondError(c, apperrors.Validation("url"))
	}

	deal, err := uc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanDelete(caller, access.Resource{Kind: access.ResourceDeal}); err != nil {
		return utils.RespondError(c, err)
	}

	updated, err := uc.deals.PullMedia(ctx, id, "documents", url)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	// Clear any URL field still pointing at the removed document.
	patch := bson.M{}
	for kind, field := range dealDocumentFields {
		var current string
		switch kind {
		case "contract":
			current = deal.ContractURL
		case "permit":
			current = deal.PermitURL
		case "loss_statement":
			current = deal.LossStatementURL
		case "supplement":
			current = deal.SupplementURL
		}
		if current == url {
			patch[field] = ""
		}
	}
	if len(patch) > 0 {
		updated, err = uc.deals.UpdateSet(ctx, id, patch)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
			}
			return utils.RespondError(c, err)
		}
	}
	uc.logger.Printf("Deal %s: document removed by admin %s", id.Hex(), caller.UserID.Hex())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Document removed",
		Data: dealWithProgress{
			Deal:     *updated,
			Progress: models.ProgressFor(updated.Status),
		},
	})
}

// UploadDealVideo stores the walkthrough video reps shoot during inspection.
// One per deal; a new upload replaces the previous URL.
func (uc *UploadController) UploadDealVideo(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	deal, err := uc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, uc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	file, err := c.FormFile("video")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No file uploaded or invalid file",
		})
	}

	if err := utils.ValidateFileType(file.Filename, "video"); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		uc.logger.Printf("Error reading upload %s: %v", file.Filename, err)
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Could not read uploaded file " + file.Filename,
		})
	}

	filename := id.Hex() + "_" + uuid.New().String() + filepath.Ext(file.Filename)
	url, err := utils.UploadFileToPath(data, filename, "video", "deals")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	thumbnailURL := ""
	if thumb, thumbErr := utils.GenerateVideoThumbnail(url); thumbErr != nil {
		uc.logger.Printf("Video thumbnail for deal %s failed: %v", id.Hex(), thumbErr)
	} else {
		thumbnailURL = thumb
	}

	if _, err := uc.deals.UpdateSet(ctx, id, bson.M{"inspectionVideoUrl": url}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	uc.logger.Printf("Deal %s: inspection video uploaded", id.Hex())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Video uploaded successfully",
		Data: map[string]interface{}{
			"videoUrl":     url,
			"thumbnailUrl": thumbnailURL,
		},
	})
}

// UploadPinPhotos attaches door photos to a canvassing pin. Thumbnails keep
// the map light.
func (uc *UploadController) UploadPinPhotos(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	pin, err := uc.pins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanMutate(caller, pinResource(pin)); err != nil {
		return utils.RespondError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid form data",
		})
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return utils.RespondError(c, apperrors.Validation("photos"))
	}
	if len(files) > maxPhotosPerUpload {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Too many files, upload at most %d photos per request", maxPhotosPerUpload),
		})
	}

	for _, file := range files {
		if err := utils.ValidateFileType(file.Filename, "image"); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		data, err := readMultipartFile(file)
		if err != nil {
			uc.logger.Printf("Error reading upload %s: %v", file.Filename, err)
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Could not read uploaded file " + file.Filename,
			})
		}

		filename := id.Hex() + "_" + uuid.New().String() + filepath.Ext(file.Filename)
		url, err := utils.UploadFileToPath(data, filename, "image", "pins")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}

		if _, thumbErr := utils.GenerateImageThumbnail(url); thumbErr != nil {
			uc.logger.Printf("Thumbnail for %s failed: %v", filename, thumbErr)
		}
		urls = append(urls, url)
	}

	updated, err := uc.pins.PushPhotos(ctx, id, urls)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	uc.logger.Printf("Pin %s: %d photos uploaded", id.Hex(), len(urls))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("%d photos uploaded", len(urls)),
		Data: map[string]interface{}{
			"urls": urls,
			"pin":  updated,
		},
	})
}

// UploadRepPhoto sets a rep's profile photo. Admins can set anyone's; reps
// only their own.
func (uc *UploadController) UploadRepPhoto(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	rep, err := uc.reps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if caller.Role != access.RoleAdmin && caller.RepID != rep.ID {
		return utils.RespondError(c, apperrors.Forbidden("you can only change your own photo"))
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No file uploaded or invalid file",
		})
	}

	if err := utils.ValidateFileType(file.Filename, "image"); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		uc.logger.Printf("Error reading upload %s: %v", file.Filename, err)
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Could not read uploaded file " + file.Filename,
		})
	}

	filename := id.Hex() + "_" + uuid.New().String() + filepath.Ext(file.Filename)
	url, err := utils.UploadFileToPath(data, filename, "image", "reps")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	updated, err := uc.reps.UpdateSet(ctx, id, bson.M{"photoUrl": url})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	// Mirror onto the login account so avatars match everywhere.
	if !rep.UserID.IsZero() {
		if err := uc.users.UpdateProfilePicture(ctx, rep.UserID, url); err != nil {
			uc.logger.Printf("Profile picture sync for user %s failed: %v", rep.UserID.Hex(), err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Photo uploaded successfully",
		Data: map[string]interface{}{
			"photoUrl": url,
			"rep":      updated,
		},
	})
}
