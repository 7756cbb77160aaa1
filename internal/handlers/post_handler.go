package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"sahayak/internal/middleware"
	"sahayak/internal/models"
	"sahayak/internal/services"
	"sahayak/internal/utils"
	"sahayak/internal/validators"
	"sahayak/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxMultipartMemory is how much of a submission is buffered in memory before
// spilling to temp files.
const maxMultipartMemory = 32 << 20

type PostHandler struct {
	issueService services.IssueService
	logger       *logger.Logger
}

func NewPostHandler(issueService services.IssueService, log *logger.Logger) *PostHandler {
	return &PostHandler{
		issueService: issueService,
		logger:       log,
	}
}

// SubmitIssue accepts a multipart help request with optional media and voice
// attachments.
func (h *PostHandler) SubmitIssue(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	err := c.Request.ParseMultipartForm(maxMultipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		utils.BadRequestResponse(c, "Invalid multipart form: "+err.Error())
		return
	}
	form := c.Request.MultipartForm
	if form != nil {
		defer form.RemoveAll()
	}

	location, validation := parseLocation(c.PostForm("lat"), c.PostForm("lng"))
	description := c.PostForm("description")
	mediaHeaders := formFiles(form, "media")
	voiceHeaders := formFiles(form, "voice")
	if len(validation) == 0 {
		input := validators.SubmitIssueInput{
			Location:    []float64{location.Lng, location.Lat},
			Description: description,
			Media:       attachments(mediaHeaders, false),
			Voice:       attachments(voiceHeaders, true),
		}
		if errs := validators.ValidateStruct(input); len(errs) > 0 {
			validation = errs.Fields()
		}
	}
	if len(validation) > 0 {
		utils.ValidationErrorResponse(c, validation)
		return
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	open := func(headers []*multipart.FileHeader) ([]services.MediaFile, error) {
		files := make([]services.MediaFile, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			opened = append(opened, f)
			files = append(files, services.MediaFile{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}
		return files, nil
	}

	media, err := open(mediaHeaders)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "FILE_READ_FAILED", utils.ErrFileUploadFailed)
		return
	}
	voice, err := open(voiceHeaders)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "FILE_READ_FAILED", utils.ErrFileUploadFailed)
		return
	}

	issue, err := h.issueService.SubmitIssue(c.Request.Context(), &services.SubmitIssueRequest{
		UserID:      userID,
		Description: description,
		Location:    location,
		Media:       media,
		Voice:       voice,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidLocation):
			utils.ValidationErrorResponse(c, map[string]string{"location": utils.ErrInvalidCoordinate})
		case errors.Is(err, services.ErrDescriptionTooLong):
			utils.ValidationErrorResponse(c, map[string]string{"description": err.Error()})
		default:
			h.logger.WithContext(c.Request.Context()).WithError(err).Error("Issue submission failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "SUBMISSION_FAILED", utils.ErrSubmissionFailed)
		}
		return
	}

	utils.MessageDataResponse(c, "Issue submitted successfully", issue)
}

// ListPosts returns every post newest first as a bare array.
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.issueService.ListPosts(c.Request.Context())
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to list posts")
		utils.ErrorResponse(c, http.StatusInternalServerError, "POSTS_FETCH_FAILED", "Failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []*models.PostView{}
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) AcceptHelp(c *gin.Context) {
	h.transition(c, "Failed to accept help request", h.issueService.AcceptHelp)
}

func (h *PostHandler) ResponderResolve(c *gin.Context) {
	h.transition(c, "Failed to mark as resolved", h.issueService.ResponderMarkResolved)
}

// Resolve closes the post. Only the issuer may do this.
func (h *PostHandler) Resolve(c *gin.Context) {
	h.transition(c, "Failed to resolve post", h.issueService.ResolveAsIssuer)
}

func (h *PostHandler) transition(c *gin.Context, failure string, op func(ctx context.Context, issueID, userID primitive.ObjectID) error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "post")
		return
	}

	if err := op(c.Request.Context(), issueID, userID); err != nil {
		h.writeLifecycleError(c, err, failure)
		return
	}
	utils.AckResponse(c)
}

func (h *PostHandler) writeLifecycleError(c *gin.Context, err error, failure string) {
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", utils.ErrIssueNotFound)
	case errors.Is(err, services.ErrAlreadyAccepted):
		utils.ErrorResponse(c, http.StatusBadRequest, "ALREADY_ACCEPTED", err.Error())
	case errors.Is(err, services.ErrNotAResponder):
		utils.ErrorResponse(c, http.StatusBadRequest, "NOT_A_RESPONDER", err.Error())
	case errors.Is(err, services.ErrIssueResolved):
		utils.ErrorResponse(c, http.StatusBadRequest, "ISSUE_RESOLVED", err.Error())
	case errors.Is(err, services.ErrNotIssuer):
		utils.ForbiddenResponse(c, err.Error())
	default:
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(failure)
		utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", failure)
	}
}

func parseLocation(latRaw, lngRaw string) (models.GeoPoint, map[string]string) {
	validation := map[string]string{}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		validation["lat"] = "lat must be a number"
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		validation["lng"] = "lng must be a number"
	}
	return models.GeoPoint{Lat: lat, Lng: lng}, validation
}

// formFiles reads both "field" and "field[]" since clients disagree on the name.
func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File[field]...)
	return append(files, form.File[field+"[]"]...)
}

func attachments(headers []*multipart.FileHeader, voice bool) []validators.Attachment {
	out := make([]validators.Attachment, 0, len(headers))
	for _, fh := range headers {
		out = append(out, validators.Attachment{Filename: fh.Filename, Size: fh.Size, Voice: voice})
	}
	return out
}
