package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/dto"
	"github.com/fadilmartias/resume-screener/internal/middleware"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/response"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
)

// ScreeningService is the part of the screening usecase the HTTP layer calls.
type ScreeningService interface {
	CreateJob(ctx context.Context, in usecase.JobInput) (*model.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error)
	ListJobs(ctx context.Context, page, pageSize int, activeOnly bool) ([]model.Job, int64, error)
	UpdateJob(ctx context.Context, id uuid.UUID, in usecase.JobInput) (*model.Job, int64, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error

	Submit(ctx context.Context, req usecase.SubmitRequest) (*model.Application, error)
	SubmitBatch(ctx context.Context, jobID uuid.UUID, files []usecase.Upload) (*usecase.BatchResult, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error)
	RankedCandidates(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.Application, int64, error)
	SearchApplicants(ctx context.Context, jobID uuid.UUID, query string, topK int) ([]usecase.SearchHit, error)
	BatchStatus(ctx context.Context, batchID uuid.UUID) (*usecase.BatchStatus, error)
	Reprocess(ctx context.Context, id uuid.UUID) error
	StatusCounts(ctx context.Context, jobID *uuid.UUID) (map[model.Status]int64, error)
}

type ScreeningHandler struct {
	uc          ScreeningService
	maxFileSize int64
}

func NewScreeningHandler(uc ScreeningService, maxFileSize int64) *ScreeningHandler {
	return &ScreeningHandler{uc: uc, maxFileSize: maxFileSize}
}

func (h *ScreeningHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/jobs", h.CreateJob)
	api.Get("/jobs", h.ListJobs)
	api.Get("/jobs/:id", h.GetJob)
	api.Patch("/jobs/:id", h.UpdateJob)
	api.Delete("/jobs/:id", h.DeleteJob)

	api.Post("/jobs/:id/applications", middleware.RateLimiter(20, time.Minute), h.Submit)
	api.Post("/jobs/:id/applications/batch", middleware.RateLimiter(5, time.Minute), h.SubmitBatch)
	api.Get("/jobs/:id/candidates", h.RankedCandidates)
	api.Get("/jobs/:id/search", h.Search)

	api.Get("/applications/:id", h.Result)
	api.Post("/applications/:id/reprocess", h.Reprocess)
	api.Get("/batches/:id", h.BatchStatus)
	api.Get("/stats", h.Stats)
}

func (h *ScreeningHandler) Submit(c *fiber.Ctx) error {
	jobID, err := parseID(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("resume")
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is required",
		}, err)
	}
	upload, err := h.readUpload(file)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "cannot read resume file",
		}, err)
	}

	app, err := h.uc.Submit(c.UserContext(), usecase.SubmitRequest{
		JobID:  jobID,
		Resume: upload,
		Name:   c.FormValue("name"),
		Email:  c.FormValue("email"),
		Phone:  c.FormValue("phone"),
	})
	if err != nil {
		return fail(c, "failed to submit application", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Application submitted",
		Data:    dto.NewApplicationDTO(app),
	})
}

func (h *ScreeningHandler) SubmitBatch(c *fiber.Ctx) error {
	jobID, err := parseID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["resumes"]) == 0 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "at least one resumes file is required",
		}, err)
	}

	uploads := make([]usecase.Upload, 0, len(form.File["resumes"]))
	for _, fh := range form.File["resumes"] {
		upload, err := h.readUpload(fh)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("cannot read file %s", fh.Filename),
			}, err)
		}
		uploads = append(uploads, upload)
	}

	res, err := h.uc.SubmitBatch(c.UserContext(), jobID, uploads)
	if err != nil {
		return fail(c, "failed to submit batch", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Batch submitted",
		Data: dto.BatchSubmitDTO{
			BatchID:      res.BatchID,
			Applications: dto.NewApplicationDTOs(res.Applications),
			Rejected:     res.Rejected,
		},
	})
}

func (h *ScreeningHandler) Result(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	app, err := h.uc.GetApplication(c.UserContext(), id)
	if err != nil {
		return fail(c, "application not found", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get application",
		Data:    dto.NewApplicationDTO(app),
	})
}

func (h *ScreeningHandler) Reprocess(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Reprocess(c.UserContext(), id); err != nil {
		return fail(c, "cannot reprocess application", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Application re-enqueued",
		Data:    fiber.Map{"id": id, "status": model.StatusPending},
	})
}

func (h *ScreeningHandler) RankedCandidates(c *fiber.Ctx) error {
	jobID, err := parseID(c)
	if err != nil {
		return err
	}
	page, pageSize := repository.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", 20))

	apps, total, err := h.uc.RankedCandidates(c.UserContext(), jobID, page, pageSize)
	if err != nil {
		return fail(c, "failed to list candidates", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get ranked candidates",
		Data:       dto.NewApplicationDTOs(apps),
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

func (h *ScreeningHandler) Search(c *fiber.Ctx) error {
	jobID, err := parseID(c)
	if err != nil {
		return err
	}
	hits, err := h.uc.SearchApplicants(c.UserContext(), jobID, c.Query("q"), c.QueryInt("top_k", 10))
	if err != nil {
		return fail(c, "search failed", err)
	}

	data := make([]dto.SearchHitDTO, 0, len(hits))
	for i := range hits {
		data = append(data, dto.SearchHitDTO{
			Similarity:  hits[i].Similarity,
			Application: dto.NewApplicationDTO(&hits[i].Application),
		})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success search applicants",
		Data:    data,
	})
}

func (h *ScreeningHandler) BatchStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	status, err := h.uc.BatchStatus(c.UserContext(), id)
	if err != nil {
		return fail(c, "batch not found", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get batch status",
		Data:    status,
	})
}

func (h *ScreeningHandler) Stats(c *fiber.Ctx) error {
	var jobID *uuid.UUID
	if raw := c.Query("job_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: "invalid job_id",
			}, err)
		}
		jobID = &id
	}
	counts, err := h.uc.StatusCounts(c.UserContext(), jobID)
	if err != nil {
		return fail(c, "failed to count applications", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get stats",
		Data:    counts,
	})
}

func (h *ScreeningHandler) readUpload(fh *multipart.FileHeader) (usecase.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return usecase.Upload{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxFileSize > 0 {
		// one byte over the limit is enough for the size check to reject it
		r = io.LimitReader(f, h.maxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return usecase.Upload{}, err
	}
	return usecase.Upload{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// parseID reads the :id route param. The returned *fiber.Error is rendered
// by the app's error handler.
func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id "+strconv.Quote(c.Params("id")))
	}
	return id, nil
}

// fail maps usecase errors onto HTTP status codes. Client errors carry the
// error text in the message.
func fail(c *fiber.Ctx, message string, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidState):
		code = fiber.StatusConflict
	}
	if code < fiber.StatusInternalServerError {
		message = message + ": " + err.Error()
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
}
