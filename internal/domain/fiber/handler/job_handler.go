package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fadilmartias/resume-screener/internal/dto"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/response"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
)

func (h *ScreeningHandler) CreateJob(c *fiber.Ctx) error {
	var req dto.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	errs := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		errs["title"] = "title is required"
	}
	if strings.TrimSpace(req.Requirements) == "" {
		errs["requirements"] = "requirements are required"
	}
	if len(errs) > 0 {
		formErr := util.NewFormError("validation failed", errs)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: formErr.Message,
		}, formErr)
	}

	job, err := h.uc.CreateJob(c.UserContext(), jobInput(req))
	if err != nil {
		return fail(c, "failed to create job", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Job created",
		Data:    dto.NewJobDTO(job),
	})
}

func (h *ScreeningHandler) ListJobs(c *fiber.Ctx) error {
	page, pageSize := repository.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	jobs, total, err := h.uc.ListJobs(c.UserContext(), page, pageSize, c.QueryBool("active", false))
	if err != nil {
		return fail(c, "failed to list jobs", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get jobs",
		Data:       dto.NewJobDTOs(jobs),
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

func (h *ScreeningHandler) GetJob(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	job, err := h.uc.GetJob(c.UserContext(), id)
	if err != nil {
		return fail(c, "job not found", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    dto.NewJobDTO(job),
	})
}

func (h *ScreeningHandler) UpdateJob(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	job, staled, err := h.uc.UpdateJob(c.UserContext(), id, jobInput(req))
	if err != nil {
		return fail(c, "failed to update job", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Job updated",
		Data:    dto.NewJobDTO(job),
		Meta:    fiber.Map{"stale_scores": staled},
	})
}

func (h *ScreeningHandler) DeleteJob(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.uc.DeleteJob(c.UserContext(), id); err != nil {
		return fail(c, "failed to delete job", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Job deleted",
	})
}

func jobInput(req dto.JobRequest) usecase.JobInput {
	return usecase.JobInput{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		IsActive:     req.IsActive,
		OwnerID:      req.OwnerID,
	}
}
