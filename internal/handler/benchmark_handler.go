package handler

import (
	"quizbench/internal/config"
	"quizbench/internal/domain"
	"quizbench/internal/dto"
	"quizbench/internal/logger"
	"quizbench/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BenchmarkHandler handles quiz, model and run HTTP requests.
type BenchmarkHandler struct {
	service  service.BenchmarkService
	catalog  *config.ModelCatalog
	useMocks bool
}

// NewBenchmarkHandler creates a new BenchmarkHandler instance
func NewBenchmarkHandler(svc service.BenchmarkService, catalog *config.ModelCatalog, useMocks bool) *BenchmarkHandler {
	return &BenchmarkHandler{
		service:  svc,
		catalog:  catalog,
		useMocks: useMocks,
	}
}

// RegisterRoutes mounts the handler under the given router group.
func (h *BenchmarkHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/models", h.ListModels)
	api.Post("/quizzes", h.UploadQuiz)
	api.Get("/quizzes", h.ListQuizzes)
	api.Get("/quizzes/:id", h.GetQuiz)
	api.Post("/runs", h.StartRun)
	api.Get("/runs/:id", h.GetRun)
	api.Get("/runs/:id/results", h.GetRunResults)
}

// ListModels handles GET /api/models
func (h *BenchmarkHandler) ListModels(c *fiber.Ctx) error {
	resp := dto.ModelCatalogResponse{
		Groups: h.catalog.ModelGroups,
	}
	for _, m := range h.catalog.Models {
		resp.Models = append(resp.Models, dto.ModelResponse{
			ID:          m.ID,
			Provider:    m.Provider,
			Model:       m.Model,
			Description: m.Description,
			Available:   m.Available(h.useMocks),
		})
	}
	return c.JSON(resp)
}

// UploadQuiz handles POST /api/quizzes. The body is the raw quiz YAML.
func (h *BenchmarkHandler) UploadQuiz(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return domain.NewInvalidInputError("request body must contain quiz YAML")
	}

	def, err := h.service.RegisterQuiz(c.Context(), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.QuizResponse{
		ID:        def.ID,
		Title:     def.Title,
		Questions: len(def.Questions),
		Outcomes:  len(def.Outcomes),
	})
}

// ListQuizzes handles GET /api/quizzes
func (h *BenchmarkHandler) ListQuizzes(c *fiber.Ctx) error {
	infos, err := h.service.ListQuizzes(c.Context())
	if err != nil {
		return err
	}
	resp := make([]dto.QuizInfoResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, dto.QuizInfoResponse{
			ID:        info.ID,
			Title:     info.Title,
			CreatedAt: info.CreatedAt,
		})
	}
	return c.JSON(resp)
}

// GetQuiz handles GET /api/quizzes/:id
func (h *BenchmarkHandler) GetQuiz(c *fiber.Ctx) error {
	def, err := h.service.GetQuiz(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.QuizResponse{
		ID:        def.ID,
		Title:     def.Title,
		Questions: len(def.Questions),
		Outcomes:  len(def.Outcomes),
	})
}

// StartRun handles POST /api/runs. The run executes in the background;
// clients poll GET /api/runs/:id and fetch results once it completes.
func (h *BenchmarkHandler) StartRun(c *fiber.Ctx) error {
	var req dto.StartRunRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "failed to parse request body", err)
	}
	if req.QuizID == "" {
		return domain.NewInvalidInputError("quiz_id is required")
	}

	modelIDs, err := h.resolveModels(&req)
	if err != nil {
		return err
	}

	logger.Get().Info("Run requested",
		zap.String("quiz_id", req.QuizID),
		zap.Strings("models", modelIDs),
	)

	runID, err := h.service.StartRunAsync(c.Context(), req.QuizID, modelIDs, req.Settings)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.RunStartedResponse{
		RunID:  runID,
		QuizID: req.QuizID,
		Status: string(domain.RunStatusQueued),
		Models: modelIDs,
	})
}

// GetRun handles GET /api/runs/:id
func (h *BenchmarkHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.service.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.RunResponse{
		RunID:     run.RunID,
		QuizID:    run.QuizID,
		Status:    string(run.Status),
		Models:    run.Models,
		CreatedAt: run.CreatedAt,
	})
}

// GetRunResults handles GET /api/runs/:id/results
func (h *BenchmarkHandler) GetRunResults(c *fiber.Ctx) error {
	runID := c.Params("id")
	records, outcomes, err := h.service.GetRunResults(c.Context(), runID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRunResultsResponse(runID, records, outcomes))
}

// resolveModels turns the request's model selection into catalog ids.
// An explicit model list wins over a group name; with neither, every
// available model runs.
func (h *BenchmarkHandler) resolveModels(req *dto.StartRunRequest) ([]string, error) {
	if len(req.Models) > 0 {
		return req.Models, nil
	}
	if req.Group != "" {
		models, err := h.catalog.AvailableByGroup(req.Group, h.useMocks)
		if err != nil {
			return nil, domain.NewInvalidInputError(err.Error())
		}
		if len(models) == 0 {
			return nil, domain.NewInvalidInputError("no available models in group " + req.Group)
		}
		return modelIDs(models), nil
	}
	available := h.catalog.AvailableModels(h.useMocks)
	if len(available) == 0 {
		return nil, domain.NewConfigError("no models are available; check API key environment variables")
	}
	return modelIDs(available), nil
}

func modelIDs(models []*config.ModelConfig) []string {
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}
