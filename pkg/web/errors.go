package web

import (
	"errors"

	api "github.com/callmelater/operion-callmelater/pkg/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/nodes/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/parameters"
	"github.com/callmelater/operion-callmelater/pkg/registry"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleNodeError maps action node failures to problem responses.
func handleNodeError(c fiber.Ctx, err error) error {
	var (
		apiErr   *api.APIError
		paramErr *callmelater.ParameterError
		opErr    *callmelater.OperationError
	)

	switch {
	case errors.As(err, &paramErr), errors.Is(err, parameters.ErrWrongType):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("parameter_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.As(err, &opErr):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("operation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, callmelater.ErrInvalidAction), errors.Is(err, registry.ErrInvalidConfig):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, errNoCredentials):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("credentials_missing").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	case errors.As(err, &apiErr):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("callmelater_api_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
