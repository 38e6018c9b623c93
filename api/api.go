package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pbudner/frictionminer/algorithms"
	"github.com/pbudner/frictionminer/engine"
	"github.com/pbudner/frictionminer/normalizer"
	"github.com/pbudner/frictionminer/parsers"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/vmihailenco/msgpack/v5"
)

type JSON map[string]interface{}

const MIMEApplicationMsgpack = "application/msgpack"

func RegisterApiHandlers(g *echo.Group, version, gitCommit string, p *pipeline.Pipeline) {
	v1 := g.Group("/v1")
	v1.GET("/", func(c echo.Context) error {
		build := gitCommit
		if len(build) > 6 {
			build = build[:6]
		}
		return c.JSON(http.StatusOK, JSON{
			"message": "Hello, world! Welcome to FrictionMiner API!",
			"version": version,
			"build":   build,
		})
	})

	v1.GET("/detectors", func(c echo.Context) error {
		return c.JSON(http.StatusOK, JSON{
			"active":     p.Engine().Detectors(),
			"registered": algorithms.RegisteredDetectors(),
		})
	})

	v1.POST("/analyze", func(c echo.Context) error {
		format, err := requestFormat(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, JSON{
				"error": err.Error(),
			})
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, JSON{
				"error": err.Error(),
			})
		}

		name := c.QueryParam("name")
		if name == "" {
			name = "upload." + string(format)
		}

		result, err := p.RunBytes(name, format, body)
		if err != nil {
			return c.JSON(statusFor(err), JSON{
				"error": err.Error(),
			})
		}

		summary := result.Summary()
		if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
			b, err := msgpack.Marshal(&summary)
			if err != nil {
				return err
			}
			return c.Blob(http.StatusOK, MIMEApplicationMsgpack, b)
		}

		return c.JSON(http.StatusOK, summary)
	})
}

// requestFormat prefers the format query parameter and falls back to the
// content type.
func requestFormat(c echo.Context) (parsers.Format, error) {
	if raw := c.QueryParam("format"); raw != "" {
		return parsers.ParseFormat(raw)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON), strings.HasPrefix(contentType, "application/x-ndjson"):
		return parsers.FormatJSON, nil
	case strings.HasPrefix(contentType, "text/tab-separated-values"):
		return parsers.FormatTSV, nil
	case strings.HasPrefix(contentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return parsers.FormatXLSX, nil
	default:
		return parsers.FormatCSV, nil
	}
}

func statusFor(err error) int {
	var (
		ingestionErr *parsers.IngestionError
		schemaErr    *normalizer.SchemaValidationError
		detectorErr  *engine.DetectorError
	)
	switch {
	case errors.As(err, &ingestionErr):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &detectorErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
