// Package server exposes card rendering over HTTP and websocket.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/weather-bot/meow/internal/config"
	"github.com/weather-bot/meow/internal/fit"
	"github.com/weather-bot/meow/internal/imageio"
	"github.com/weather-bot/meow/internal/layout"
	"github.com/weather-bot/meow/internal/logger"
	"github.com/weather-bot/meow/internal/output"
	"github.com/weather-bot/meow/internal/weather"
)

type Server struct {
	echo     *echo.Echo
	renderer *layout.Renderer
	cfg      *config.Config
	fetcher  *imageio.Fetcher
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func New(renderer *layout.Renderer, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	log := logger.Module("server")

	s := &Server{
		echo:     echo.New(),
		renderer: renderer,
		cfg:      cfg,
		fetcher:  imageio.NewFetcher(cfg.GetFetchTimeout(), cfg.Fetch.Retries, log),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 64 << 10},
		log:      log,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Recover())
	e.Use(s.requestLogger)
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", max(cfg.Server.MaxUploadMB, 1))))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "meow"})
	})

	v1 := e.Group("/api/v1")
	v1.GET("/templates", s.listTemplates)
	v1.POST("/render", s.render)
	v1.GET("/ws", s.serveWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.log.Infof("listening on %s", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		req, res := c.Request(), c.Response()
		s.log.WithFields(logrus.Fields{
			"id":     res.Header().Get(echo.HeaderXRequestID),
			"status": res.Status,
			"took":   time.Since(start).Round(time.Millisecond),
		}).Infof("%s %s", req.Method, req.URL.Path)
		return nil
	}
}

// renderErrorBody describes a rejected card for API clients.
func renderErrorBody(re fit.RenderError) echo.Map {
	body := echo.Map{
		"error": re.Error(),
		"kind":  re.Kind(),
		"field": re.FieldName(),
	}
	var tooWide *fit.FieldTooWideError
	var outOfRange *fit.ValueOutOfRangeError
	switch {
	case errors.As(re, &tooWide):
		body["measured"] = tooWide.Measured
		body["limit"] = tooWide.Limit
	case errors.As(re, &outOfRange):
		body["value"] = outOfRange.Value
		body["limit"] = outOfRange.Limit
	}
	return body
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := echo.Map{"error": http.StatusText(code)}

	var he *echo.HTTPError
	if re, ok := fit.AsRenderError(err); ok {
		code = http.StatusUnprocessableEntity
		body = renderErrorBody(re)
	} else if errors.As(err, &he) {
		code = he.Code
		body = echo.Map{"error": fmt.Sprint(he.Message)}
	} else {
		s.log.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.log.Warnf("write error response: %v", err)
	}
}

func (s *Server) listTemplates(c echo.Context) error {
	type templateInfo struct {
		Name   string `json:"name"`
		Mode   string `json:"mode"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	out := make([]templateInfo, 0, len(layout.Templates))
	for _, t := range layout.Templates {
		g, ok := s.renderer.Geometry(t)
		if !ok {
			continue
		}
		out = append(out, templateInfo{Name: t.String(), Mode: t.Mode(), Width: g.Width, Height: g.Height})
	}
	return c.JSON(http.StatusOK, out)
}

func badRequest(format string, args ...interface{}) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// renderRequest holds everything one card needs after parsing.
type renderRequest struct {
	base     image.Image
	record   weather.Record
	template layout.Template
	picker   layout.Picker
	format   output.Format
}

func (s *Server) parseOptions(tmpl, seed, format string) (renderRequest, error) {
	req := renderRequest{template: s.cfg.GetTemplate(), format: output.PNG}
	if tmpl != "" {
		t, err := layout.ParseTemplate(tmpl)
		if err != nil {
			return req, badRequest("%v", err)
		}
		req.template = t
	}
	if seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return req, badRequest("invalid seed %q", seed)
		}
		req.picker = layout.SeededPicker(n)
	}
	switch format {
	case "", "png":
	case "jpg", "jpeg":
		req.format = output.JPEG
	default:
		return req, badRequest("unsupported format %q", format)
	}
	return req, nil
}

// draw renders req and encodes the card.
func (s *Server) draw(req renderRequest) ([]byte, error) {
	g, _ := s.renderer.Geometry(req.template)
	base := imageio.Cover(req.base, g.Width, g.Height)

	card, err := s.renderer.Render(base, req.record, req.template, req.picker)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	out := output.NewManager(output.NewWriterHandler(&buf, req.format, s.cfg.GetJPEGQuality()))
	if err := out.Output(card); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) render(c echo.Context) error {
	req, err := s.parseOptions(c.QueryParam("template"), c.QueryParam("seed"), c.QueryParam("format"))
	if err != nil {
		return err
	}

	info := c.FormValue("info")
	if info == "" {
		return badRequest("missing weather info")
	}
	if req.record, err = weather.Parse(info); err != nil {
		return badRequest("%v", err)
	}

	if url := c.FormValue("image_url"); url != "" {
		if !imageio.IsURL(url) {
			return badRequest("image_url must be http or https")
		}
		if req.base, err = s.fetcher.Fetch(c.Request().Context(), url); err != nil {
			return badRequest("%v", err)
		}
	} else {
		fh, err := c.FormFile("image")
		if err != nil {
			return badRequest("missing image")
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest("read image: %v", err)
		}
		defer f.Close()
		if req.base, _, err = imageio.Decode(f); err != nil {
			return badRequest("%v", err)
		}
	}

	data, err := s.draw(req)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, req.format.ContentType(), data)
}
