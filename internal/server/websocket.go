package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/weather-bot/meow/internal/fit"
	"github.com/weather-bot/meow/internal/imageio"
	"github.com/weather-bot/meow/internal/weather"
)

// wsRequest is one render over the websocket. Image is base64 encoded.
type wsRequest struct {
	Template string          `json:"template"`
	Seed     *int64          `json:"seed,omitempty"`
	Format   string          `json:"format,omitempty"`
	Image    string          `json:"image"`
	Info     json.RawMessage `json:"info"`
}

// serveWS answers each request with a binary card or a JSON error.
func (s *Server) serveWS(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(s.cfg.GetMaxUploadBytes())

	for {
		var msg wsRequest
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugf("websocket read: %v", err)
			}
			return nil
		}

		data, err := s.renderMessage(msg)
		if err != nil {
			if werr := conn.WriteJSON(wsError(err)); werr != nil {
				return nil
			}
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return nil
		}
	}
}

func (s *Server) renderMessage(msg wsRequest) ([]byte, error) {
	seed := ""
	if msg.Seed != nil {
		seed = strconv.FormatInt(*msg.Seed, 10)
	}
	req, err := s.parseOptions(msg.Template, seed, msg.Format)
	if err != nil {
		return nil, err
	}

	if len(msg.Info) == 0 {
		return nil, badRequest("missing weather info")
	}
	if req.record, err = weather.Decode(bytes.NewReader(msg.Info)); err != nil {
		return nil, badRequest("%v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(msg.Image)
	if err != nil || len(raw) == 0 {
		return nil, badRequest("image must be base64 encoded")
	}
	if req.base, _, err = imageio.Decode(bytes.NewReader(raw)); err != nil {
		return nil, badRequest("%v", err)
	}
	return s.draw(req)
}

func wsError(err error) echo.Map {
	if re, ok := fit.AsRenderError(err); ok {
		return renderErrorBody(re)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return echo.Map{"error": he.Message, "kind": "bad_request"}
	}
	return echo.Map{"error": err.Error(), "kind": "internal"}
}
