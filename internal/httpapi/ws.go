package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

var errAudioBeforeStart = errors.New("interview has not been started")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the invite token, not the browser header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleAudioWS ingests the candidate's microphone audio. Binary messages
// carry PCM16LE frames that are pushed into the session's capture stream;
// each frame is answered with a JSON level reading for the client's meter.
func (s *Server) handleAudioWS(c *gin.Context) {
	id := c.Param("id")
	inst, ok := s.sessions.Get(id)
	if !ok {
		jsonError(c, http.StatusConflict, errAudioBeforeStart)
		return
	}

	// clients either stream raw PCM16LE frames or opus packets
	var decoder *audio.OpusFrameDecoder
	if c.Query("codec") == "opus" {
		var err error
		decoder, err = audio.NewOpusFrameDecoder(s.cfg.SampleRate, s.cfg.Channels)
		if err != nil {
			jsonError(c, http.StatusInternalServerError, err)
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnw("ws: upgrade failed", "interview_id", id, "err", err)
		return
	}
	defer conn.Close()
	logging.Infow("ws: audio connected", "interview_id", id, "opus", decoder != nil)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warnw("ws: read failed", "interview_id", id, "err", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage || len(data) < 2 {
			continue
		}
		stream := inst.Provider.Stream()
		var level int
		if decoder != nil {
			samples, err := decoder.Decode(data)
			if err != nil {
				logging.Warnw("ws: opus packet dropped", "interview_id", id, "err", err)
				continue
			}
			if err := stream.Push(samples); err != nil {
				logging.Warnw("ws: push failed", "interview_id", id, "err", err)
				return
			}
			level = audio.Level(samples)
		} else {
			if err := stream.PushBytes(data); err != nil {
				logging.Warnw("ws: push failed", "interview_id", id, "err", err)
				return
			}
			level = audio.LevelFromBytes(data)
		}
		if err := conn.WriteJSON(map[string]int{"level": level}); err != nil {
			return
		}
	}
}
