// Package server exposes the conversation engine over HTTP: text chat,
// session inspection, the staff-only internal assistant, and the voice
// pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
	"github.com/thanarat-h/frontdesk/agent/voice"
)

// maxAudioUpload caps voice uploads at 25MB, the transcription backend's
// own file limit.
const maxAudioUpload = 25 << 20

// TurnService is the public conversation flow.
type TurnService interface {
	HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error)
	StartCall(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error)
}

// InternalTurnService is the staff-side flow, keyed by the caller's name.
type InternalTurnService interface {
	HandleTurn(ctx context.Context, userName string, req contractx.TurnRequest) (contractx.TurnResult, error)
}

// VoiceService abstracts the speech backends for testing.
type VoiceService interface {
	Transcribe(ctx context.Context, audio []byte, filename, language, priming string) (voice.Transcription, error)
	Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]byte, error)
}

type Handler struct {
	turns     TurnService
	internal  InternalTurnService
	sessions  contractx.SessionStore
	voice     VoiceService
	companyID string
}

func New(turns TurnService, internal InternalTurnService, sessions contractx.SessionStore, voiceSvc VoiceService, companyID string) *Handler {
	return &Handler{
		turns:     turns,
		internal:  internal,
		sessions:  sessions,
		voice:     voiceSvc,
		companyID: companyID,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/start", h.handleStartCall)
	r.Get("/chat/sessions", h.handleListSessions)
	r.Get("/chat/sessions/{sessionID}", h.handleSessionHistory)
	r.Post("/internal/chat", h.handleInternalChat)
	r.Post("/voice/transcribe", h.handleTranscribe)
	r.Post("/voice/synthesize", h.handleSynthesize)
	r.Post("/voice/chat", h.handleVoiceChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req contractx.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.InputType == "" {
		req.InputType = "text"
	}

	result, err := h.turns.HandleTurn(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("chat turn failed")
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStartCall(w http.ResponseWriter, r *http.Request) {
	var req contractx.TurnRequest
	if r.Body != nil {
		// The body is optional for call starts.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.turns.StartCall(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("start call failed")
		respondError(w, http.StatusInternalServerError, "failed to start call")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := h.sessions.ListSessions(r.Context(), h.companyID, limit)
	if err != nil {
		log.Error().Err(err).Msg("list sessions failed")
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []contractx.SessionInfo{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	history, err := h.sessions.SessionHistory(r.Context(), h.companyID, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("session history failed")
		respondError(w, http.StatusInternalServerError, "failed to load session history")
		return
	}
	if len(history) == 0 {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
	})
}

func (h *Handler) handleInternalChat(w http.ResponseWriter, r *http.Request) {
	userName := strings.TrimSpace(r.Header.Get("X-Staff-Name"))
	if userName == "" {
		respondError(w, http.StatusUnauthorized, "staff identity required")
		return
	}

	var req contractx.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.internal.HandleTurn(r.Context(), userName, req)
	if err != nil {
		log.Error().Err(err).Msg("internal turn failed")
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := readAudioUpload(w, r)
	if !ok {
		return
	}
	language := r.URL.Query().Get("language")
	priming := voice.PrimingText(voice.ClassifyQuestion(r.URL.Query().Get("last_question")))

	result, err := h.voice.Transcribe(r.Context(), audio, filename, language, priming)
	if err != nil {
		if errors.Is(err, voice.ErrAudioTooSmall) {
			respondError(w, http.StatusBadRequest, "audio file too small or empty")
			return
		}
		log.Error().Err(err).Msg("transcription failed")
		respondError(w, http.StatusInternalServerError, "transcription failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string  `json:"text"`
		Voice string  `json:"voice,omitempty"`
		Speed float64 `json:"speed,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Speed != 0 && (req.Speed < 0.25 || req.Speed > 4.0) {
		respondError(w, http.StatusBadRequest, "speed must be between 0.25 and 4.0")
		return
	}

	audio, err := h.voice.Synthesize(r.Context(), req.Text, req.Voice, req.Speed)
	if err != nil {
		log.Error().Err(err).Msg("synthesis failed")
		respondError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "inline; filename=speech.mp3")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// handleVoiceChat is the full phone pipeline: transcribe, run the turn,
// return the text reply. Audio for the reply comes from /voice/synthesize.
func (h *Handler) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := readAudioUpload(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	sessionID := query.Get("session_id")

	couldNotHear := func(message string) {
		respondJSON(w, http.StatusOK, map[string]any{
			"response":         message,
			"session_id":       sessionID,
			"tools_used":       []string{},
			"call_active":      true,
			"transcribed_text": "",
		})
	}

	priming := voice.PrimingText(voice.ClassifyQuestion(h.lastAssistantTurn(r.Context(), sessionID)))
	transcription, err := h.voice.Transcribe(r.Context(), audio, filename, query.Get("language"), priming)
	if err != nil {
		if errors.Is(err, voice.ErrAudioTooSmall) {
			couldNotHear("I'm sorry, I couldn't hear that. Could you please speak a bit louder?")
			return
		}
		log.Error().Err(err).Msg("voice chat transcription failed")
		respondError(w, http.StatusInternalServerError, "failed to transcribe audio")
		return
	}
	if transcription.Text == "" {
		couldNotHear("I'm sorry, I couldn't hear that. Could you please repeat?")
		return
	}

	result, err := h.turns.HandleTurn(r.Context(), contractx.TurnRequest{
		Message:       transcription.Text,
		SessionID:     sessionID,
		CustomerPhone: query.Get("customer_phone"),
		InputType:     "voice",
	})
	if err != nil {
		log.Error().Err(err).Msg("voice chat turn failed")
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"response":         result.Reply,
		"session_id":       result.SessionID,
		"tools_used":       result.ToolsUsed,
		"latency_ms":       result.LatencyMS,
		"call_active":      result.CallActive,
		"transcribed_text": transcription.Text,
	})
}

// lastAssistantTurn fetches what the agent last said in the session, so the
// transcriber can be primed for the kind of answer the caller is giving.
// Best-effort: a missing session or a store failure just means no priming.
func (h *Handler) lastAssistantTurn(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	history, err := h.sessions.SessionHistory(ctx, h.companyID, sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("no history for transcription priming")
		return ""
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			return history[i].Content
		}
	}
	return ""
}

func readAudioUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form with an audio file")
		return nil, "", false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "audio file is required")
		return nil, "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read audio file")
		return nil, "", false
	}
	return audio, header.Filename, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
