package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	openaix "github.com/thanarat-h/frontdesk/pkg/openai"
)

// MinAudioSize filters out silence and noise clips before they reach the
// transcription backend. WebM/opus at 48kHz encodes roughly 6KB/s, so 2KB
// is about a third of a second of real audio.
const MinAudioSize = 2000

// DefaultLanguage is always forced: the transcription model hallucinates
// other languages when audio quality is poor.
const DefaultLanguage = "en"

const transcriptionContext = "This is a phone call to an English-speaking restaurant. The caller speaks English."

var (
	ErrAudioTooSmall = errors.New("audio clip too small, likely silence")
	ErrNotConfigured = errors.New("voice backend is not configured")
	ErrEmptyText     = errors.New("text is required")
)

// Transcription is one speech-to-text result after hallucination filtering.
// Text is empty when the clip contained no usable speech.
type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Service wraps the Whisper and TTS endpoints of one OpenAI client.
type Service struct {
	client       *openaisdk.Client
	whisperModel string
	ttsModel     string
	ttsVoice     string
}

func NewService(client *openaisdk.Client, cfg openaix.Config) *Service {
	return &Service{
		client:       client,
		whisperModel: cfg.WhisperModel,
		ttsModel:     cfg.TTSModel,
		ttsVoice:     cfg.TTSVoice,
	}
}

// Transcribe converts caller audio to text. priming, when non-empty, biases
// the model toward the expected answer shape for the last agent question.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename, language, priming string) (Transcription, error) {
	if s.client == nil {
		return Transcription{}, ErrNotConfigured
	}
	if len(audio) < MinAudioSize {
		return Transcription{}, ErrAudioTooSmall
	}
	if language == "" {
		language = DefaultLanguage
	}
	if filename == "" {
		filename = "audio.webm"
	}

	prompt := transcriptionContext
	if priming != "" {
		prompt += " " + priming
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		Model:    openaisdk.AudioModel(s.whisperModel),
		File:     openaisdk.File(bytes.NewReader(audio), filename, "application/octet-stream"),
		Language: openaisdk.String(language),
		Prompt:   openaisdk.String(prompt),
	})
	if err != nil {
		return Transcription{}, fmt.Errorf("transcribe audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if IsHallucination(text) {
		log.Warn().Str("text", text).Msg("filtered transcription artifact")
		text = ""
	}
	return Transcription{Text: text, Language: language}, nil
}

// Synthesize converts reply text to MP3 audio. voice and speed are optional
// overrides.
func (s *Service) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if voice == "" {
		voice = s.ttsVoice
	}

	params := openaisdk.AudioSpeechNewParams{
		Model:          openaisdk.SpeechModel(s.ttsModel),
		Voice:          openaisdk.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: openaisdk.AudioSpeechNewParamsResponseFormatMP3,
	}
	if speed > 0 {
		params.Speed = openaisdk.Float(speed)
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	log.Info().Int("chars", len(text)).Int("bytes", len(audio)).Msg("synthesized speech")
	return audio, nil
}
