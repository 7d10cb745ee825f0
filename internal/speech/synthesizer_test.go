package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/lesson-service/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() speech.Settings {
	return speech.Settings{
		HostVoiceID:   "host-voice",
		ExpertVoiceID: "expert-voice",
		MaxTextChars:  4000,
		SegmentChars:  1000,
	}
}

func newSynthesizer(t *testing.T, client *speech.HTTPClient) *speech.Synthesizer {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "speech-test.log")
	require.NoError(t, err)

	return speech.NewSynthesizer(client, testSettings(), testLogger)
}

func TestSynthesize_NoCredentialWritesPlaceholder(t *testing.T) {
	t.Parallel()

	synthesizer := newSynthesizer(t, nil)
	outputPath := filepath.Join(t.TempDir(), "narration.mp3")

	result := synthesizer.Synthesize(context.Background(), "some narration", "", outputPath)

	assert.True(t, result.Placeholder)
	assert.Equal(t, outputPath, result.Path)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, byte(0xFF), data[0])
	assert.Equal(t, byte(0xFB), data[1])
}

func TestSynthesize_EmptyTextWritesPlaceholder(t *testing.T) {
	t.Parallel()

	synthesizer := newSynthesizer(t, nil)
	outputPath := filepath.Join(t.TempDir(), "narration.mp3")

	result := synthesizer.Synthesize(context.Background(), "   ", "voice", outputPath)

	assert.True(t, result.Placeholder)
	assert.FileExists(t, outputPath)
}

func TestSynthesize_BackendFailureWritesPlaceholder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusInternalServerError)
		},
	))
	defer server.Close()

	client := speech.NewHTTPClient(server.URL, "key", "model", "", 5*time.Second)
	synthesizer := newSynthesizer(t, client)
	outputPath := filepath.Join(t.TempDir(), "narration.mp3")

	result := synthesizer.Synthesize(context.Background(), "narration text", "voice", outputPath)

	assert.True(t, result.Placeholder)
	require.Error(t, result.Err)
	assert.FileExists(t, outputPath)
}

func TestSynthesize_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusOK)

			_, err := responseWriter.Write([]byte("real-audio"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := speech.NewHTTPClient(server.URL, "key", "model", "", 5*time.Second)
	synthesizer := newSynthesizer(t, client)
	outputPath := filepath.Join(t.TempDir(), "narration.mp3")

	result := synthesizer.Synthesize(context.Background(), "narration text", "voice", outputPath)

	require.NoError(t, result.Err)
	assert.False(t, result.Placeholder)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("real-audio"), data)
}

func TestSynthesize_TruncationKeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	var receivedTexts []string

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			var payload struct {
				Text string `json:"text"`
			}

			err := json.NewDecoder(request.Body).Decode(&payload)
			require.NoError(t, err)

			receivedTexts = append(receivedTexts, payload.Text)
			responseWriter.WriteHeader(http.StatusOK)

			_, err = responseWriter.Write([]byte("audio"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := speech.NewHTTPClient(server.URL, "key", "model", "", 5*time.Second)

	testLogger, err := logger.New(t.TempDir(), "speech-test.log")
	require.NoError(t, err)

	settings := speech.Settings{
		HostVoiceID:   "host-voice",
		ExpertVoiceID: "expert-voice",
		MaxTextChars:  5,
		SegmentChars:  5,
	}
	synthesizer := speech.NewSynthesizer(client, settings, testLogger)
	tempDir := t.TempDir()

	// Five two-byte runes: a byte-offset cut at 5 would land mid-rune.
	result := synthesizer.Synthesize(
		context.Background(), "ααααα", "", filepath.Join(tempDir, "narration.mp3"),
	)
	require.NoError(t, result.Err)

	podcastResult := synthesizer.SynthesizePodcast(
		context.Background(),
		[]speech.Segment{{Speaker: speech.SpeakerHost, Text: "βββββ"}},
		filepath.Join(tempDir, "podcast.mp3"),
	)
	require.NoError(t, podcastResult.Err)

	require.Len(t, receivedTexts, 2)
	assert.Equal(t, "αα", receivedTexts[0])
	assert.Equal(t, "ββ", receivedTexts[1])

	for _, text := range receivedTexts {
		assert.True(t, utf8.ValidString(text))
	}
}

func TestSynthesizePodcast_PerSpeakerVoices(t *testing.T) {
	t.Parallel()

	var requestedVoices []string

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			requestedVoices = append(requestedVoices, filepath.Base(request.URL.Path))
			responseWriter.WriteHeader(http.StatusOK)

			_, err := responseWriter.Write([]byte("seg|"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := speech.NewHTTPClient(server.URL, "key", "model", "", 5*time.Second)
	synthesizer := newSynthesizer(t, client)
	outputPath := filepath.Join(t.TempDir(), "podcast.mp3")

	segments := []speech.Segment{
		{Speaker: speech.SpeakerHost, Text: "Welcome to the show."},
		{Speaker: speech.SpeakerExpert, Text: "Thanks for having me."},
		{Speaker: speech.SpeakerHost, Text: ""},
	}

	result := synthesizer.SynthesizePodcast(context.Background(), segments, outputPath)

	require.NoError(t, result.Err)
	assert.False(t, result.Placeholder)
	assert.Equal(t, []string{"host-voice", "expert-voice"}, requestedVoices)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("seg|seg|"), data)
}

func TestSynthesizePodcast_AllSegmentsFailWritesPlaceholder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusBadGateway)
		},
	))
	defer server.Close()

	client := speech.NewHTTPClient(server.URL, "key", "model", "", 5*time.Second)
	synthesizer := newSynthesizer(t, client)
	outputPath := filepath.Join(t.TempDir(), "podcast.mp3")

	segments := []speech.Segment{
		{Speaker: speech.SpeakerHost, Text: "Welcome."},
	}

	result := synthesizer.SynthesizePodcast(context.Background(), segments, outputPath)

	assert.True(t, result.Placeholder)
	assert.FileExists(t, outputPath)
}
