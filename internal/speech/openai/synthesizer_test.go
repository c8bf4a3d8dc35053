package openai

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/speech"
)

type fakeAPI struct {
	req goopenai.CreateSpeechRequest
	err error
}

func (f *fakeAPI) CreateSpeech(_ context.Context, req goopenai.CreateSpeechRequest) (goopenai.RawResponse, error) {
	f.req = req
	if f.err != nil {
		return goopenai.RawResponse{}, f.err
	}
	return goopenai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader("mp3-bytes"))}, nil
}

func TestSynthesizer_SpeakWritesFile(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{}
	s := New("", dir, nil)
	s.api = api

	v := speech.SelectVoice(s.Voices(), "en-GB", model.Male)
	require.NotNil(t, v)
	require.NoError(t, s.Speak(context.Background(), speech.Utterance{Text: "hello", Lang: "en-GB", Voice: v}))

	assert.Equal(t, goopenai.VoiceOnyx, api.req.Voice)
	assert.Equal(t, "hello", api.req.Input)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestSynthesizer_Error(t *testing.T) {
	s := New("", t.TempDir(), nil)
	s.api = &fakeAPI{err: errors.New("quota")}
	err := s.Speak(context.Background(), speech.Utterance{Text: "x"})
	assert.ErrorContains(t, err, "quota")
	s.Cancel()
	s.Cancel()
}

func TestSynthesizer_VoicesCoverLanguages(t *testing.T) {
	s := New("", t.TempDir(), nil)
	for _, l := range model.Languages() {
		assert.NotNil(t, speech.SelectVoice(s.Voices(), string(l), model.Female), l)
	}
	v := speech.SelectVoice(s.Voices(), "hi-IN", model.Female)
	assert.Contains(t, v.Name, "female")
}
