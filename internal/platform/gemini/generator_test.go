package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type scriptedReply struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModel answers GenerateContent calls from a script, repeating the
// last reply once the script runs out.
type fakeModel struct {
	mu      sync.Mutex
	replies []scriptedReply
	prompts []string
	configs []*genai.GenerateContentConfig
}

func (f *fakeModel) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	f.configs = append(f.configs, cfg)
	r := f.replies[min(len(f.prompts), len(f.replies))-1]
	return r.resp, r.err
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func textReply(text string) scriptedReply {
	return scriptedReply{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}}
}

func newTestGenerator(model *fakeModel, retries int) *Generator {
	g := newGenerator(model, "gemini-test", retries, nil)
	g.baseDelay = time.Millisecond
	return g
}

func TestGenerateLessonContent(t *testing.T) {
	model := &fakeModel{replies: []scriptedReply{textReply(`{"content":"# Goroutines\n\nBody"}`)}}
	g := newTestGenerator(model, 0)

	out, err := g.GenerateLessonContent(context.Background(), generation.LessonRequest{
		CourseName:   "Concurrency in Go",
		LessonName:   "Goroutines",
		Instructions: "Mention the scheduler.",
	})

	require.NoError(t, err)
	assert.Equal(t, "# Goroutines\n\nBody", out.Content)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], `"Concurrency in Go"`)
	assert.Contains(t, model.prompts[0], `"Goroutines"`)
	assert.Contains(t, model.prompts[0], "Mention the scheduler.")
	assert.Equal(t, "application/json", model.configs[0].ResponseMIMEType)
}

func TestGeneratePresentation(t *testing.T) {
	model := &fakeModel{replies: []scriptedReply{
		textReply(`{"title":"Go","slides":[{"title":"Why Go","bullets":["simple","fast"]}]}`),
	}}
	g := newTestGenerator(model, 0)

	out, err := g.GeneratePresentation(context.Background(), generation.PresentationRequest{
		CourseName:  "Go",
		LessonNames: []string{"Basics", "Channels"},
		Audience:    "backend engineers",
	})

	require.NoError(t, err)
	require.Len(t, out.Slides, 1)
	assert.Equal(t, []string{"simple", "fast"}, out.Slides[0].Bullets)
	assert.Contains(t, model.prompts[0], "- Channels")
	assert.Contains(t, model.prompts[0], "to backend engineers")
}

func TestRetriesTransientFailures(t *testing.T) {
	model := &fakeModel{replies: []scriptedReply{
		{err: errors.New("connection reset")},
		{err: genai.APIError{Code: 503, Message: "overloaded"}},
		textReply(`{"content":"ok"}`),
	}}
	g := newTestGenerator(model, 3)

	out, err := g.GenerateLessonContent(context.Background(), generation.LessonRequest{LessonName: "L"})

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Content)
	assert.Equal(t, 3, model.calls())
}

func TestRetriesExhausted(t *testing.T) {
	model := &fakeModel{replies: []scriptedReply{{err: errors.New("timeout")}}}
	g := newTestGenerator(model, 2)

	_, err := g.GenerateLessonContent(context.Background(), generation.LessonRequest{LessonName: "L"})

	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 3, model.calls())
}

func TestPermanentFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		reply  scriptedReply
		target error
	}{
		{
			name:   "bad_request",
			reply:  scriptedReply{err: genai.APIError{Code: 400, Message: "bad"}},
			target: generation.ErrGenerationFailed,
		},
		{
			name: "safety",
			reply: scriptedReply{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			target: generation.ErrContentBlocked,
		},
		{
			name:   "no_candidates",
			reply:  scriptedReply{resp: &genai.GenerateContentResponse{}},
			target: generation.ErrInvalidResponse,
		},
		{
			name:   "not_json",
			reply:  textReply("Sure! Here is your lesson."),
			target: generation.ErrInvalidResponse,
		},
		{
			name:   "empty_content",
			reply:  textReply(`{"content":"  "}`),
			target: generation.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{replies: []scriptedReply{tt.reply}}
			g := newTestGenerator(model, 3)

			_, err := g.GenerateLessonContent(context.Background(), generation.LessonRequest{LessonName: "L"})

			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, 1, model.calls())
		})
	}
}

func TestRetryStopsOnCancellation(t *testing.T) {
	model := &fakeModel{replies: []scriptedReply{{err: errors.New("timeout")}}}
	g := newTestGenerator(model, 5)
	g.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.GenerateLessonContent(ctx, generation.LessonRequest{LessonName: "L"})

	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, model.calls())
}

func TestNewGeneratorRequiresCredentials(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.LLMConfig{ModelName: "m"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGenerator(context.Background(), config.LLMConfig{GeminiAPIKey: "k"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
