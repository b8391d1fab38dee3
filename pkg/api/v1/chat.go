package v1

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

// ChatRouter sets up the AI chat adapter route. Requests are forwarded to
// the configured agent endpoint and the reply is re-emitted as a
// Vercel-AI-style data stream.
func ChatRouter(cfg *config.Config) http.Handler {
	routes := &chatRoutes{
		cfg: cfg,
		// No client Timeout: it would cover the whole body read and cut
		// long streams mid-reply. The upstream request carries the
		// frontend's context, so a disconnect cancels the read.
		httpClient: &http.Client{},
	}
	r := chi.NewRouter()
	r.Post("/", routes.postChat)
	return r
}

type chatRoutes struct {
	cfg        *config.Config
	httpClient *http.Client
}

// ChatMessage is one turn in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// agentRequest is the upstream payload, OpenAI chat-completions shaped.
type agentRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// agentChunk is one upstream SSE chunk.
type agentChunk struct {
	Choices []struct {
		Delta *struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *chatRoutes) postChat(w http.ResponseWriter, r *http.Request) {
	if c.cfg.Chat.AgentURL == "" {
		http.Error(w, "no chat agent configured", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages cannot be empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	upstream, err := c.callAgent(r, req.Messages)
	if err != nil {
		logger.Errorf("chat agent request failed: %v", err)
		http.Error(w, "chat agent unavailable", http.StatusBadGateway)
		return
	}
	defer upstream.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream := newDataStream(w, flusher)
	scanner := bufio.NewScanner(upstream.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk agentChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			stream.error(chunk.Error.Message)
			return
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			stream.textDelta(delta.Content)
		}
		for _, tc := range delta.ToolCalls {
			stream.toolCall(tc.ID, tc.Function.Name, tc.Function.Arguments)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Errorf("chat stream read failed: %v", err)
		stream.error("upstream stream failed")
		return
	}

	stream.done()
}

func (c *chatRoutes) callAgent(r *http.Request, messages []ChatMessage) (*http.Response, error) {
	payload, err := json.Marshal(agentRequest{
		Model:    c.cfg.Chat.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, c.cfg.Chat.AgentURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// dataStream writes Vercel-AI-protocol chunks: one `data: {...}` event per
// part, terminated by `data: [DONE]`.
type dataStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newDataStream(w http.ResponseWriter, flusher http.Flusher) *dataStream {
	return &dataStream{w: w, flusher: flusher}
}

func (s *dataStream) emit(part any) {
	payload, err := json.Marshal(part)
	if err != nil {
		logger.Errorf("failed to marshal stream part: %v", err)
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

func (s *dataStream) textDelta(text string) {
	s.emit(map[string]any{"type": "text-delta", "delta": text})
}

func (s *dataStream) toolCall(id, name, arguments string) {
	s.emit(map[string]any{
		"type":       "tool-call",
		"toolCallId": id,
		"toolName":   name,
		"input":      arguments,
	})
}

func (s *dataStream) error(message string) {
	s.emit(map[string]any{"type": "error", "errorText": message})
	s.finish()
}

func (s *dataStream) done() {
	s.finish()
}

func (s *dataStream) finish() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
