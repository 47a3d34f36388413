package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grounder-ai/grounder/internal/config"
	"github.com/grounder-ai/grounder/internal/models"
)

func TestHTTPClientCreateResponse(t *testing.T) {
	t.Run("Sends request and parses response", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotReq map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotReq)

			json.NewEncoder(w).Encode(models.ResponsesResponse{
				ID:     "resp-abc",
				Status: "completed",
				Output: []models.OutputItem{
					{Type: "message", Role: "assistant", Content: []models.ContentItem{{Type: "output_text", Text: "hello"}}},
				},
			})
		}))
		defer srv.Close()

		c := NewHTTPClient(&config.LLMConfig{BaseURL: srv.URL, APIKey: "sk-test"})

		resp, err := c.CreateResponse(context.Background(), &models.ResponsesRequest{
			Model:      "gpt-4o",
			Input:      []models.InputItem{models.UserMessage("hi")},
			ToolChoice: models.ForceFunction("search"),
		})
		if err != nil {
			t.Fatalf("CreateResponse failed: %v", err)
		}

		if gotPath != "/responses" {
			t.Errorf("Expected POST /responses, got %q", gotPath)
		}
		if gotAuth != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", gotAuth)
		}

		// Forced tool choice goes over the wire as {"type":"function","name":...}
		tc, ok := gotReq["tool_choice"].(map[string]interface{})
		if !ok {
			t.Fatalf("Expected tool_choice object, got %T", gotReq["tool_choice"])
		}
		if tc["type"] != "function" || tc["name"] != "search" {
			t.Errorf("Unexpected tool_choice: %v", tc)
		}

		if resp.OutputText() != "hello" {
			t.Errorf("Expected output text 'hello', got %q", resp.OutputText())
		}
	})

	t.Run("Provider error decoded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: models.ErrorDetail{Type: "invalid_request_error", Message: "Incorrect API key provided"},
			})
		}))
		defer srv.Close()

		c := NewHTTPClient(&config.LLMConfig{BaseURL: srv.URL, APIKey: "bad"})

		_, err := c.CreateResponse(context.Background(), &models.ResponsesRequest{Model: "gpt-4o"})
		if err == nil {
			t.Fatal("Expected error for 401 response")
		}
	})

	t.Run("Malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := NewHTTPClient(&config.LLMConfig{BaseURL: srv.URL, APIKey: "sk-test"})

		_, err := c.CreateResponse(context.Background(), &models.ResponsesRequest{Model: "gpt-4o"})
		if err == nil {
			t.Fatal("Expected error for malformed response body")
		}
	})
}
