package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-relay/internal/entity"
)

func TestRelayLeadPostsRecord(t *testing.T) {
	var got map[string]any
	var gotPath, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":"Workflow was started"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "webhook/lead-qualificado", "", 5*time.Second, nil)
	err := client.RelayLead(context.Background(), entity.LeadRecord{
		Name:            "João Silva",
		Phone:           "5511999999999",
		Email:           "5511999999999@whatsapp.net",
		Source:          "whatsapp",
		Score:           80,
		OriginalMessage: "quero um apartamento",
	})

	require.NoError(t, err)
	assert.Equal(t, "/webhook/lead-qualificado", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "João Silva", got["name"])
	assert.Equal(t, float64(80), got["qualification_score"])
	assert.Equal(t, "quero um apartamento", got["original_message"])
}

func TestRelayLeadOnlyOKIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("falhou"))
		}))

		err := NewClient(srv.URL, "/webhook/lead", "", time.Second, nil).
			RelayLead(context.Background(), entity.LeadRecord{Name: "x"})
		srv.Close()

		var relayErr *entity.RelayError
		require.True(t, errors.As(err, &relayErr), "status %d", status)
		assert.Equal(t, status, relayErr.StatusCode)
		assert.Equal(t, "falhou", relayErr.Body)
	}
}

func TestRelayLeadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, "/webhook/lead", "", time.Second, nil).
		RelayLead(context.Background(), entity.LeadRecord{Name: "x"})

	var relayErr *entity.RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Zero(t, relayErr.StatusCode)
	assert.True(t, entity.IsTransportError(err))
}

func TestGenerateReply(t *testing.T) {
	var got ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/resposta", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"output":"Olá João! Um corretor vai falar com você."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "/webhook/lead", "/webhook/resposta", time.Second, nil)
	require.True(t, client.ReplyEnabled())

	event := entity.InboundEvent{ID: "evt-1", InstanceID: "i1", SenderID: "5511999999999", SenderName: "null", MessageText: "oi"}
	text, err := client.GenerateReply(context.Background(), event, entity.NewLeadScore(30))

	require.NoError(t, err)
	assert.Equal(t, "Olá João! Um corretor vai falar com você.", text)
	assert.Equal(t, "5511999999999", got.Phone)
	assert.Empty(t, got.Name)
	assert.Equal(t, 30, got.Score)
	assert.False(t, got.Qualifies)
}

func TestGenerateReplyDisabled(t *testing.T) {
	client := NewClient("http://n8n.local", "/webhook/lead", "", time.Second, nil)

	text, err := client.GenerateReply(context.Background(), entity.InboundEvent{}, entity.LeadScore{})

	assert.False(t, client.ReplyEnabled())
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestGenerateReplyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "/a", "/b", time.Second, nil).
		GenerateReply(context.Background(), entity.InboundEvent{}, entity.LeadScore{})

	assert.Error(t, err)
}

func TestReplyResponsePrefersReply(t *testing.T) {
	assert.Equal(t, "a", ReplyResponse{Reply: "a", Output: "b"}.Text())
	assert.Equal(t, "b", ReplyResponse{Output: "b"}.Text())
}
