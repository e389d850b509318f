package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

type postedMessage struct {
	Token   string
	Channel string
	Text    string
	Blocks  []map[string]any
}

// newSlackServer fakes the chat.postMessage endpoint of the Slack Web API
func newSlackServer(t *testing.T, response string) (*httptest.Server, *[]postedMessage) {
	t.Helper()
	var (
		mu       sync.Mutex
		messages []postedMessage
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())

		msg := postedMessage{
			Token:   r.FormValue("token"),
			Channel: r.FormValue("channel"),
			Text:    r.FormValue("text"),
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			msg.Token = auth
		}
		if blocks := r.FormValue("blocks"); blocks != "" {
			require.NoError(t, json.Unmarshal([]byte(blocks), &msg.Blocks))
		}

		mu.Lock()
		messages = append(messages, msg)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, &messages
}

func testNotification() domain.Notification {
	return domain.Notification{
		Version:      "3",
		Fingerprint:  "f8VicOenD6gaWTW3Lqy+KQ==",
		ReferenceURL: ReferenceURL("", "3"),
	}
}

func TestMessageText(t *testing.T) {
	n := testNotification()
	assert.Equal(t, "WWT-Images:  Updated hash of version 3", FallbackText(n))
	assert.Equal(t, "Updated hash of version 3  (http://data.openspaceproject.com/wwt/3)", SectionText(n))
}

func TestReferenceURL(t *testing.T) {
	assert.Equal(t, "http://data.openspaceproject.com/wwt/3", ReferenceURL("", "3"))
	assert.Equal(t, "https://mirror.example.com/wwt/12", ReferenceURL("https://mirror.example.com/wwt/", "12"))
}

func TestSlackNotifier_Notify(t *testing.T) {
	server, messages := newSlackServer(t, `{"ok":true,"channel":"C1","ts":"1"}`)

	n := NewSlackNotifier(SlackOptions{Token: "xoxb-test", APIURL: server.URL})
	require.NoError(t, n.Notify(context.Background(), testNotification()))

	require.Len(t, *messages, 1)
	msg := (*messages)[0]
	assert.Contains(t, msg.Token, "xoxb-test")
	assert.Equal(t, "jenkins", msg.Channel)
	assert.Equal(t, "WWT-Images:  Updated hash of version 3", msg.Text)

	require.Len(t, msg.Blocks, 2)
	assert.Equal(t, "header", msg.Blocks[0]["type"])
	header := msg.Blocks[0]["text"].(map[string]any)
	assert.Equal(t, "plain_text", header["type"])
	assert.Equal(t, "WWT Image Collection", header["text"])

	assert.Equal(t, "section", msg.Blocks[1]["type"])
	section := msg.Blocks[1]["text"].(map[string]any)
	assert.Equal(t, "mrkdwn", section["type"])
	assert.Equal(t, "Updated hash of version 3  (http://data.openspaceproject.com/wwt/3)", section["text"])
}

func TestSlackNotifier_CustomChannel(t *testing.T) {
	server, messages := newSlackServer(t, `{"ok":true,"channel":"C2","ts":"2"}`)

	n := NewSlackNotifier(SlackOptions{Token: "xoxb-test", APIURL: server.URL + "/", Channel: "wwt-updates", Header: "Images"})
	require.NoError(t, n.Notify(context.Background(), testNotification()))

	require.Len(t, *messages, 1)
	assert.Equal(t, "wwt-updates", (*messages)[0].Channel)
	header := (*messages)[0].Blocks[0]["text"].(map[string]any)
	assert.Equal(t, "Images", header["text"])
}

func TestSlackNotifier_APIError(t *testing.T) {
	server, _ := newSlackServer(t, `{"ok":false,"error":"channel_not_found"}`)

	n := NewSlackNotifier(SlackOptions{Token: "xoxb-test", APIURL: server.URL})
	err := n.Notify(context.Background(), testNotification())
	require.Error(t, err)

	var notifyErr *domain.NotificationError
	require.True(t, errors.As(err, &notifyErr))
	assert.Equal(t, domain.Version("3"), notifyErr.Version)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestNoopNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerOptions{Level: "info", Format: "json", Output: &buf})

	n := NewNoopNotifier(logger)
	require.NoError(t, n.Notify(context.Background(), testNotification()))
	assert.Contains(t, buf.String(), "Updated hash of version 3")
}

func TestLoadToken(t *testing.T) {
	fs := afero.NewMemMapFs()

	token, err := LoadToken(fs, "/srv/token.txt")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, afero.WriteFile(fs, "/srv/token.txt", []byte("  xoxb-secret\n"), 0o600))
	token, err = LoadToken(fs, "/srv/token.txt")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-secret", token)
}

func TestNew(t *testing.T) {
	t.Run("missing token gives noop", func(t *testing.T) {
		n, err := New(Options{Fs: afero.NewMemMapFs(), TokenFile: "/srv/token.txt"})
		require.NoError(t, err)
		assert.IsType(t, &NoopNotifier{}, n)
	})

	t.Run("blank token gives noop", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/srv/token.txt", []byte("\n"), 0o600))

		n, err := New(Options{Fs: fs, TokenFile: "/srv/token.txt"})
		require.NoError(t, err)
		assert.IsType(t, &NoopNotifier{}, n)
	})

	t.Run("token gives slack", func(t *testing.T) {
		server, messages := newSlackServer(t, `{"ok":true,"channel":"C1","ts":"1"}`)
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/srv/token.txt", []byte("xoxb-file\n"), 0o600))

		n, err := New(Options{Fs: fs, TokenFile: "/srv/token.txt", APIURL: server.URL})
		require.NoError(t, err)
		require.IsType(t, &SlackNotifier{}, n)

		require.NoError(t, n.Notify(context.Background(), testNotification()))
		require.Len(t, *messages, 1)
		assert.Contains(t, (*messages)[0].Token, "xoxb-file")
	})
}
