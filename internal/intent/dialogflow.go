package intent

import (
	"context"
	"fmt"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Config selects the Dialogflow agent.
type Config struct {
	ProjectID       string
	CredentialsFile string
	LanguageCode    string
}

// Enabled reports whether enough is configured to create a client.
func (c Config) Enabled() bool {
	return c.ProjectID != "" && c.CredentialsFile != ""
}

// sessionsAPI is the subset of *dialogflow.SessionsClient used here.
type sessionsAPI interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error)
	Close() error
}

// Dialogflow detects intents against one agent. Sessions are addressed by the
// caller's session key, so the agent keeps context per sender.
type Dialogflow struct {
	sessions  sessionsAPI
	projectID string
	language  string
	log       zerolog.Logger
}

// New opens a sessions client using the configured credentials file.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Dialogflow, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	c, err := dialogflow.NewSessionsClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create dialogflow sessions client: %w", err)
	}
	return newDialogflow(c, cfg, log), nil
}

func newDialogflow(api sessionsAPI, cfg Config, log zerolog.Logger) *Dialogflow {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "id"
	}
	return &Dialogflow{
		sessions:  api,
		projectID: cfg.ProjectID,
		language:  lang,
		log:       log.With().Str("component", "dialogflow").Logger(),
	}
}

// SessionPath returns the agent session resource name for sessionKey.
func (d *Dialogflow) SessionPath(sessionKey string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", d.projectID, sessionKey)
}

// Detect sends text to the agent within the session identified by sessionKey.
func (d *Dialogflow) Detect(ctx context.Context, sessionKey, text string) (Reply, error) {
	req := &dialogflowpb.DetectIntentRequest{
		Session: d.SessionPath(sessionKey),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{
					Text:         text,
					LanguageCode: d.language,
				},
			},
		},
	}

	d.log.Debug().Str("session", sessionKey).Str("text", text).Msg("detect intent")
	resp, err := d.sessions.DetectIntent(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("detect intent: %w", err)
	}

	result := resp.GetQueryResult()
	reply := Reply{
		Text:       result.GetFulfillmentText(),
		IntentName: result.GetIntent().GetDisplayName(),
	}
	d.log.Debug().
		Str("session", sessionKey).
		Str("intent", reply.IntentName).
		Float32("confidence", result.GetIntentDetectionConfidence()).
		Msg("intent detected")
	return reply, nil
}

// Close releases the underlying gRPC connection.
func (d *Dialogflow) Close() error {
	return d.sessions.Close()
}
