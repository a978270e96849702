package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/service/slack"
	"github.com/secmon-lab/soapnote/pkg/utils/async"
	slackgo "github.com/slack-go/slack"
)

// SlackNotifier posts stale visit alerts to a Slack channel. Posting runs
// asynchronously so a slow Slack API does not hold up the scan loop.
type SlackNotifier struct {
	slack     slack.Service
	channelID string
}

func NewSlackNotifier(svc slack.Service, channelID string) *SlackNotifier {
	return &SlackNotifier{
		slack:     svc,
		channelID: channelID,
	}
}

func (n *SlackNotifier) NotifyStaleVisit(ctx context.Context, visit *model.Visit, age time.Duration) error {
	text := staleVisitText(visit, age)
	blocks := []slackgo.Block{
		slackgo.NewSectionBlock(
			slackgo.NewTextBlockObject(slackgo.MarkdownType, text, false, false),
			nil, nil,
		),
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		if _, err := n.slack.PostMessage(ctx, n.channelID, blocks, text); err != nil {
			return goerr.Wrap(err, "failed to post stale visit alert",
				goerr.V("visit_id", visit.ID),
				goerr.V("channel_id", n.channelID))
		}
		return nil
	})

	return nil
}

// staleVisitText never includes the transcript
func staleVisitText(visit *model.Visit, age time.Duration) string {
	return fmt.Sprintf(":warning: Visit `%s` for patient `%s` has been processing for %s (recorded %s). Synthesis never completed; review manually.",
		visit.ID,
		visit.PatientID,
		age.Truncate(time.Second),
		visit.Timestamp.Format(time.RFC3339))
}
