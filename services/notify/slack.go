package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	colorSuccess = "#2EB67D"
	colorFailure = "#E01E5A"
)

// Slack posts run outcomes to an incoming webhook as a colored
// attachment.
type Slack struct {
	client     *resty.Client
	webhookUrl string
}

func NewSlack(webhookUrl string) Slack {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	return Slack{
		client:     client,
		webhookUrl: webhookUrl,
	}
}

type slackAttachment struct {
	Color  string `json:"color"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Footer string `json:"footer"`
	Ts     int64  `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

func (s Slack) Notify(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "slack:Notify")
	defer span.End()

	color := colorSuccess
	if !msg.Success {
		color = colorFailure
	}
	text := msg.Body
	if msg.Logs != "" {
		text = fmt.Sprintf("%s\n```%s```", msg.Body, msg.Logs)
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(slackPayload{
			Attachments: []slackAttachment{{
				Color:  color,
				Title:  msg.Title,
				Text:   text,
				Footer: "Court Scheduler",
				Ts:     time.Now().Unix(),
			}},
		}).
		Post(s.webhookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post to slack")
		return err
	}
	if res.StatusCode() >= 400 {
		err = fmt.Errorf("slack webhook returned status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "slack rejected the webhook post")
		return err
	}
	return nil
}
