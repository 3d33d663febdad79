package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/absmach/federator/pkg/fl"
	"github.com/absmach/federator/pkg/mqtt"
	"github.com/absmach/federator/pkg/registry"
)

const (
	DefTopicPrefix = "fl"

	topicIngress   = "#"
	topicStarted   = "rounds/started"
	topicCompleted = "rounds/completed"
	topicUpdates   = "updates"
	topicJoin      = "participants/join"
)

var errInvalidMessage = errors.New("invalid broker message")

func (svc *service) topic(suffix string) string {
	return svc.cfg.TopicPrefix + "/" + suffix
}

// Handle routes broker messages published under the topic prefix. Updates
// arriving this way follow the same rules as ones posted over HTTP.
func (svc *service) Handle(ctx context.Context) mqtt.Handler {
	return func(topic string, msg map[string]any) error {
		switch topic {
		case svc.topic(topicUpdates):
			var u fl.Update
			if err := decodeMessage(msg, &u); err != nil {
				return err
			}
			if u.ParticipantID == "" {
				return errInvalidMessage
			}
			if err := u.Tensors.Validate(); err != nil {
				return errors.Join(errInvalidMessage, err)
			}
			res, err := svc.SubmitUpdate(ctx, u)
			if err != nil {
				return err
			}
			svc.logger.DebugContext(ctx, "update received over broker",
				slog.String("participant_id", u.ParticipantID),
				slog.Uint64("round_id", u.RoundID),
				slog.String("status", res.Status),
			)
		case svc.topic(topicJoin):
			var p registry.Participant
			if err := decodeMessage(msg, &p); err != nil {
				return err
			}
			if _, err := svc.JoinParticipant(ctx, p); err != nil {
				return err
			}
		}

		return nil
	}
}

func decodeMessage(msg map[string]any, v any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(errInvalidMessage, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(errInvalidMessage, err)
	}

	return nil
}
