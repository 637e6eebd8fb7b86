package wsclient

import "fmt"

// TopicType identifies the kind of event a Topic subscribes to. These
// mirror the PubSub-era topic catalog in shape (one type + one channel id
// per subscription) but travel over the eventsub-style socket instead of
// being registered through a separate REST call.
type TopicType string

const (
	TopicCommunityPointsUser     TopicType = "community-points-user-v1"
	TopicPredictionsUser         TopicType = "predictions-user-v1"
	TopicVideoPlaybackByID       TopicType = "video-playback-by-id"
	TopicRaid                    TopicType = "raid"
	TopicPredictionsChannel      TopicType = "predictions-channel-v1"
	TopicCommunityMomentsChannel TopicType = "community-moments-channel-v1"
	TopicCommunityPointsChannel  TopicType = "community-points-channel-v1"
)

type Topic struct {
	Type      TopicType
	ChannelID string
}

func NewTopic(topicType TopicType, channelID string) Topic {
	return Topic{Type: topicType, ChannelID: channelID}
}

func (t Topic) String() string {
	return fmt.Sprintf("%s.%s", t.Type, t.ChannelID)
}

// IsUserTopic reports whether the subscription is scoped to the
// authenticated user rather than to a channel, which determines whether
// the subscribe request needs the auth token attached.
func (t Topic) IsUserTopic() bool {
	return t.Type == TopicCommunityPointsUser || t.Type == TopicPredictionsUser
}

func ParseTopic(s string) (Topic, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return Topic{Type: TopicType(s[:i]), ChannelID: s[i+1:]}, nil
		}
	}
	return Topic{}, fmt.Errorf("wsclient: invalid topic %q", s)
}
