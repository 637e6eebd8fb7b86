package gql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightloom/pointsminer/internal/constants"
	"github.com/brightloom/pointsminer/internal/decode"
	"github.com/brightloom/pointsminer/internal/session"
)

var (
	ErrStreamerDoesNotExist = errors.New("gql: streamer does not exist")
	ErrStreamerIsOffline    = errors.New("gql: streamer is offline")
)

// RetryPolicy controls how many times a failed call is retried and how
// long the client waits between attempts.
type RetryPolicy struct {
	Attempts        int
	IntervalSeconds float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, IntervalSeconds: 1}
}

// RetryError bundles every attempt's error when all of them were
// exhausted, so a caller (or the rate-limited logger) can see the whole
// sequence instead of only the last failure.
type RetryError struct {
	Operation string
	Attempts  []error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("gql: %s failed after %d attempts: %v", e.Operation, len(e.Attempts), e.Attempts[len(e.Attempts)-1])
}

func (e *RetryError) Unwrap() error {
	return e.Attempts[len(e.Attempts)-1]
}

// recoverableError marks transport/5xx failures as worth retrying; a 4xx
// body (other than 429) means the request itself was malformed or
// rejected and retrying it verbatim cannot help.
type recoverableError struct{ err error }

func (r recoverableError) Error() string { return r.err.Error() }
func (r recoverableError) Unwrap() error { return r.err }

// recoverableGQLMessages is the set of GraphQL-level error messages spec §7
// calls "known-recoverable" (e.g. a transient upstream timeout). Any other
// message aborts the retry loop immediately, per spec §7.
var recoverableGQLMessages = map[string]bool{
	"service timeout": true,
}

// GQLResponseError wraps a 200 response whose top-level "errors" array was
// non-empty. It is itself non-recoverable; doOnce wraps it in
// recoverableError when every message in the array is known-recoverable.
type GQLResponseError struct {
	Operation string
	Messages  []string
}

func (e *GQLResponseError) Error() string {
	return fmt.Sprintf("gql: operation %s returned errors: %v", e.Operation, e.Messages)
}

// allRecoverable reports whether every message in a GQL response's errors
// array is in the known-recoverable set; an empty list is vacuously true
// but the caller only consults this when the list is non-empty.
func allRecoverable(messages []string) bool {
	for _, m := range messages {
		if !recoverableGQLMessages[m] {
			return false
		}
	}
	return true
}

// Client is a typed GQL client: every response is parsed through
// internal/decode before it reaches a model constructor, and every
// operation goes through the retry/rate-limited-logging policy.
type Client struct {
	session *session.ClientSession
	http    *http.Client
	retry   RetryPolicy

	clientVersion string
	versionMu     sync.RWMutex

	twilightBuildIDPattern *regexp.Regexp
	spadeURLPattern        *regexp.Regexp
	settingsURLPattern     *regexp.Regexp

	errLog errorRateLimiter
}

func NewClient(sess *session.ClientSession) *Client {
	return &Client{
		session:       sess,
		http:          &http.Client{Timeout: 30 * time.Second},
		retry:         DefaultRetryPolicy(),
		clientVersion: constants.DefaultClientVersion,

		twilightBuildIDPattern: regexp.MustCompile(`window\.__twilightBuildID\s*=\s*"([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})"`),
		spadeURLPattern:        regexp.MustCompile(`"spade_url":"(.*?)"`),
		settingsURLPattern:     regexp.MustCompile(`(https://static.twitchcdn.net/config/settings.*?js|https://assets.twitch.tv/config/settings.*?.js)`),

		errLog: newErrorRateLimiter(60 * time.Second),
	}
}

// SetRetryPolicy overrides the default attempts/interval; used by tests.
func (c *Client) SetRetryPolicy(p RetryPolicy) { c.retry = p }

// Do executes one GQL operation with the retry policy applied and returns
// the response parsed into a decode.Value rooted at "$".
func (c *Client) Do(op Operation) (decode.Value, error) {
	var attempts []error

	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		val, err := c.doOnce(op)
		if err == nil {
			return val, nil
		}

		attempts = append(attempts, err)
		c.errLog.logf(op.OperationName, err.Error(), "GQL call failed", "operation", op.OperationName, "attempt", attempt, "error", err)

		var recov recoverableError
		if !errors.As(err, &recov) {
			return decode.Value{}, &RetryError{Operation: op.OperationName, Attempts: attempts}
		}

		if attempt < c.retry.Attempts {
			time.Sleep(time.Duration(c.retry.IntervalSeconds * float64(time.Second)))
		}
	}

	return decode.Value{}, &RetryError{Operation: op.OperationName, Attempts: attempts}
}

// DoBatch posts a batch of operations in one HTTP call, chunking into
// groups of 20 (Twitch's own practical batch ceiling for DropCampaignDetails
// style fan-out queries) and concatenating the per-chunk responses.
func (c *Client) DoBatch(ops []Operation) ([]decode.Value, error) {
	const chunkSize = 20

	var results []decode.Value
	for start := 0; start < len(ops); start += chunkSize {
		end := start + chunkSize
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[start:end]

		body, err := json.Marshal(chunk)
		if err != nil {
			return nil, fmt.Errorf("gql: marshal batch: %w", err)
		}

		respBody, err := c.postRaw(body)
		if err != nil {
			return nil, err
		}

		var raw []json.RawMessage
		if err := json.Unmarshal(respBody, &raw); err != nil {
			return nil, fmt.Errorf("gql: unmarshal batch response: %w", err)
		}

		for i, r := range raw {
			v, err := decode.Parse(r)
			if err != nil {
				return nil, fmt.Errorf("gql: decode batch element %d: %w", i, err)
			}
			results = append(results, v)
		}
	}

	return results, nil
}

func (c *Client) doOnce(op Operation) (decode.Value, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return decode.Value{}, fmt.Errorf("gql: marshal operation: %w", err)
	}

	respBody, err := c.postRaw(body)
	if err != nil {
		return decode.Value{}, err
	}

	val, err := decode.Parse(respBody)
	if err != nil {
		return decode.Value{}, fmt.Errorf("gql: decode response for %s: %w", op.OperationName, err)
	}

	if errsVal, ok := val.OptionalProperty("errors"); ok {
		if arr, err := errsVal.Array(); err == nil && len(arr) > 0 {
			messages := make([]string, 0, len(arr))
			for _, e := range arr {
				if m, err := e.Property("message"); err == nil {
					if s, err := m.String(); err == nil {
						messages = append(messages, s)
						continue
					}
				}
				messages = append(messages, "unknown error")
			}

			gqlErr := &GQLResponseError{Operation: op.OperationName, Messages: messages}
			if allRecoverable(messages) {
				return decode.Value{}, recoverableError{gqlErr}
			}
			return decode.Value{}, gqlErr
		}
	}

	return val, nil
}

func (c *Client) postRaw(body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, constants.GQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gql: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, recoverableError{fmt.Errorf("gql: request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, recoverableError{fmt.Errorf("gql: read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, recoverableError{fmt.Errorf("gql: status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gql: status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "OAuth "+c.session.AuthToken)
	req.Header.Set("Client-Id", constants.ClientIDTV)
	req.Header.Set("Client-Session-Id", c.session.SessionID)
	req.Header.Set("Client-Version", c.ClientVersion())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.session.UserAgent)
	req.Header.Set("X-Device-Id", c.session.DeviceID)
}

func (c *Client) ClientVersion() string {
	c.versionMu.RLock()
	defer c.versionMu.RUnlock()
	return c.clientVersion
}

// RefreshClientVersion scrapes the build-id embedded in the Twitch
// homepage. On any failure the previously known version is kept, since a
// stale-but-valid version is far less disruptive than refusing to make
// calls at all.
func (c *Client) RefreshClientVersion() {
	resp, err := c.http.Get(constants.TwitchURL)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	matches := c.twilightBuildIDPattern.FindSubmatch(body)
	if len(matches) < 2 {
		return
	}

	c.versionMu.Lock()
	c.clientVersion = string(matches[1])
	c.versionMu.Unlock()

	slog.Debug("refreshed client version", "version", string(matches[1]))
}

// GetChannelID resolves a login name to the numeric channel id GQL and
// the WebSocket protocol both key off of.
func (c *Client) GetChannelID(username string) (string, error) {
	op := GetIDFromLogin.WithVariables(map[string]interface{}{"login": strings.ToLower(username)})

	root, err := c.Do(op)
	if err != nil {
		return "", err
	}

	user, err := root.PropertyMap("data")
	if err != nil {
		return "", ErrStreamerDoesNotExist
	}
	userVal, ok := decode.Wrap(user, root.Path()+".data").OptionalPropertyMap("user")
	if !ok {
		return "", ErrStreamerDoesNotExist
	}

	id, ok := userVal["id"].(string)
	if !ok || id == "" {
		return "", ErrStreamerDoesNotExist
	}
	return id, nil
}

// StreamInfo is the subset of VideoPlayerStreamInfoOverlayChannel that the
// rest of the miner cares about, already lifted out of the raw GQL maps.
type StreamInfo struct {
	BroadcastID  string
	Title        string
	GameID       string
	GameName     string
	GameDisplay  string
	ViewersCount int
	Tags         []map[string]interface{}
}

// FetchStreamInfo returns a discriminated result instead of exception-style
// control flow: (info, true, nil) when live, (nil, false, nil) when
// confirmed offline, and (nil, false, err) when the call itself failed.
func (c *Client) FetchStreamInfo(username string) (*StreamInfo, bool, error) {
	op := VideoPlayerStreamInfoOverlayChannel.WithVariables(map[string]interface{}{"channel": username})

	root, err := c.Do(op)
	if err != nil {
		return nil, false, err
	}

	userMap, ok := root.OptionalPropertyMap("data")
	if ok {
		userMap, ok = decode.Wrap(userMap, root.Path()+".data").OptionalPropertyMap("user")
	}
	if !ok {
		return nil, false, nil
	}

	userVal := decode.Wrap(userMap, root.Path()+".data.user")
	streamMap, ok := userVal.OptionalPropertyMap("stream")
	if !ok {
		return nil, false, nil
	}
	streamVal := decode.Wrap(streamMap, userVal.Path()+".stream")

	info := &StreamInfo{}
	if id, err := streamVal.Property("id"); err == nil {
		info.BroadcastID, _ = id.String()
	}
	if vc, err := streamVal.Property("viewersCount"); err == nil {
		info.ViewersCount, _ = vc.Int()
	}
	if tagsVal, err := streamVal.Property("tags"); err == nil {
		if arr, err := tagsVal.Array(); err == nil {
			for _, t := range arr {
				if m, err := t.Map(); err == nil {
					info.Tags = append(info.Tags, m)
				}
			}
		}
	}

	if bsMap, ok := userVal.OptionalPropertyMap("broadcastSettings"); ok {
		bsVal := decode.Wrap(bsMap, userVal.Path()+".broadcastSettings")
		if title, err := bsVal.Property("title"); err == nil {
			info.Title, _ = title.String()
		}
		if gameMap, ok := bsVal.OptionalPropertyMap("game"); ok {
			info.GameID, _ = gameMap["id"].(string)
			info.GameName, _ = gameMap["name"].(string)
			info.GameDisplay, _ = gameMap["displayName"].(string)
		}
	}

	return info, true, nil
}

// GetSpadeURL performs the two-hop scrape: the streamer's channel page
// links to a settings*.js asset, which in turn embeds the spade analytics
// endpoint used to report watch-minutes.
func (c *Client) GetSpadeURL(username string) (string, error) {
	streamerURL := fmt.Sprintf("%s/%s", constants.TwitchURL, username)

	req, err := http.NewRequest(http.MethodGet, streamerURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constants.BrowserUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	settingsMatches := c.settingsURLPattern.FindSubmatch(body)
	if len(settingsMatches) < 2 {
		return "", fmt.Errorf("gql: failed to find settings URL for %s", username)
	}

	settingsResp, err := c.http.Get(string(settingsMatches[1]))
	if err != nil {
		return "", err
	}
	defer settingsResp.Body.Close()

	settingsBody, err := io.ReadAll(settingsResp.Body)
	if err != nil {
		return "", err
	}

	spadeMatches := c.spadeURLPattern.FindSubmatch(settingsBody)
	if len(spadeMatches) < 2 {
		return "", fmt.Errorf("gql: failed to find spade URL for %s", username)
	}

	return string(spadeMatches[1]), nil
}

// ChannelPointsContext is the parsed result of the ChannelPointsContext
// query: current balance, active multipliers, community goals and any
// claimable bonus.
type ChannelPointsContext struct {
	Balance           int
	Multipliers       []float64
	CommunityGoals    []map[string]interface{}
	AvailableClaimID  string
}

func (c *Client) LoadChannelPointsContext(channelLogin string) (*ChannelPointsContext, error) {
	op := ChannelPointsContext.WithVariables(map[string]interface{}{"channelLogin": channelLogin})

	root, err := c.Do(op)
	if err != nil {
		return nil, err
	}

	communityMap, ok := root.OptionalPropertyMap("data")
	if ok {
		communityMap, ok = decode.Wrap(communityMap, root.Path()+".data").OptionalPropertyMap("community")
	}
	if !ok {
		return nil, ErrStreamerDoesNotExist
	}
	channelMap, ok := decode.Wrap(communityMap, "$.data.community").OptionalPropertyMap("channel")
	if !ok {
		return nil, ErrStreamerDoesNotExist
	}
	channelVal := decode.Wrap(channelMap, "$.data.community.channel")

	out := &ChannelPointsContext{}

	selfMap, ok := channelVal.OptionalPropertyMap("self")
	if !ok {
		return out, nil
	}
	selfVal := decode.Wrap(selfMap, channelVal.Path()+".self")

	cpMap, ok := selfVal.OptionalPropertyMap("communityPoints")
	if !ok {
		return out, nil
	}
	cpVal := decode.Wrap(cpMap, selfVal.Path()+".communityPoints")

	if bal, err := cpVal.Property("balance"); err == nil {
		out.Balance, _ = bal.Int()
	}

	if multsVal, err := cpVal.Property("activeMultipliers"); err == nil {
		if arr, err := multsVal.Array(); err == nil {
			for _, m := range arr {
				if f, err := m.Property("factor"); err == nil {
					if v, err := f.Float64(); err == nil {
						out.Multipliers = append(out.Multipliers, v)
					}
				}
			}
		}
	}

	if goalsMap, ok := channelVal.OptionalPropertyMap("communityPointsSettings"); ok {
		if goalsVal, err := decode.Wrap(goalsMap, "").Property("goals"); err == nil {
			if arr, err := goalsVal.Array(); err == nil {
				for _, g := range arr {
					if m, err := g.Map(); err == nil {
						out.CommunityGoals = append(out.CommunityGoals, m)
					}
				}
			}
		}
	}

	if claimMap, ok := cpVal.OptionalPropertyMap("availableClaim"); ok {
		out.AvailableClaimID, _ = claimMap["id"].(string)
	}

	return out, nil
}

func (c *Client) ClaimBonus(channelID, claimID string) error {
	op := ClaimCommunityPoints.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{"channelID": channelID, "claimID": claimID},
	})
	_, err := c.Do(op)
	return err
}

func (c *Client) ClaimMoment(momentID string) error {
	op := CommunityMomentCalloutClaim.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{"momentID": momentID},
	})
	_, err := c.Do(op)
	return err
}

func (c *Client) JoinRaid(raidID string) error {
	op := JoinRaid.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{"raidID": raidID},
	})
	_, err := c.Do(op)
	return err
}

// MakePrediction places a bet and reports whether the server rejected it.
func (c *Client) MakePrediction(eventID, outcomeID string, amount int) error {
	op := MakePrediction.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{
			"eventID":       eventID,
			"outcomeID":     outcomeID,
			"points":        amount,
			"transactionID": uuid.New().String(),
		},
	})

	root, err := c.Do(op)
	if err != nil {
		return err
	}

	if result, ok := root.OptionalPropertyMap("data"); ok {
		if mp, ok := decode.Wrap(result, "").OptionalPropertyMap("makePrediction"); ok {
			if errData, ok := decode.Wrap(mp, "").OptionalPropertyMap("error"); ok {
				if code, ok := errData["code"].(string); ok {
					return fmt.Errorf("gql: prediction error: %s", code)
				}
			}
		}
	}

	return nil
}

func (c *Client) GetCampaignIDsForChannel(channelID string) ([]string, error) {
	op := DropsHighlightServiceAvailableDrops.WithVariables(map[string]interface{}{"channelID": channelID})

	root, err := c.Do(op)
	if err != nil {
		return nil, err
	}

	channelMap, ok := root.OptionalPropertyMap("data")
	if ok {
		channelMap, ok = decode.Wrap(channelMap, "").OptionalPropertyMap("channel")
	}
	if !ok {
		return nil, nil
	}
	campaignsVal, err := decode.Wrap(channelMap, "").Property("viewerDropCampaigns")
	if err != nil {
		return nil, nil
	}
	arr, err := campaignsVal.Array()
	if err != nil {
		return nil, nil
	}

	var ids []string
	for _, item := range arr {
		if m, err := item.Map(); err == nil {
			if id, ok := m["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (c *Client) GetPlaybackAccessToken(username string) (signature, value string, err error) {
	op := PlaybackAccessToken.WithVariables(map[string]interface{}{
		"login":      username,
		"isLive":     true,
		"isVod":      false,
		"vodID":      "",
		"playerType": "site",
	})

	root, err := c.Do(op)
	if err != nil {
		return "", "", err
	}

	data, ok := root.OptionalPropertyMap("data")
	if !ok {
		return "", "", fmt.Errorf("gql: no data in playback access token response")
	}
	dataVal := decode.Wrap(data, "")

	sat, _, err := dataVal.OneOfPropertyMap("streamPlaybackAccessToken", "streamAccessToken")
	if err != nil {
		return "", "", fmt.Errorf("gql: no stream access token for %s: %w", username, err)
	}

	signature, _ = sat["signature"].(string)
	value, _ = sat["value"].(string)
	if signature == "" || value == "" {
		return "", "", fmt.Errorf("gql: empty stream access token for %s", username)
	}
	return signature, value, nil
}

func (c *Client) ClaimDrop(dropInstanceID string) (bool, error) {
	op := DropsPageClaimDropRewards.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{"dropInstanceID": dropInstanceID},
	})

	root, err := c.Do(op)
	if err != nil {
		return false, err
	}

	data, ok := root.OptionalPropertyMap("data")
	if !ok {
		return false, nil
	}
	dataVal := decode.Wrap(data, "")

	if errs, err := dataVal.Property("errors"); err == nil {
		if arr, err := errs.Array(); err == nil && len(arr) > 0 {
			return false, nil
		}
	}

	claimRewards, ok := dataVal.OptionalPropertyMap("claimDropRewards")
	if !ok {
		return false, nil
	}

	status, _ := claimRewards["status"].(string)
	return status == "ELIGIBLE_FOR_ALL" || status == "DROP_INSTANCE_ALREADY_CLAIMED", nil
}

// GoalContribution is one entry of GetUserPointsContribution: how many
// points the authenticated user has already put toward a given community
// goal during the streamer's current stream.
type GoalContribution struct {
	GoalID                           string
	UserPointsContributedThisStream int
}

// GetUserPointsContribution returns the authenticated user's per-goal
// contribution so far this stream, used to bound a further contribution by
// the goal's per-stream-user maximum.
func (c *Client) GetUserPointsContribution(username string) ([]GoalContribution, error) {
	op := UserPointsContribution.WithVariables(map[string]interface{}{"channelLogin": username})

	root, err := c.Do(op)
	if err != nil {
		return nil, err
	}

	data, ok := root.OptionalPropertyMap("data")
	if !ok {
		return nil, nil
	}
	user, ok := decode.Wrap(data, "").OptionalPropertyMap("user")
	if !ok {
		return nil, nil
	}
	channel, ok := decode.Wrap(user, "").OptionalPropertyMap("channel")
	if !ok {
		return nil, nil
	}
	self, ok := decode.Wrap(channel, "").OptionalPropertyMap("self")
	if !ok {
		return nil, nil
	}
	cp, ok := decode.Wrap(self, "").OptionalPropertyMap("communityPoints")
	if !ok {
		return nil, nil
	}
	cpVal := decode.Wrap(cp, "")
	contribsVal, err := cpVal.Property("goalContributions")
	if err != nil {
		return nil, nil
	}
	arr, err := contribsVal.Array()
	if err != nil {
		return nil, nil
	}

	var out []GoalContribution
	for _, item := range arr {
		m, err := item.Map()
		if err != nil {
			continue
		}
		gc := GoalContribution{}
		gc.GoalID, _ = m["id"].(string)
		if thisStream, ok := m["userPointsContributedThisStream"].(float64); ok {
			gc.UserPointsContributedThisStream = int(thisStream)
		}
		out = append(out, gc)
	}
	return out, nil
}

// GetFollowedChannels returns every channel login the authenticated user
// follows, paginating through ChannelFollows' cursor until Twitch reports
// no further page. order is "ASC" or "DESC"; Twitch has no "by priority"
// order, only alphabetical-by-follow-date ordering.
func (c *Client) GetFollowedChannels(order string) ([]string, error) {
	if order == "" {
		order = "ASC"
	}

	var logins []string
	cursor := ""
	for {
		vars := map[string]interface{}{"limit": 100, "order": order}
		if cursor != "" {
			vars["cursor"] = cursor
		}
		op := ChannelFollows.WithVariables(vars)

		root, err := c.Do(op)
		if err != nil {
			return logins, err
		}

		data, ok := root.OptionalPropertyMap("data")
		if !ok {
			return logins, nil
		}
		user, ok := decode.Wrap(data, "").OptionalPropertyMap("user")
		if !ok {
			return logins, nil
		}
		follows, ok := decode.Wrap(user, "").OptionalPropertyMap("follows")
		if !ok {
			return logins, nil
		}
		followsVal := decode.Wrap(follows, "")

		edgesVal, err := followsVal.Property("edges")
		if err != nil {
			return logins, nil
		}
		edges, err := edgesVal.Array()
		if err != nil {
			return logins, nil
		}

		cursor = ""
		for _, edge := range edges {
			edgeMap, err := edge.Map()
			if err != nil {
				continue
			}
			if node, ok := edgeMap["node"].(map[string]interface{}); ok {
				if login, ok := node["login"].(string); ok && login != "" {
					logins = append(logins, strings.ToLower(login))
				}
			}
			if edgeCursor, ok := edgeMap["cursor"].(string); ok {
				cursor = edgeCursor
			}
		}

		hasNext := false
		if pageInfoMap, ok := follows["pageInfo"].(map[string]interface{}); ok {
			hasNext, _ = pageInfoMap["hasNextPage"].(bool)
		}
		if !hasNext || cursor == "" {
			break
		}
	}

	return logins, nil
}

func (c *Client) ContributeToCommunityGoal(channelID, goalID string, amount int) error {
	op := ContributeCommunityPointsCommunityGoal.WithVariables(map[string]interface{}{
		"input": map[string]interface{}{
			"amount":        amount,
			"channelID":     channelID,
			"goalID":        goalID,
			"transactionID": uuid.New().String(),
		},
	})

	root, err := c.Do(op)
	if err != nil {
		return err
	}

	if data, ok := root.OptionalPropertyMap("data"); ok {
		if contribute, ok := decode.Wrap(data, "").OptionalPropertyMap("contributeCommunityPointsCommunityGoal"); ok {
			if errData, ok := decode.Wrap(contribute, "").OptionalPropertyMap("error"); ok {
				return fmt.Errorf("gql: contribution error: %v", errData)
			}
		}
	}
	return nil
}

// GetDropsDashboard and GetInventory hand back raw maps rather than typed
// results: the drops sync logic in internal/drops already knows how to walk
// these shapes and gains little from a second typed layer on top.
func (c *Client) GetDropsDashboard() ([]map[string]interface{}, error) {
	root, err := c.Do(ViewerDropsDashboard)
	if err != nil {
		return nil, err
	}

	currentUser, ok := root.OptionalPropertyMap("data")
	if ok {
		currentUser, ok = decode.Wrap(currentUser, "").OptionalPropertyMap("currentUser")
	}
	if !ok {
		return nil, nil
	}

	campaignsVal, err := decode.Wrap(currentUser, "").Property("dropCampaigns")
	if err != nil {
		return nil, nil
	}
	arr, err := campaignsVal.Array()
	if err != nil {
		return nil, nil
	}

	var out []map[string]interface{}
	for _, item := range arr {
		if m, err := item.Map(); err == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Client) GetInventory() (map[string]interface{}, error) {
	root, err := c.Do(Inventory)
	if err != nil {
		return nil, err
	}

	currentUser, ok := root.OptionalPropertyMap("data")
	if ok {
		currentUser, ok = decode.Wrap(currentUser, "").OptionalPropertyMap("currentUser")
	}
	if !ok {
		return nil, nil
	}

	inventory, ok := decode.Wrap(currentUser, "").OptionalPropertyMap("inventory")
	if !ok {
		return nil, nil
	}
	return inventory, nil
}
