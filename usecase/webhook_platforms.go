package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"social-publisher/domain/model"
)

var errUnrecognizedPayload = errors.New("unrecognized webhook payload")

// WebhookSource verifies and normalizes deliveries from one platform.
type WebhookSource interface {
	Platform() model.Platform
	// SignatureHeader names the request header carrying the body signature.
	SignatureHeader() string
	VerifySignature(rawBody []byte, signature string) bool
	// Handshake answers a subscription verification request. ok is false when the request is rejected.
	Handshake(query url.Values) (body []byte, contentType string, ok bool)
	ParseEvents(rawBody []byte) ([]*model.WebhookEvent, error)
}

func hmacSHA256(secret string, data []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return mac.Sum(nil)
}

// verifyHex compares a hex encoded HMAC-SHA256 of body, with an optional prefix, in constant time.
func verifyHex(secret string, body []byte, signature, prefix string) bool {
	if secret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), prefix)
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, hmacSHA256(secret, body))
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// facebook

type facebookWebhook struct {
	appSecret   string
	verifyToken string
}

// NewFacebookWebhook signs with the app secret; the handshake echoes hub.challenge.
func NewFacebookWebhook(appSecret, verifyToken string) WebhookSource {
	return &facebookWebhook{appSecret: appSecret, verifyToken: verifyToken}
}

func (w *facebookWebhook) Platform() model.Platform { return model.PlatformFacebook }

func (w *facebookWebhook) SignatureHeader() string { return "X-Hub-Signature-256" }

func (w *facebookWebhook) VerifySignature(rawBody []byte, signature string) bool {
	return verifyHex(w.appSecret, rawBody, signature, "sha256=")
}

func (w *facebookWebhook) Handshake(query url.Values) ([]byte, string, bool) {
	if w.verifyToken == "" || query.Get("hub.mode") != "subscribe" {
		return nil, "", false
	}
	if !hmac.Equal([]byte(query.Get("hub.verify_token")), []byte(w.verifyToken)) {
		return nil, "", false
	}
	return []byte(query.Get("hub.challenge")), "text/plain", true
}

type facebookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Item      string `json:"item"`
				Verb      string `json:"verb"`
				PostID    string `json:"post_id"`
				CommentID string `json:"comment_id"`
			} `json:"value"`
		} `json:"changes"`
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message struct {
				MID string `json:"mid"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

func facebookEventType(field, item string) (model.WebhookEventType, bool) {
	if field == "mention" {
		return model.WebhookMention, true
	}
	switch item {
	case "comment":
		return model.WebhookComment, true
	case "reaction", "like":
		return model.WebhookReaction, true
	case "share":
		return model.WebhookShare, true
	case "status", "post", "photo", "video":
		return model.WebhookPost, true
	}
	return "", false
}

func (w *facebookWebhook) ParseEvents(rawBody []byte) ([]*model.WebhookEvent, error) {
	var payload facebookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}
	if payload.Object != "page" || len(payload.Entry) == 0 {
		return nil, errUnrecognizedPayload
	}
	var events []*model.WebhookEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			kind, ok := facebookEventType(change.Field, change.Value.Item)
			if !ok {
				continue
			}
			resource := change.Value.CommentID
			if resource == "" {
				resource = change.Value.PostID
			}
			events = append(events, &model.WebhookEvent{
				Platform:    model.PlatformFacebook,
				EventType:   kind,
				TargetID:    entry.ID,
				ResourceURN: strPtr(resource),
			})
		}
		for _, msg := range entry.Messaging {
			events = append(events, &model.WebhookEvent{
				Platform:    model.PlatformFacebook,
				EventType:   model.WebhookMessage,
				TargetID:    entry.ID,
				ResourceURN: strPtr(msg.Message.MID),
			})
		}
	}
	if len(events) == 0 {
		return nil, errUnrecognizedPayload
	}
	return events, nil
}

// linkedin

type linkedinWebhook struct {
	clientSecret string
}

// NewLinkedInWebhook validates X-LI-Signature and answers challengeCode validation requests.
func NewLinkedInWebhook(clientSecret string) WebhookSource {
	return &linkedinWebhook{clientSecret: clientSecret}
}

func (w *linkedinWebhook) Platform() model.Platform { return model.PlatformLinkedIn }

func (w *linkedinWebhook) SignatureHeader() string { return "X-LI-Signature" }

func (w *linkedinWebhook) VerifySignature(rawBody []byte, signature string) bool {
	return verifyHex(w.clientSecret, rawBody, signature, "hmacsha256=")
}

func (w *linkedinWebhook) Handshake(query url.Values) ([]byte, string, bool) {
	code := query.Get("challengeCode")
	if code == "" || w.clientSecret == "" {
		return nil, "", false
	}
	body, err := json.Marshal(map[string]string{
		"challengeCode":     code,
		"challengeResponse": hex.EncodeToString(hmacSHA256(w.clientSecret, []byte(code))),
	})
	if err != nil {
		return nil, "", false
	}
	return body, "application/json", true
}

type linkedinPayload struct {
	Notifications []struct {
		Action               string `json:"action"`
		OrganizationalEntity string `json:"organizationalEntity"`
		SourcePost           string `json:"sourcePost"`
		GeneratedActivity    string `json:"generatedActivity"`
	} `json:"notifications"`
}

func linkedinEventType(action string) (model.WebhookEventType, bool) {
	switch action {
	case "COMMENT", "ADMIN_COMMENT", "COMMENT_EDIT":
		return model.WebhookComment, true
	case "LIKE":
		return model.WebhookReaction, true
	case "SHARE":
		return model.WebhookShare, true
	case "SHARE_MENTION", "COMMENT_MENTION":
		return model.WebhookMention, true
	}
	return "", false
}

func (w *linkedinWebhook) ParseEvents(rawBody []byte) ([]*model.WebhookEvent, error) {
	var payload linkedinPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}
	var events []*model.WebhookEvent
	for _, n := range payload.Notifications {
		kind, ok := linkedinEventType(n.Action)
		if !ok || n.OrganizationalEntity == "" {
			continue
		}
		resource := n.GeneratedActivity
		if resource == "" {
			resource = n.SourcePost
		}
		events = append(events, &model.WebhookEvent{
			Platform:    model.PlatformLinkedIn,
			EventType:   kind,
			TargetID:    n.OrganizationalEntity,
			ResourceURN: strPtr(resource),
		})
	}
	if len(events) == 0 {
		return nil, errUnrecognizedPayload
	}
	return events, nil
}

// twitter

type twitterWebhook struct {
	consumerSecret string
}

// NewTwitterWebhook implements the account activity CRC and base64 signature scheme.
func NewTwitterWebhook(consumerSecret string) WebhookSource {
	return &twitterWebhook{consumerSecret: consumerSecret}
}

func (w *twitterWebhook) Platform() model.Platform { return model.PlatformTwitter }

func (w *twitterWebhook) SignatureHeader() string { return "X-Twitter-Webhooks-Signature" }

func (w *twitterWebhook) VerifySignature(rawBody []byte, signature string) bool {
	if w.consumerSecret == "" || signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil {
		return false
	}
	return hmac.Equal(got, hmacSHA256(w.consumerSecret, rawBody))
}

func (w *twitterWebhook) Handshake(query url.Values) ([]byte, string, bool) {
	token := query.Get("crc_token")
	if token == "" || w.consumerSecret == "" {
		return nil, "", false
	}
	body, err := json.Marshal(map[string]string{
		"response_token": "sha256=" + base64.StdEncoding.EncodeToString(hmacSHA256(w.consumerSecret, []byte(token))),
	})
	if err != nil {
		return nil, "", false
	}
	return body, "application/json", true
}

type twitterPayload struct {
	ForUserID         string         `json:"for_user_id"`
	TweetCreateEvents []twitterTweet `json:"tweet_create_events"`
	FavoriteEvents    []struct {
		ID             string       `json:"id"`
		FavoritedTweet twitterTweet `json:"favorited_status"`
	} `json:"favorite_events"`
	FollowEvents []struct {
		Source struct {
			ID string `json:"id"`
		} `json:"source"`
	} `json:"follow_events"`
	DirectMessageEvents []struct {
		ID string `json:"id"`
	} `json:"direct_message_events"`
}

type twitterTweet struct {
	IDStr           string           `json:"id_str"`
	RetweetedStatus *json.RawMessage `json:"retweeted_status"`
}

func (w *twitterWebhook) ParseEvents(rawBody []byte) ([]*model.WebhookEvent, error) {
	var payload twitterPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}
	if payload.ForUserID == "" {
		return nil, errUnrecognizedPayload
	}
	var events []*model.WebhookEvent
	add := func(kind model.WebhookEventType, resource string) {
		events = append(events, &model.WebhookEvent{
			Platform:    model.PlatformTwitter,
			EventType:   kind,
			TargetID:    payload.ForUserID,
			ResourceURN: strPtr(resource),
		})
	}
	for _, t := range payload.TweetCreateEvents {
		if t.RetweetedStatus != nil {
			add(model.WebhookShare, t.IDStr)
		} else {
			add(model.WebhookMention, t.IDStr)
		}
	}
	for _, f := range payload.FavoriteEvents {
		add(model.WebhookReaction, f.FavoritedTweet.IDStr)
	}
	for _, f := range payload.FollowEvents {
		add(model.WebhookFollow, f.Source.ID)
	}
	for _, dm := range payload.DirectMessageEvents {
		add(model.WebhookMessage, dm.ID)
	}
	if len(events) == 0 {
		return nil, errUnrecognizedPayload
	}
	return events, nil
}
