package client

import (
	"context"
	"errors"
	"net/url"
)

const (
	defaultMatchCount   = 60
	defaultMessageCount = 100
)

func (c *Client) Meta(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, "/meta", nil)
}

// Recs fetches up to limit recommended profiles.
func (c *Client) Recs(ctx context.Context, limit int) (map[string]any, error) {
	return c.Post(ctx, "/user/recs", map[string]any{"limit": limit})
}

// Matches returns the raw match records under data.matches. A zero count
// omits the paging parameters.
func (c *Client) Matches(ctx context.Context, count int, messaged bool) ([]map[string]any, error) {
	var payload map[string]any
	if count > 0 {
		pageToken, err := c.options.pageTokenGenerator()
		if err != nil {
			return nil, err
		}

		payload = map[string]any{
			"messaged":   boolFlag(messaged),
			"count":      count,
			"page_token": pageToken,
		}
	}

	res, err := c.Get(ctx, "/v2/matches", payload)
	if err != nil {
		return nil, err
	}

	page, err := decodeInto[struct {
		Data struct {
			Matches []map[string]any `json:"matches"`
		} `json:"data"`
	}](res)
	if err != nil {
		return nil, &RequestError{Message: "unexpected matches payload", Err: err}
	}

	return page.Data.Matches, nil
}

// Messages fetches the message history of a match. A nil result with a nil
// error means the API rejected the call, which happens once the match has
// been removed.
func (c *Client) Messages(ctx context.Context, matchID string, count int) (map[string]any, error) {
	var payload map[string]any
	if count > 0 {
		pageToken, err := c.options.pageTokenGenerator()
		if err != nil {
			return nil, err
		}

		payload = map[string]any{
			"count":      count,
			"page_token": pageToken,
		}
	}

	res, err := c.Get(ctx, "/v2/matches/"+url.PathEscape(matchID)+"/messages", payload)
	return swallowRequestError(c, res, err)
}

func (c *Client) Profile(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, "/profile", nil)
}

func (c *Client) UpdateProfile(ctx context.Context, profile map[string]any) (map[string]any, error) {
	return c.Post(ctx, "/profile", profile)
}

func (c *Client) Like(ctx context.Context, userID string) (map[string]any, error) {
	return c.Get(ctx, "/like/"+url.PathEscape(userID), nil)
}

// Superlike fails with a [RequestError] wrapping [ErrSuperlikeLimitExceeded]
// when the API accepts the call but flags limit_exceeded.
func (c *Client) Superlike(ctx context.Context, userID string) (map[string]any, error) {
	res, err := c.Post(ctx, "/like/"+url.PathEscape(userID)+"/super", nil)
	if err != nil {
		return nil, err
	}

	if exceeded, _ := res["limit_exceeded"].(bool); exceeded {
		return nil, &RequestError{Err: ErrSuperlikeLimitExceeded}
	}

	return res, nil
}

func (c *Client) Dislike(ctx context.Context, userID string) (map[string]any, error) {
	return c.Get(ctx, "/pass/"+url.PathEscape(userID), nil)
}

func (c *Client) SendMessage(ctx context.Context, matchID, body string) (map[string]any, error) {
	return c.Post(ctx, "/user/matches/"+url.PathEscape(matchID), map[string]any{"message": body})
}

func (c *Client) Report(ctx context.Context, userID string, cause int) (map[string]any, error) {
	return c.Post(ctx, "/report/"+url.PathEscape(userID), map[string]any{"cause": cause})
}

// UserInfo fetches a single profile. Like [Client.Messages], a rejected
// call yields a nil result and a nil error.
func (c *Client) UserInfo(ctx context.Context, userID string) (map[string]any, error) {
	res, err := c.Get(ctx, "/user/"+url.PathEscape(userID), nil)
	return swallowRequestError(c, res, err)
}

// Ping reports the current location.
func (c *Client) Ping(ctx context.Context, lat, lon float64) (map[string]any, error) {
	return c.Post(ctx, "/user/ping", map[string]any{"lat": lat, "lon": lon})
}

func (c *Client) Friends(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, "/group/friends", nil)
}

// LikeMessage hearts a message. The API answers 201 with no content.
func (c *Client) LikeMessage(ctx context.Context, messageID string) (map[string]any, error) {
	return c.Post(ctx, "/message/"+url.PathEscape(messageID)+"/like", nil)
}

// UnlikeMessage removes a heart. The API answers 204.
func (c *Client) UnlikeMessage(ctx context.Context, messageID string) (map[string]any, error) {
	return c.Delete(ctx, "/message/"+url.PathEscape(messageID)+"/like")
}

// Updates polls for activity. The first poll of a session uses OPTIONS; later
// polls post the last activity date seen, if any.
func (c *Client) Updates(ctx context.Context, since string, first bool) (map[string]any, error) {
	if first {
		return c.Options(ctx, "/updates", nil)
	}

	var payload map[string]any
	if since != "" {
		payload = map[string]any{"last_activity_date": since}
	}
	return c.Post(ctx, "/updates", payload)
}

// DeleteMatch unmatches.
func (c *Client) DeleteMatch(ctx context.Context, matchID string) (map[string]any, error) {
	return c.Delete(ctx, "/user/matches/"+url.PathEscape(matchID))
}

// swallowRequestError reports a non-2xx answer as missing data. A 2xx body
// that fails to decode still propagates.
func swallowRequestError(c *Client, res map[string]any, err error) (map[string]any, error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && (reqErr.StatusCode < 200 || reqErr.StatusCode >= 300) {
		c.options.requestLogger.Debugf("treating %v as missing data", reqErr)
		return nil, nil
	}
	return res, err
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
