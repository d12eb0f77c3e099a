package client

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"
)

// Credentials identify the account. A non-empty XAuthToken resumes an
// existing session; otherwise the Facebook identity is exchanged for one.
type Credentials struct {
	FacebookID    string
	FacebookToken string
	XAuthToken    string
}

type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the high level API. List operations return lazy sequences:
// nothing is fetched until the sequence is ranged over, every range starts
// a fresh fetch, and breaking out of the loop stops fetching. Sequences
// must be consumed by one goroutine at a time.
type Session struct {
	client *Client
	state  State

	profileMu sync.Mutex
	profile   *Profile

	updatesMu     sync.Mutex
	updatesPolled bool
}

// NewSession builds a client for baseURL (or [DefaultBaseURL]) and, unless
// creds carries a session token, performs the identity exchange before
// returning.
func NewSession(ctx context.Context, baseURL string, creds Credentials, opts ...Option) (*Session, error) {
	if creds.FacebookToken == "" && creds.XAuthToken == "" {
		return nil, newInitializationError("either XAuth or facebook token must be set")
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if creds.XAuthToken != "" {
		opts = append(opts, WithAuthToken(creds.XAuthToken))
	}

	s := &Session{client: New(baseURL, opts...)}

	if err := s.client.Connect(ctx); err != nil {
		return nil, err
	}

	if creds.XAuthToken == "" {
		s.state = StateAuthenticating
		if _, err := s.client.Authenticate(ctx, creds.FacebookID, creds.FacebookToken); err != nil {
			return nil, err
		}
	}

	s.state = StateReady
	return s, nil
}

func (s *Session) State() State {
	return s.state
}

// Client exposes the underlying transport for calls the session does not wrap.
func (s *Session) Client() *Client {
	return s.client
}

func (s *Session) Close() error {
	return s.client.Close()
}

// Recommendations yields recommended users, fetching batches of up to limit
// until the API returns an empty batch. Rate-limit placeholders are skipped.
// An error is yielded once and ends the sequence.
func (s *Session) Recommendations(ctx context.Context, limit int) iter.Seq2[*User, error] {
	return func(yield func(*User, error) bool) {
		for {
			res, err := s.client.Recs(ctx, limit)
			if err != nil {
				yield(nil, err)
				return
			}

			results, _ := res["results"].([]any)
			if len(results) == 0 {
				return
			}

			for _, raw := range results {
				if rateLimitedRecord(raw) {
					continue
				}

				user, err := decodeInto[User](raw)
				if err != nil {
					yield(nil, err)
					return
				}

				if !yield(user, nil) {
					return
				}
			}
		}
	}
}

// Matches yields the matches that have a linked person. A non-zero since
// drops matches without activity after it.
func (s *Session) Matches(ctx context.Context, since time.Time) iter.Seq2[*Match, error] {
	return func(yield func(*Match, error) bool) {
		records, err := s.client.Matches(ctx, defaultMatchCount, false)
		if err != nil {
			yield(nil, err)
			return
		}

		yieldMatches(records, since, yield)
	}
}

// Updates yields matches reported by the updates endpoint.
func (s *Session) Updates(ctx context.Context, since time.Time) iter.Seq2[*Match, error] {
	return func(yield func(*Match, error) bool) {
		page, err := s.pollUpdates(ctx, since)
		if err != nil {
			yield(nil, err)
			return
		}

		yieldMatches(page.Matches, time.Time{}, yield)
	}
}

// LikedMessages returns the message likes reported by the updates endpoint.
// It polls the same endpoint as [Session.Updates].
func (s *Session) LikedMessages(ctx context.Context, since time.Time) ([]LikedMessage, error) {
	page, err := s.pollUpdates(ctx, since)
	if err != nil {
		return nil, err
	}
	return page.LikedMessages, nil
}

type updatesPage struct {
	Matches       []map[string]any `json:"matches"`
	LikedMessages []LikedMessage   `json:"liked_messages"`
}

func (s *Session) pollUpdates(ctx context.Context, since time.Time) (*updatesPage, error) {
	s.updatesMu.Lock()
	first := !s.updatesPolled
	s.updatesMu.Unlock()

	var sinceParam string
	if !since.IsZero() {
		sinceParam = since.UTC().Format("2006-01-02T15:04:05.000Z")
	}

	res, err := s.client.Updates(ctx, sinceParam, first)
	if err != nil {
		return nil, err
	}

	s.updatesMu.Lock()
	s.updatesPolled = true
	s.updatesMu.Unlock()

	return decodeInto[updatesPage](res)
}

func yieldMatches(records []map[string]any, since time.Time, yield func(*Match, error) bool) {
	for _, raw := range records {
		if _, ok := raw["person"]; !ok {
			continue
		}

		match, err := decodeInto[Match](raw)
		if err != nil {
			yield(nil, err)
			return
		}

		if !since.IsZero() && match.LastActivityDate.Before(since) {
			continue
		}

		if !yield(match, nil) {
			return
		}
	}
}

// SocialFriends yields the Facebook friends using the social feature.
func (s *Session) SocialFriends(ctx context.Context) iter.Seq2[*Friend, error] {
	return func(yield func(*Friend, error) bool) {
		res, err := s.client.Friends(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		results, _ := res["results"].([]any)
		for _, raw := range results {
			friend, err := decodeInto[Friend](raw)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(friend, nil) {
				return
			}
		}
	}
}

// Meta reads the current rate-limit state. It is never cached.
func (s *Session) Meta(ctx context.Context) (*Meta, error) {
	res, err := s.client.Meta(ctx)
	if err != nil {
		return nil, err
	}
	return decodeInto[Meta](res)
}

func (s *Session) LikesRemaining(ctx context.Context) (int, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return 0, err
	}
	return meta.Rating.LikesRemaining, nil
}

// SecondsUntilCanLike returns rate_limited_until (epoch milliseconds) in
// seconds minus the current epoch second. Without an active limit it
// returns zero.
func (s *Session) SecondsUntilCanLike(ctx context.Context) (float64, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return 0, err
	}

	if meta.Rating.RateLimitedUntil == nil {
		return 0, nil
	}

	now := s.client.options.now().Unix()
	return float64(*meta.Rating.RateLimitedUntil)/1000 - float64(now), nil
}

// Profile returns the account profile, fetching it on first use. Concurrent
// first calls share one fetch. The value is kept until [Session.InvalidateProfile].
func (s *Session) Profile(ctx context.Context) (*Profile, error) {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()

	if s.profile != nil {
		return s.profile, nil
	}

	res, err := s.client.Profile(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := decodeInto[Profile](res)
	if err != nil {
		return nil, err
	}

	s.profile = profile
	return profile, nil
}

func (s *Session) InvalidateProfile() {
	s.profileMu.Lock()
	s.profile = nil
	s.profileMu.Unlock()
}

func (s *Session) Banned(ctx context.Context) (bool, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return false, err
	}
	return profile.Banned, nil
}

// UpdateProfile posts the changed fields and drops the cached profile.
func (s *Session) UpdateProfile(ctx context.Context, fields map[string]any) (map[string]any, error) {
	res, err := s.client.UpdateProfile(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.InvalidateProfile()
	return res, nil
}

func (s *Session) UpdateLocation(ctx context.Context, lat, lon float64) (map[string]any, error) {
	return s.client.Ping(ctx, lat, lon)
}

// Like likes a user and reports whether it produced a match.
func (s *Session) Like(ctx context.Context, userID string) (bool, error) {
	res, err := s.client.Like(ctx, userID)
	if err != nil {
		return false, err
	}
	return isMatch(res), nil
}

// Superlike superlikes a user and reports whether it produced a match.
func (s *Session) Superlike(ctx context.Context, userID string) (bool, error) {
	res, err := s.client.Superlike(ctx, userID)
	if err != nil {
		return false, err
	}
	return isMatch(res), nil
}

func (s *Session) Dislike(ctx context.Context, userID string) error {
	_, err := s.client.Dislike(ctx, userID)
	return err
}

func (s *Session) Report(ctx context.Context, userID string, cause int) error {
	_, err := s.client.Report(ctx, userID, cause)
	return err
}

// SendMessage sends body to a match and returns the new message ID.
func (s *Session) SendMessage(ctx context.Context, matchID, body string) (string, error) {
	res, err := s.client.SendMessage(ctx, matchID, body)
	if err != nil {
		return "", err
	}
	id, _ := res["_id"].(string)
	return id, nil
}

func (s *Session) LikeMessage(ctx context.Context, messageID string) error {
	_, err := s.client.LikeMessage(ctx, messageID)
	return err
}

func (s *Session) UnlikeMessage(ctx context.Context, messageID string) error {
	_, err := s.client.UnlikeMessage(ctx, messageID)
	return err
}

func (s *Session) DeleteMatch(ctx context.Context, matchID string) error {
	_, err := s.client.DeleteMatch(ctx, matchID)
	return err
}

// RefreshMessages reloads the message history of m. When the API no longer
// knows the match, m is marked deleted and nil is returned.
func (s *Session) RefreshMessages(ctx context.Context, m *Match) ([]Message, error) {
	if m.ID == "" {
		return nil, nil
	}

	res, err := s.client.Messages(ctx, m.ID, defaultMessageCount)
	if err != nil {
		return nil, err
	}

	if res == nil {
		m.Deleted = true
		return nil, nil
	}

	page, err := decodeInto[struct {
		Data struct {
			Messages []Message `json:"messages"`
		} `json:"data"`
	}](res)
	if err != nil {
		return nil, err
	}

	m.Messages = page.Data.Messages
	return m.Messages, nil
}

// RefreshUser loads the full profile of the person behind m. When the API
// no longer knows the user, m is marked deleted and nil is returned.
func (s *Session) RefreshUser(ctx context.Context, m *Match) (*User, error) {
	userID := m.UserID()
	if userID == "" {
		return nil, nil
	}

	res, err := s.client.UserInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	if res == nil {
		m.Deleted = true
		return nil, nil
	}

	results, _ := res["results"].(map[string]any)
	if results == nil {
		results = map[string]any{}
	}
	results["_id"] = userID

	user, err := decodeInto[User](results)
	if err != nil {
		return nil, err
	}

	m.User = user
	return user, nil
}

func isMatch(res map[string]any) bool {
	switch v := res["match"].(type) {
	case bool:
		return v
	case map[string]any:
		return true
	default:
		return false
	}
}
