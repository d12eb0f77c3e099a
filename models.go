package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// rateLimitedIDPrefix marks placeholder profiles the API returns in place
// of real recommendations while the account is rate limited.
const rateLimitedIDPrefix = "tinder_rate_limited_id_"

// Photo widths served by the image CDN besides the original.
var photoWidths = []int{84, 172, 320, 640}

var genders = []string{"male", "female"}

type ProcessedFile struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Photo struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	ProcessedFiles []ProcessedFile `json:"processedFiles"`
}

type School struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Job struct {
	Title *struct {
		Name string `json:"name"`
	} `json:"title"`
	Company *struct {
		Name string `json:"name"`
	} `json:"company"`
}

type Instagram struct {
	Username string  `json:"username"`
	Photos   []Photo `json:"photos"`
}

// User is a profile as returned by the recommendation and user info
// endpoints. Only the ID is required.
type User struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	Bio           string     `json:"bio"`
	BirthDate     time.Time  `json:"birth_date"`
	PingTime      time.Time  `json:"ping_time"`
	GenderCode    *int       `json:"gender"`
	DistanceMi    *float64   `json:"distance_mi"`
	DistanceKmRaw *float64   `json:"distance_km"`
	Photos        []Photo    `json:"photos"`
	Schools       []School   `json:"schools"`
	Jobs          []Job      `json:"jobs"`
	Instagram     *Instagram `json:"instagram"`
	CommonLikes   []any      `json:"common_likes"`
	CommonFriends []any      `json:"common_friends"`
}

func (u *User) validate() error {
	if u.ID == "" {
		return errors.New("user has no _id")
	}
	return nil
}

// RateLimited reports whether u is a placeholder rather than a real profile.
func (u *User) RateLimited() bool {
	return strings.HasPrefix(u.ID, rateLimitedIDPrefix)
}

// rateLimitedRecord checks the raw record so placeholders are dropped even
// when the rest of the record would not decode.
func rateLimitedRecord(raw any) bool {
	record, _ := raw.(map[string]any)
	id, _ := record["_id"].(string)
	return strings.HasPrefix(id, rateLimitedIDPrefix)
}

// Age returns the age in whole years at now, or zero without a birth date.
func (u *User) Age(now time.Time) int {
	if u.BirthDate.IsZero() {
		return 0
	}

	age := now.Year() - u.BirthDate.Year()
	if now.Month() < u.BirthDate.Month() || (now.Month() == u.BirthDate.Month() && now.Day() < u.BirthDate.Day()) {
		age--
	}
	return age
}

func (u *User) Gender() string {
	if u.GenderCode == nil || *u.GenderCode < 0 || *u.GenderCode >= len(genders) {
		return "unknown"
	}
	return genders[*u.GenderCode]
}

// DistanceKm prefers the kilometre value sent by the API and converts the
// mile value otherwise.
func (u *User) DistanceKm() float64 {
	switch {
	case u.DistanceKmRaw != nil:
		return *u.DistanceKmRaw
	case u.DistanceMi != nil:
		return *u.DistanceMi * 1.60934
	default:
		return 0
	}
}

// PhotoURLs returns the original photo URLs when width is zero, or the
// URLs of the processed files with exactly that width.
func (u *User) PhotoURLs(width int) ([]string, error) {
	if width != 0 && !slices.Contains(photoWidths, width) {
		return nil, fmt.Errorf("unsupported photo width %d, expected one of %v", width, photoWidths)
	}

	var urls []string
	for _, p := range u.Photos {
		if width == 0 {
			urls = append(urls, p.URL)
			continue
		}
		for _, f := range p.ProcessedFiles {
			if f.Width == width {
				urls = append(urls, f.URL)
			}
		}
	}
	return urls, nil
}

func (u *User) Thumbnails() []string {
	urls, _ := u.PhotoURLs(84)
	return urls
}

func (u *User) SchoolNames() []string {
	names := make([]string, 0, len(u.Schools))
	for _, s := range u.Schools {
		names = append(names, s.Name)
	}
	return names
}

// JobTitles renders each job as "title @ company", or whichever half is present.
func (u *User) JobTitles() []string {
	var jobs []string
	for _, j := range u.Jobs {
		switch {
		case j.Title != nil && j.Company != nil:
			jobs = append(jobs, j.Title.Name+" @ "+j.Company.Name)
		case j.Company != nil:
			jobs = append(jobs, j.Company.Name)
		case j.Title != nil:
			jobs = append(jobs, j.Title.Name)
		}
	}
	return jobs
}

func (u *User) String() string {
	return u.Name + " (" + strconv.Itoa(u.Age(time.Now())) + ")"
}

// Profile is the authenticated account's own profile.
type Profile struct {
	User
	Banned         bool   `json:"banned"`
	Discoverable   bool   `json:"discoverable"`
	AgeFilterMin   int    `json:"age_filter_min"`
	AgeFilterMax   int    `json:"age_filter_max"`
	DistanceFilter int    `json:"distance_filter"`
	GenderFilter   int    `json:"gender_filter"`
	Email          string `json:"email"`
}

type Person struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	BirthDate time.Time `json:"birth_date"`
	Photos    []Photo   `json:"photos"`
}

type Message struct {
	ID        string    `json:"_id"`
	MatchID   string    `json:"match_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"message"`
	SentDate  time.Time `json:"sent_date"`
	Timestamp int64     `json:"timestamp"`
}

// LikedMessage records a heart on a message.
type LikedMessage struct {
	MessageID string `json:"message_id"`
	MatchID   string `json:"match_id"`
	LikerID   string `json:"liker_id"`
	UpdatedAt string `json:"updated_at"`
	IsLiked   bool   `json:"is_liked"`
}

// Match is a mutual like. User is filled by [Session.RefreshUser], and
// Deleted is set once the API reports the match or its user as gone.
type Match struct {
	ID               string    `json:"_id"`
	LastActivityDate time.Time `json:"last_activity_date"`
	Person           *Person   `json:"person"`
	Messages         []Message `json:"messages"`

	User    *User `json:"-"`
	Deleted bool  `json:"-"`
}

func (m *Match) validate() error {
	if m.ID == "" {
		return errors.New("match has no _id")
	}
	return nil
}

func (m *Match) Name() string {
	if m.Person == nil {
		return ""
	}
	return m.Person.Name
}

func (m *Match) UserID() string {
	if m.Person == nil {
		return ""
	}
	return m.Person.ID
}

func (m *Match) String() string {
	switch {
	case m.Name() == "":
		return "<Unnamed match>"
	case m.User == nil:
		return m.Name()
	default:
		return fmt.Sprintf("%s, %3.1fkm", m.User, m.User.DistanceKm())
	}
}

// Friend is a Facebook friend who uses the social feature.
type Friend struct {
	UserID  string  `json:"user_id"`
	Name    string  `json:"name"`
	Photos  []Photo `json:"photo"`
	InSquad bool    `json:"in_squad"`
}

type Rating struct {
	LikesRemaining   int    `json:"likes_remaining"`
	RateLimitedUntil *int64 `json:"rate_limited_until"`
}

// Meta is the subset of /meta used for rate-limit state.
type Meta struct {
	Rating Rating `json:"rating"`
}

type validator interface {
	validate() error
}

// decodeInto maps a decoded JSON value onto T and runs its validation.
func decodeInto[T any](raw any) (*T, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", raw, err)
	}

	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}

	if val, ok := any(v).(validator); ok {
		if err := val.validate(); err != nil {
			return nil, err
		}
	}

	return v, nil
}
