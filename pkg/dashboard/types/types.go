package types

import (
	"net/url"
	"strings"
	"time"

	"github.com/CoopHive/bacalhau/pkg/model"
)

// JobInfo is the bundle returned by the dashboard for a single job: the job
// itself, its per-node state, its event history and its moderation trail.
type JobInfo struct {
	Job         model.Job              `json:"job"`
	State       model.JobState         `json:"state"`
	Events      []model.JobEvent       `json:"events"`
	Results     []model.StorageSpec    `json:"results"`
	Requests    []ModerationRequest    `json:"requests"`
	Moderations []JobModerationSummary `json:"moderations"`
}

// JobRelation links a piece of content to a job that produced or consumed it.
type JobRelation struct {
	CID   string `json:"cid"`
	JobID string `json:"job_id"`
}

type User struct {
	ID             int       `json:"id"`
	Created        time.Time `json:"created"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
}

type ModerationType string

const (
	ModerationTypeDatacap   ModerationType = "datacap"
	ModerationTypeExecution ModerationType = "execution"
	ModerationTypeResult    ModerationType = "result"
)

// ModerationTypes returns the closed set of moderation types.
func ModerationTypes() []ModerationType {
	return []ModerationType{ModerationTypeDatacap, ModerationTypeExecution, ModerationTypeResult}
}

// Title returns the type name with its first letter upper-cased.
func (t ModerationType) Title() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// URL wraps url.URL so that it can travel as a plain JSON string.
type URL struct {
	url.URL
}

func (u URL) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *URL) UnmarshalText(text []byte) error {
	parsed, err := url.Parse(string(text))
	if err != nil {
		return err
	}
	u.URL = *parsed
	return nil
}

// ModerationRequest is a gate awaiting a human decision before an execution,
// a result publication or a datacap award goes ahead.
type ModerationRequest struct {
	ID      int64          `json:"id"`
	JobID   string         `json:"job_id"`
	Type    ModerationType `json:"type"`
	Created time.Time      `json:"created"`

	Callback    *URL               `json:"callback,omitempty"`
	ExecutionID string             `json:"execution_id,omitempty"`
	StorageSpec *model.StorageSpec `json:"storage_spec,omitempty"`
}

// Moderation is one recorded decision against a request.
type Moderation struct {
	ID            int64     `json:"id"`
	RequestID     int64     `json:"request_id"`
	UserAccountID int       `json:"user_account_id"`
	Created       time.Time `json:"created"`
	Status        bool      `json:"status"`
	Notes         string    `json:"notes"`
}

// JobModerationSummary is an audit trail entry: a decision, the request it
// answered and the user who made it.
type JobModerationSummary struct {
	Request    *ModerationRequest `json:"request"`
	Moderation *Moderation        `json:"moderation"`
	User       *User              `json:"user"`
}

// ModerateRequest carries an operator's decision on a moderation request.
type ModerateRequest struct {
	Reason   string `json:"reason"`
	Approved bool   `json:"approved"`
}

type ModerateResult struct {
	Success bool `json:"success"`
}
