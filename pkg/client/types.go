package client

import "time"

// APIResponse is the common envelope the platform wraps responses in.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Resources describes the compute shape of an environment.
type Resources struct {
	CPU    string `json:"cpu,omitempty"`
	Memory string `json:"memory,omitempty"`
	GPU    string `json:"gpu,omitempty"`
}

// Environment is a named compute image/template from which runtimes are
// created.
type Environment struct {
	Name        string    `json:"name"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	// BurnRate is the credits consumed per second while a runtime of this
	// environment is running.
	BurnRate  float64   `json:"burning_rate"`
	Resources Resources `json:"resources,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Runtime is a remote Jupyter kernel instance hosted by the platform.
type Runtime struct {
	UID             string    `json:"uid"`
	PodName         string    `json:"pod_name"`
	GivenName       string    `json:"given_name,omitempty"`
	EnvironmentName string    `json:"environment_name"`
	Type            string    `json:"type,omitempty"`
	IngressURL      string    `json:"ingress,omitempty"`
	Token           string    `json:"token,omitempty"`
	BurnRate        float64   `json:"burning_rate"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	ExpiredAt       time.Time `json:"expired_at,omitempty"`
}

// RuntimeSpec describes a runtime to create.
type RuntimeSpec struct {
	EnvironmentName string  `json:"environment_name"`
	GivenName       string  `json:"given_name,omitempty"`
	Type            string  `json:"type,omitempty"`
	// CreditsLimit caps the credits the runtime may burn before the
	// platform reclaims it.
	CreditsLimit float64 `json:"credits_limit,omitempty"`
	// FromSnapshot restores the new runtime from a snapshot UID.
	FromSnapshot string `json:"from,omitempty"`
}

// Snapshot is a saved state of a runtime restorable into a new runtime.
type Snapshot struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Environment string    `json:"environment"`
	Format      string    `json:"format,omitempty"`
	SizeBytes   int64     `json:"size,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Secret is a platform-held secret exposed to runtimes.
type Secret struct {
	UID         string `json:"uid"`
	Name        string `json:"name_s"`
	Description string `json:"description_t,omitempty"`
	Variant     string `json:"variant_s,omitempty"`
}

// Token is an API token issued by IAM.
type Token struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name_s"`
	Description string    `json:"description_t,omitempty"`
	Variant     string    `json:"variant_s,omitempty"`
	ExpiredAt   time.Time `json:"expiration_ts_dt,omitempty"`
}

// User is the identity IAM reports for the current credential.
type User struct {
	UID       string   `json:"uid"`
	Handle    string   `json:"handle_s"`
	Email     string   `json:"email_s,omitempty"`
	FirstName string   `json:"first_name_t,omitempty"`
	LastName  string   `json:"last_name_t,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Credits   float64  `json:"credits,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.Handle != "":
		return u.Handle
	default:
		return u.UID
	}
}

// loginResponse is the IAM login envelope.
type loginResponse struct {
	APIResponse
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// whoamiResponse is the IAM whoami envelope.
type whoamiResponse struct {
	APIResponse
	Profile *User `json:"profile"`
}

type environmentsResponse struct {
	APIResponse
	Environments []Environment `json:"environments"`
}

type runtimesResponse struct {
	APIResponse
	Runtimes []Runtime `json:"runtimes"`
}

type runtimeResponse struct {
	APIResponse
	Runtime *Runtime `json:"runtime"`
}

type snapshotsResponse struct {
	APIResponse
	Snapshots []Snapshot `json:"snapshots"`
}

type snapshotResponse struct {
	APIResponse
	Snapshot *Snapshot `json:"snapshot"`
}

type secretsResponse struct {
	APIResponse
	Secrets []Secret `json:"secrets"`
}

type secretResponse struct {
	APIResponse
	Secret *Secret `json:"secret"`
}

type tokensResponse struct {
	APIResponse
	Tokens []Token `json:"tokens"`
}

type tokenResponse struct {
	APIResponse
	Token     *Token `json:"token"`
	RawToken  string `json:"access_token,omitempty"`
}
