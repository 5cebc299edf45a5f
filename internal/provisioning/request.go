package provisioning

import (
	"time"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/source"
)

// Request carries everything one pipeline run needs to reach a hub and
// locate its setup archive. Source fields and the target base path are
// optional; the runner fills them from its configured defaults.
type Request struct {
	Host       string `json:"host"`
	Port       int    `json:"port,omitempty"`
	Principal  string `json:"principal"`
	Credential string `json:"credential"`

	// PrivateKey authenticates instead of Credential when set. It is
	// never serialized; only the CLI populates it from a key file.
	PrivateKey []byte `json:"-"`

	// DialTimeout bounds the TCP connect and SSH handshake. It is never
	// serialized; operators tune it through the timeouts config.
	DialTimeout time.Duration `json:"-"`

	SourceOwner  string `json:"sourceOwner,omitempty"`
	SourceRepo   string `json:"sourceRepo,omitempty"`
	SourceBranch string `json:"sourceBranch,omitempty"`

	// ArchiveURL bypasses source resolution when set, for callers that
	// already hold a download URL (presigned object storage links).
	ArchiveURL string `json:"archiveUrl,omitempty"`

	TargetBasePath string `json:"targetBasePath,omitempty"`
}

// Validate checks the connection fields. Missing source fields are not
// an error; they fall back to the runner's defaults.
func (r *Request) Validate() error {
	if r.Host == "" {
		return &ValidationError{Field: "host", Message: "host is required"}
	}
	if r.Principal == "" {
		return &ValidationError{Field: "principal", Message: "principal is required"}
	}
	if r.Credential == "" && len(r.PrivateKey) == 0 {
		return &ValidationError{Field: "credential", Message: "credential is required"}
	}
	return nil
}

// SSHConfig translates the request's connection fields.
func (r *Request) SSHConfig() *ssh.Config {
	return &ssh.Config{
		Host:        r.Host,
		Port:        r.Port,
		User:        r.Principal,
		Password:    r.Credential,
		PrivateKey:  r.PrivateKey,
		DialTimeout: r.DialTimeout,
	}
}

// Ref returns the requested source ref, without defaults applied.
func (r *Request) Ref() source.Ref {
	return source.Ref{
		Owner:  r.SourceOwner,
		Repo:   r.SourceRepo,
		Branch: r.SourceBranch,
	}
}
