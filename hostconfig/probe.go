package hostconfig

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// Separators used by the host's config dump: records are separated by RS and
// a record's key and value by US.
const (
	recordSeparator = "\x1E"
	unitSeparator   = "\x1F"
)

// APIVersionKey is the config key holding the "major.minor" API version.
const APIVersionKey = "API_VERSION"

// EnvRuntime names the environment variable that overrides the probed executable.
const EnvRuntime = "HOST_RUNTIME"

// DefaultRuntime is the executable probed when EnvRuntime is unset.
const DefaultRuntime = "host-runtime"

// DefaultProbeArgs makes the host print its configuration in the RS/US format.
var DefaultProbeArgs = []string{"--print-config"}

// ProbeError reports a failure to run the host or to decode its output.
type ProbeError struct {
	Err error
	Op  string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("host probe %s: %v", e.Op, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// MissingKeyError reports a key absent from the probed configuration.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("couldn't find %q in host config", e.Key)
}

// Values is a probed host configuration.
type Values struct {
	m map[string]string
}

// Get returns the value stored under key.
func (v *Values) Get(key string) (string, error) {
	s, ok := v.m[key]
	if !ok {
		return "", &MissingKeyError{Key: key}
	}
	return s, nil
}

// Len returns the number of non-empty entries.
func (v *Values) Len() int {
	return len(v.m)
}

// APIVersion parses the APIVersionKey entry.
func (v *Values) APIVersion() (Version, error) {
	s, err := v.Get(APIVersionKey)
	if err != nil {
		return Version{}, err
	}
	return ParseVersion(s)
}

// ParseValues decodes a config dump. Entries with an empty value and
// malformed records are skipped; output that is not UTF-8 is an error.
func ParseValues(out []byte) (*Values, error) {
	if !utf8.Valid(out) {
		return nil, &ProbeError{Op: "decode", Err: fmt.Errorf("output is not valid UTF-8")}
	}
	m := make(map[string]string)
	for _, record := range strings.Split(string(out), recordSeparator) {
		key, val, ok := strings.Cut(record, unitSeparator)
		if !ok || val == "" {
			continue
		}
		m[key] = val
	}
	return &Values{m: m}, nil
}

type probeConfig struct {
	executable string
	args       []string
	env        []string
}

// ProbeOption configures Probe.
type ProbeOption func(*probeConfig)

// WithExecutable sets the host executable to run.
func WithExecutable(path string) ProbeOption {
	return func(c *probeConfig) {
		c.executable = path
	}
}

// WithArgs replaces DefaultProbeArgs.
func WithArgs(args ...string) ProbeOption {
	return func(c *probeConfig) {
		c.args = args
	}
}

// WithEnv appends environment entries ("K=V") for the probed process.
func WithEnv(env ...string) ProbeOption {
	return func(c *probeConfig) {
		c.env = append(c.env, env...)
	}
}

func defaultProbeConfig() probeConfig {
	exe := os.Getenv(EnvRuntime)
	if exe == "" {
		exe = DefaultRuntime
	}
	return probeConfig{
		executable: exe,
		args:       DefaultProbeArgs,
	}
}

// Probe runs the host runtime and parses the configuration it prints.
func Probe(ctx context.Context, opts ...ProbeOption) (*Values, error) {
	cfg := defaultProbeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cmd := exec.CommandContext(ctx, cfg.executable, cfg.args...)
	if len(cfg.env) > 0 {
		cmd.Env = append(os.Environ(), cfg.env...)
	}
	stdout := newBoundedBuffer(MaxProbeOutput)
	stderr := newBoundedBuffer(maxProbeStderr)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &ProbeError{Op: "run " + cfg.executable, Err: err}
	}
	if stdout.truncated {
		return nil, &ProbeError{Op: "read", Err: fmt.Errorf("config dump exceeds %d bytes", MaxProbeOutput)}
	}
	return ParseValues(stdout.Bytes())
}

// MaxProbeOutput caps the config dump read from the host.
const MaxProbeOutput = 1 << 20

const maxProbeStderr = 4 << 10

// boundedBuffer keeps the first limit bytes written to it and drops the rest.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

// Write never fails, so the process is not killed by a short write.
func (b *boundedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remaining := b.limit - b.buf.Len()
	if len(p) > remaining {
		b.truncated = true
		p = p[:max(remaining, 0)]
	}
	b.buf.Write(p)
	return n, nil
}

func (b *boundedBuffer) Bytes() []byte { return b.buf.Bytes() }

func (b *boundedBuffer) String() string { return b.buf.String() }

// FormatValues renders m in the format ParseValues reads. Hosts use it to
// implement their config dump.
func FormatValues(m map[string]string) []byte {
	var b strings.Builder
	first := true
	for k, v := range m {
		if !first {
			b.WriteString(recordSeparator)
		}
		first = false
		b.WriteString(k)
		b.WriteString(unitSeparator)
		b.WriteString(v)
	}
	return []byte(b.String())
}
