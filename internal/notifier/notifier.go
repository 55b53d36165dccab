// Package notifier delivers reminders through the streaklit tray app. The tray app
// publishes a lockfile "<port>|<pid>|<secret>" and accepts JSON webhooks on localhost.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/notification"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

var (
	// ErrTrayNotRunning means no live tray app owns the lockfile. Starting it fixes this.
	ErrTrayNotRunning = errors.New("streaklit-tray is not running")
	// ErrForeignProcess means the lockfile points at a process that is not the tray app.
	ErrForeignProcess = errors.New("lockfile belongs to another process")
	// ErrMalformedLockfile means the lockfile cannot be parsed.
	ErrMalformedLockfile = errors.New("lockfile is malformed")
)

type Options struct {
	Identifier       string
	ExecutablePrefix string
	DurationMs       uint32
	Timeout          time.Duration
	Logger           *log.Logger
}

// Tray is the NotificationPresenter and PermissionGateway backed by the tray app.
type Tray struct {
	identifier string
	prefix     string
	durationMs uint32
	client     *http.Client
	log        *log.Logger
}

var (
	_ notification.NotificationPresenter = (*Tray)(nil)
	_ notification.PermissionGateway     = (*Tray)(nil)
)

func New(opts Options) *Tray {
	if opts.Identifier == "" {
		opts.Identifier = constants.TrayAppIdentifier
	}
	if opts.ExecutablePrefix == "" {
		opts.ExecutablePrefix = constants.TrayExecutablePrefix
	}
	if opts.DurationMs == 0 {
		opts.DurationMs = constants.NotificationDurationMs
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Tray{
		identifier: opts.Identifier,
		prefix:     opts.ExecutablePrefix,
		durationMs: opts.DurationMs,
		client:     &http.Client{Timeout: opts.Timeout},
		log:        logger.Or(opts.Logger),
	}
}

// WebhookPayload is what the tray app renders.
type WebhookPayload struct {
	Text          string `json:"text"`
	Title         string `json:"title"`
	HabitID       string `json:"habit_id"`
	OfferComplete bool   `json:"offer_complete"`
	Sound         bool   `json:"sound"`
	Vibrate       bool   `json:"vibrate"`
	DurationMs    uint32 `json:"duration_ms"`
}

type traySettings struct {
	Settings struct {
		LockfileDir          *string `json:"lockfile_dir"`
		NotificationsEnabled *bool   `json:"notifications_enabled"`
	} `json:"settings"`
}

type endpoint struct {
	port   string
	pid    int
	secret string
}

func (e endpoint) url(path string) string {
	return "http://127.0.0.1:" + e.port + path
}

// ConfigDir returns the tray app's configuration directory.
func (t *Tray) ConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(configDir, t.identifier), nil
}

// readSettings loads the tray's settings.json. A missing or unreadable file yields zero
// settings.
func (t *Tray) readSettings() traySettings {
	var s traySettings
	dir, err := t.ConfigDir()
	if err != nil {
		return s
	}
	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		t.log.Warn("Ignoring unreadable tray settings", "error", err)
		return traySettings{}
	}
	return s
}

// LockfileDir returns where the tray app writes its lockfile, honoring a custom
// lockfile_dir in its settings.
func (t *Tray) LockfileDir() (string, error) {
	if s := t.readSettings(); s.Settings.LockfileDir != nil && *s.Settings.LockfileDir != "" {
		return *s.Settings.LockfileDir, nil
	}
	return t.ConfigDir()
}

func (t *Tray) locate() (endpoint, error) {
	dir, err := t.LockfileDir()
	if err != nil {
		return endpoint{}, err
	}
	return t.validateLockfile(filepath.Join(dir, constants.NotifierLockfileName))
}

func (t *Tray) validateLockfile(lockfilePath string) (endpoint, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return endpoint{}, ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return endpoint{}, ErrMalformedLockfile
	}

	port := strings.TrimSpace(parts[0])
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return endpoint{}, fmt.Errorf("%w: invalid port number", ErrMalformedLockfile)
	}
	if portNum < 1 || portNum > 65535 {
		return endpoint{}, fmt.Errorf("%w: port number %d is outside valid range (1-65535)", ErrMalformedLockfile, portNum)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return endpoint{}, fmt.Errorf("%w: invalid process ID", ErrMalformedLockfile)
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return endpoint{}, fmt.Errorf("%w: secret is empty", ErrMalformedLockfile)
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return endpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), t.prefix) {
		return endpoint{}, fmt.Errorf("%w: PID %d is %s", ErrForeignProcess, pid, process.Executable())
	}

	return endpoint{port: port, pid: pid, secret: secret}, nil
}

// Show posts the reminder to the tray app.
func (t *Tray) Show(ctx context.Context, n notification.Notification) error {
	ep, err := t.locate()
	if err != nil {
		return err
	}

	text := n.Title
	if n.Body != "" {
		text = n.Title + ": " + n.Body
	}
	payload := WebhookPayload{
		Text:          text,
		Title:         n.Title,
		HabitID:       n.HabitID,
		OfferComplete: n.OfferComplete,
		Sound:         n.Sound,
		Vibrate:       n.Vibrate,
		DurationMs:    t.durationMs,
	}
	return t.post(ctx, ep, "/", payload)
}

func (t *Tray) post(ctx context.Context, ep endpoint, path string, payload interface{}) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.url(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.SecretHeader, ep.secret)

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("tray request %s failed with status %d: %s", path, res.StatusCode, strings.TrimSpace(string(msg)))
}

// HasSystemPermission reports whether a live tray app can display reminders.
func (t *Tray) HasSystemPermission(context.Context) (bool, error) {
	_, err := t.locate()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTrayNotRunning), errors.Is(err, ErrForeignProcess):
		return false, nil
	default:
		return false, err
	}
}

// RequestSystemPermission can only observe: the tray app grants permission by running.
// A lockfile owned by another process cannot be fixed by asking again.
func (t *Tray) RequestSystemPermission(context.Context) (notification.RequestOutcome, error) {
	_, err := t.locate()
	switch {
	case err == nil:
		return notification.RequestGranted, nil
	case errors.Is(err, ErrTrayNotRunning):
		return notification.RequestDeniedCanRetry, nil
	case errors.Is(err, ErrForeignProcess):
		return notification.RequestDeniedPermanently, nil
	default:
		return notification.RequestDeniedCanRetry, err
	}
}

// PermissionPermanentlyDenied reports a lockfile held by another program. Starting the
// tray app cannot clear it, so a fresh process sees the same answer a prompt would give.
func (t *Tray) PermissionPermanentlyDenied(context.Context) (bool, error) {
	_, err := t.locate()
	switch {
	case errors.Is(err, ErrForeignProcess):
		return true, nil
	case err == nil, errors.Is(err, ErrTrayNotRunning):
		return false, nil
	default:
		return false, err
	}
}

// IsGloballyEnabled reads the tray app's own notifications switch. Absent means on.
func (t *Tray) IsGloballyEnabled(context.Context) (bool, error) {
	if s := t.readSettings(); s.Settings.NotificationsEnabled != nil {
		return *s.Settings.NotificationsEnabled, nil
	}
	return true, nil
}

// OpenSystemSettings asks the tray app to show its settings window. It returns false
// when the tray app is not reachable.
func (t *Tray) OpenSystemSettings(ctx context.Context) (bool, error) {
	ep, err := t.locate()
	if err != nil {
		if errors.Is(err, ErrTrayNotRunning) || errors.Is(err, ErrForeignProcess) {
			return false, nil
		}
		return false, err
	}
	if err := t.post(ctx, ep, "/settings", nil); err != nil {
		return false, err
	}
	return true, nil
}
