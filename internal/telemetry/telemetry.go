// Package telemetry sends one anonymous usage event per CLI session.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/httpclient"
	"github.com/meza/entwine/internal/modfilename"
	"github.com/meza/entwine/internal/perf"
	"github.com/meza/entwine/internal/rootlock"
	"github.com/posthog/posthog-go"
)

const (
	machineIDEnvVar     = "ENTWINE_MACHINE_ID"
	placeholderKey      = "REPL_POSTHOG_API_KEY"
	endpoint            = "https://eu.i.posthog.com"
	defaultFlushTimeout = 2 * time.Second
	commandSpanPrefix   = "app.command."
	sessionEventTUI     = "tui"
	unknownSessionName  = "unknown"
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

type Logger interface {
	Debugf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}

type CommandTelemetry struct {
	Command     string
	Success     bool
	Error       error
	Extra       map[string]interface{}
	Arguments   map[string]interface{}
	Duration    time.Duration
	ExitCode    int
	Interactive bool
}

type recordedCommand struct {
	Name          string
	Success       bool
	ExitCode      int
	Interactive   bool
	ErrorCategory string
	ErrorMessage  string
	Extra         map[string]interface{}
	Arguments     map[string]interface{}
	Duration      time.Duration
}

var (
	machineIDProvider = func() (string, error) {
		return machineid.ProtectedID("entwine")
	}
	clientBuilder = func(apiKey, endpoint string) (Client, error) {
		return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	}
	baseLogger       Logger = noopLogger{}
	baseFlushTimeout        = defaultFlushTimeout
)

type telemetrySnapshot struct {
	client       Client
	machineID    string
	logger       Logger
	flushTimeout time.Duration
	enabled      bool
}

type telemetryState struct {
	mu              sync.Mutex
	client          Client
	machineID       string
	logger          Logger
	flushTimeout    time.Duration
	enabled         bool
	startedAt       time.Time
	commands        []recordedCommand
	sessionNameHint string
	perfBaseDir     string
}

var state = &telemetryState{logger: noopLogger{}}

func (s *telemetryState) snapshot() telemetrySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return telemetrySnapshot{
		client:       s.client,
		machineID:    s.machineID,
		logger:       s.logger,
		flushTimeout: s.flushTimeout,
		enabled:      s.enabled,
	}
}

// SetLogger routes telemetry diagnostics into the CLI's debug output.
func SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	baseLogger = logger
	state.mu.Lock()
	state.logger = logger
	state.mu.Unlock()
}

// Init builds the client unless the user opted out or the build carries no key.
// A failure leaves telemetry disabled; it never fails the command.
func Init() {
	logger := baseLogger
	if logger == nil {
		logger = noopLogger{}
	}
	flushTimeout := baseFlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	state.logger = logger
	state.flushTimeout = flushTimeout
	state.startedAt = time.Now()
	state.enabled = false

	if environment.TelemetryDisabled() {
		logger.Debugf("telemetry disabled by environment")
		return
	}

	apiKey := strings.TrimSpace(environment.PosthogAPIKey())
	if apiKey == "" || apiKey == placeholderKey {
		return
	}

	client, err := clientBuilder(apiKey, endpoint)
	if err != nil || client == nil {
		logger.Debugf("telemetry client unavailable: %v", err)
		return
	}

	state.client = client
	state.machineID = resolveMachineID(logger)
	state.enabled = true
}

func resolveMachineID(logger Logger) string {
	if value, ok := os.LookupEnv(machineIDEnvVar); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	id, err := machineIDProvider()
	if err != nil || id == "" {
		logger.Debugf("machine id unavailable: %v", err)
		return unknownSessionName
	}
	return id
}

func Capture(event string, properties map[string]interface{}) {
	captureWithSnapshot(state.snapshot(), event, properties)
}

func captureWithSnapshot(snap telemetrySnapshot, event string, properties map[string]interface{}) {
	if !snap.enabled || snap.client == nil || strings.TrimSpace(event) == "" {
		return
	}

	props := posthog.NewProperties()
	for key, value := range properties {
		props.Set(key, value)
	}
	props.Set("version", environment.AppVersion())

	if err := snap.client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: snap.machineID,
		Properties: props,
	}); err != nil {
		snap.logger.Debugf("telemetry enqueue failed: %v", err)
	}
}

// RecordCommand queues a command outcome for the session event sent by Shutdown.
func RecordCommand(command CommandTelemetry) {
	name := strings.TrimSpace(command.Command)
	if name == "" {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if !state.enabled {
		return
	}

	recorded := recordedCommand{
		Name:          name,
		Success:       command.Success,
		ExitCode:      commandExitCode(command),
		Interactive:   command.Interactive,
		ErrorCategory: errorCategory(command.Error),
		Extra:         command.Extra,
		Arguments:     command.Arguments,
		Duration:      command.Duration,
	}
	if command.Error != nil {
		recorded.ErrorMessage = command.Error.Error()
	}
	state.commands = append(state.commands, recorded)
}

// SetSessionNameHint names the session when no command gets recorded, e.g. on an early exit.
func SetSessionNameHint(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	state.mu.Lock()
	state.sessionNameHint = name
	state.mu.Unlock()
}

// SetPerfBaseDir makes span path attributes relative to the game directory before they leave the machine.
func SetPerfBaseDir(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	state.mu.Lock()
	state.perfBaseDir = dir
	state.mu.Unlock()
}

// Shutdown sends the session event and closes the client, waiting at most the flush timeout.
func Shutdown(ctx context.Context) {
	state.mu.Lock()
	snap := telemetrySnapshot{
		client:       state.client,
		machineID:    state.machineID,
		logger:       state.logger,
		flushTimeout: state.flushTimeout,
		enabled:      state.enabled,
	}
	commands := append([]recordedCommand(nil), state.commands...)
	hint := state.sessionNameHint
	baseDir := state.perfBaseDir
	startedAt := state.startedAt
	state.enabled = false
	state.client = nil
	state.commands = nil
	state.mu.Unlock()

	if !snap.enabled || snap.client == nil {
		return
	}

	performance := performanceSummary(baseDir)
	canonical, _ := topCommandName(performance)
	if len(commands) == 1 && canonical != "" {
		commands[0].Name = canonical
	}

	total := time.Since(startedAt).Milliseconds()
	if total <= 0 {
		total = 1
	}
	work := workTime(commands, performance).Milliseconds()
	if work > total {
		work = total
	}

	captureWithSnapshot(snap, resolveSessionName(hint, canonical, commands), map[string]interface{}{
		"type":          "session",
		"commands":      buildCommandSummaries(commands, performance),
		"performance":   performance,
		"total_time_ms": total,
		"work_time_ms":  work,
	})

	closeWithTimeout(ctx, snap)
}

func closeWithTimeout(ctx context.Context, snap telemetrySnapshot) {
	done := make(chan error, 1)
	go func() {
		done <- snap.client.Close()
	}()

	timer := time.NewTimer(snap.flushTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			snap.logger.Debugf("telemetry close failed: %v", err)
		}
	case <-timer.C:
		snap.logger.Debugf("telemetry flush timed out after %s", snap.flushTimeout)
	case <-ctx.Done():
		snap.logger.Debugf("telemetry flush interrupted: %v", ctx.Err())
	}
}

// Reset drops all state and restores the injectable factories.
func Reset() {
	state.mu.Lock()
	state.client = nil
	state.machineID = ""
	state.logger = noopLogger{}
	state.flushTimeout = 0
	state.enabled = false
	state.startedAt = time.Time{}
	state.commands = nil
	state.sessionNameHint = ""
	state.perfBaseDir = ""
	state.mu.Unlock()

	machineIDProvider = func() (string, error) {
		return machineid.ProtectedID("entwine")
	}
	clientBuilder = func(apiKey, endpoint string) (Client, error) {
		return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	}
	baseLogger = noopLogger{}
	baseFlushTimeout = defaultFlushTimeout
}

// SpanSummary is the reduced form of a perf span that is safe to send.
type SpanSummary struct {
	Name       string                 `json:"name"`
	StartTime  time.Time              `json:"start_time"`
	DurationMS int64                  `json:"duration_ms"`
	Depth      int                    `json:"depth"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

func performanceSummary(baseDir string) []SpanSummary {
	spans, err := perf.GetSpans()
	if err != nil || len(spans) == 0 {
		return []SpanSummary{}
	}

	byID := make(map[string]perf.SpanSnapshot, len(spans))
	for _, span := range spans {
		byID[span.SpanID] = span
	}

	summaries := make([]SpanSummary, 0, len(spans))
	for _, span := range spans {
		summaries = append(summaries, SpanSummary{
			Name:       span.Name,
			StartTime:  span.StartTime,
			DurationMS: span.Duration().Milliseconds(),
			Depth:      spanDepth(span, byID),
			Attributes: redactPaths(span.Attributes, baseDir),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].StartTime.Before(summaries[j].StartTime)
	})
	return summaries
}

func spanDepth(span perf.SpanSnapshot, byID map[string]perf.SpanSnapshot) int {
	depth := 0
	for span.ParentSpanID != "" && depth < len(byID) {
		parent, ok := byID[span.ParentSpanID]
		if !ok {
			break
		}
		span = parent
		depth++
	}
	return depth
}

// redactPaths keeps only the last element of path-like values so user directory names stay local.
func redactPaths(attrs map[string]interface{}, baseDir string) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		text, ok := value.(string)
		if !ok || !isPathKey(key) {
			out[key] = value
			continue
		}
		if baseDir != "" && strings.HasPrefix(text, baseDir) {
			text = strings.TrimLeft(strings.TrimPrefix(text, baseDir), `/\`)
		} else {
			text = filepath.Base(text)
		}
		out[key] = text
	}
	return out
}

func isPathKey(key string) bool {
	key = strings.ToLower(key)
	return key == "path" || key == "root" || key == "url" || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func commandNameFromPerfSpan(name string) (string, bool) {
	if !strings.HasPrefix(name, commandSpanPrefix) {
		return "", false
	}
	command := strings.TrimPrefix(name, commandSpanPrefix)
	if command == "" || strings.Contains(command, ".stage.") {
		return "", false
	}
	return command, true
}

// topCommandName picks the shallowest command span, earliest first.
func topCommandName(performance []SpanSummary) (string, bool) {
	best := -1
	for i, span := range performance {
		if _, ok := commandNameFromPerfSpan(span.Name); !ok {
			continue
		}
		if best == -1 || span.Depth < performance[best].Depth ||
			(span.Depth == performance[best].Depth && span.StartTime.Before(performance[best].StartTime)) {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return commandNameFromPerfSpan(performance[best].Name)
}

func resolveSessionName(hint string, canonical string, commands []recordedCommand) string {
	if len(commands) > 1 {
		return sessionEventTUI
	}
	if len(commands) == 1 {
		if name := strings.TrimSpace(commands[0].Name); name != "" {
			return name
		}
	}
	if canonical != "" {
		return canonical
	}
	if strings.TrimSpace(hint) != "" {
		return strings.TrimSpace(hint)
	}
	return unknownSessionName
}

func commandDurationFromPerf(command string, performance []SpanSummary) (time.Duration, bool) {
	if command == "" || len(performance) == 0 {
		return 0, false
	}
	found := false
	var latest SpanSummary
	for _, span := range performance {
		if span.Name != commandSpanPrefix+command {
			continue
		}
		if !found || span.StartTime.After(latest.StartTime) {
			latest = span
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return time.Duration(latest.DurationMS) * time.Millisecond, true
}

func workTime(commands []recordedCommand, performance []SpanSummary) time.Duration {
	var total time.Duration
	for _, command := range commands {
		if duration, ok := commandDurationFromPerf(command.Name, performance); ok {
			total += duration
			continue
		}
		total += command.Duration
	}
	return total
}

func buildCommandSummaries(commands []recordedCommand, performance []SpanSummary) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(commands))
	for _, command := range commands {
		summary := map[string]interface{}{
			"name":        command.Name,
			"success":     command.Success,
			"exit_code":   command.ExitCode,
			"interactive": command.Interactive,
		}
		if command.ErrorCategory != "" {
			summary["error_category"] = command.ErrorCategory
		}
		if command.ErrorMessage != "" {
			summary["error"] = command.ErrorMessage
		}
		if command.Extra != nil {
			summary["extra"] = command.Extra
		}
		if command.Arguments != nil {
			summary["arguments"] = command.Arguments
		}
		if duration, ok := commandDurationFromPerf(command.Name, performance); ok {
			summary["duration_ms"] = duration.Milliseconds()
		} else if command.Duration > 0 {
			summary["duration_ms"] = command.Duration.Milliseconds()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func commandExitCode(command CommandTelemetry) int {
	if command.ExitCode != 0 {
		return command.ExitCode
	}
	if command.Success {
		return 0
	}
	return 1
}

func errorCategory(err error) string {
	if err == nil {
		return ""
	}

	var notFound *globalerrors.NotFoundError
	var prerequisite *globalerrors.PrerequisiteMissingError
	var invalidVersion *globalerrors.InvalidVersionError
	var network *globalerrors.NetworkError
	var archiveErr *globalerrors.ArchiveError
	var ioErr *globalerrors.IoError
	var locked *rootlock.LockedError
	var fileName modfilename.Error

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case httpclient.IsTimeout(err):
		return "timeout"
	case errors.As(err, &locked):
		return "locked"
	case errors.As(err, &prerequisite):
		return "prerequisite_missing"
	case errors.As(err, &invalidVersion):
		return "invalid_version"
	case errors.As(err, &fileName):
		return "invalid_file_name"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &network):
		return "network"
	case errors.As(err, &archiveErr):
		return "archive"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "unknown"
	}
}
