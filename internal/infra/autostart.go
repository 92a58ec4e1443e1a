package infra

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// LaunchdLabel labels the LaunchAgent and names its plist.
const LaunchdLabel = "com.eb-agent"

// LaunchAgent plist template (runs as user)
const launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{xml .Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{xml .ExecutablePath}}</string>
    </array>

    <key>EnvironmentVariables</key>
    <dict>
{{- range .Env}}
        <key>{{xml .Key}}</key>
        <string>{{xml .Value}}</string>
{{- end}}
    </dict>

    <key>WorkingDirectory</key>
    <string>{{xml .HomeDir}}</string>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>

    <key>AbandonProcessGroup</key>
    <true/>

    <key>ProcessType</key>
    <string>Background</string>
</dict>
</plist>
`

// XDG autostart entry template (Linux desktops)
const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name=eb-agent
Comment=Gesture-triggered backup agent
Exec={{.Exec}}
Path={{.HomeDir}}
Terminal=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`

type envVar struct {
	Key, Value string
}

type autostartConfig struct {
	Label          string
	ExecutablePath string
	HomeDir        string
	Env            []envVar
	Exec           string
}

var templateFuncs = template.FuncMap{"xml": xmlEscape}

// NewAutostartRegistrar returns the login-entry registrar for this platform.
func NewAutostartRegistrar(home string, logger *zap.Logger) domain.AutostartRegistrar {
	if runtime.GOOS == "darwin" {
		return NewLaunchAgentRegistrar(home, &RealCommandRunner{}, logger)
	}
	return NewXDGAutostartRegistrar(home)
}

// LaunchAgentRegistrar implements domain.AutostartRegistrar with a per-user LaunchAgent.
type LaunchAgentRegistrar struct {
	homeDir   string
	plistPath string
	runner    CommandRunner
	uid       int
	logger    *zap.Logger
}

// NewLaunchAgentRegistrar creates a registrar writing to ~/Library/LaunchAgents.
func NewLaunchAgentRegistrar(home string, runner CommandRunner, logger *zap.Logger) *LaunchAgentRegistrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaunchAgentRegistrar{
		homeDir:   home,
		plistPath: filepath.Join(home, "Library", "LaunchAgents", LaunchdLabel+".plist"),
		runner:    runner,
		uid:       os.Getuid(),
		logger:    logger,
	}
}

// Register writes the plist and reloads it in the user's GUI domain.
func (r *LaunchAgentRegistrar) Register(execPath string, env map[string]string) error {
	content, err := renderTemplate(launchAgentTemplate, autostartConfig{
		Label:          LaunchdLabel,
		ExecutablePath: execPath,
		HomeDir:        r.homeDir,
		Env:            sortedEnv(withHome(env, r.homeDir)),
	})
	if err != nil {
		return err
	}
	if err := writeEntry(r.plistPath, content); err != nil {
		return err
	}

	ctx := context.Background()
	domainTarget := fmt.Sprintf("gui/%d", r.uid)

	// Not loaded yet is fine.
	_ = r.runner.Run(ctx, "launchctl", "bootout", domainTarget+"/"+LaunchdLabel)

	if err := r.runner.Run(ctx, "launchctl", "bootstrap", domainTarget, r.plistPath); err != nil {
		// The plist still loads at next login.
		r.logger.Warn("launchctl bootstrap failed", zap.String("plist", r.plistPath), zap.Error(err))
	}
	return nil
}

// IsRegistered checks if the plist is installed.
func (r *LaunchAgentRegistrar) IsRegistered() bool {
	_, err := os.Stat(r.plistPath)
	return err == nil
}

// Path returns the plist file path.
func (r *LaunchAgentRegistrar) Path() string {
	return r.plistPath
}

// XDGAutostartRegistrar implements domain.AutostartRegistrar with a desktop entry.
type XDGAutostartRegistrar struct {
	homeDir   string
	entryPath string
}

// NewXDGAutostartRegistrar creates a registrar writing to ~/.config/autostart.
func NewXDGAutostartRegistrar(home string) *XDGAutostartRegistrar {
	return &XDGAutostartRegistrar{
		homeDir:   home,
		entryPath: filepath.Join(home, ".config", "autostart", "eb-agent.desktop"),
	}
}

// Register writes the desktop entry. The session starts it at next login.
func (r *XDGAutostartRegistrar) Register(execPath string, env map[string]string) error {
	parts := []string{"env"}
	for _, kv := range sortedEnv(env) {
		parts = append(parts, quoteExecArg(kv.Key+"="+kv.Value))
	}
	parts = append(parts, quoteExecArg(execPath))

	content, err := renderTemplate(desktopEntryTemplate, autostartConfig{
		HomeDir: r.homeDir,
		Exec:    strings.Join(parts, " "),
	})
	if err != nil {
		return err
	}
	return writeEntry(r.entryPath, content)
}

// IsRegistered checks if the desktop entry is installed.
func (r *XDGAutostartRegistrar) IsRegistered() bool {
	_, err := os.Stat(r.entryPath)
	return err == nil
}

// Path returns the desktop entry path.
func (r *XDGAutostartRegistrar) Path() string {
	return r.entryPath
}

func renderTemplate(text string, cfg autostartConfig) ([]byte, error) {
	tmpl, err := template.New("autostart").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse autostart template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to execute autostart template: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func withHome(env map[string]string, home string) map[string]string {
	out := make(map[string]string, len(env)+1)
	out["HOME"] = home
	for k, v := range env {
		out[k] = v
	}
	return out
}

func sortedEnv(env map[string]string) []envVar {
	vars := make([]envVar, 0, len(env))
	for k, v := range env {
		vars = append(vars, envVar{Key: k, Value: v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// quoteExecArg quotes an Exec argument per the desktop entry rules when needed.
func quoteExecArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\"'\\`$<>~|&;*?#()") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(arg) + `"`
}

// Ensure both registrars implement domain.AutostartRegistrar.
var (
	_ domain.AutostartRegistrar = (*LaunchAgentRegistrar)(nil)
	_ domain.AutostartRegistrar = (*XDGAutostartRegistrar)(nil)
)
