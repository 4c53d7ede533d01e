package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"pinscraper/pkg/config"
	"pinscraper/pkg/progress"
)

const notificationTitle = "Pinterest Scraper"

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender sends a notification by running the command it builds
type commandSender func(title, message string) *exec.Cmd

func (c commandSender) Send(title, message string) error {
	return c(title, message).Run()
}

func notifySend(title, message string) *exec.Cmd {
	return exec.Command("notify-send", "--app-name=pinscraper", title, message)
}

func osascript(title, message string) *exec.Cmd {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeQuotes(message), escapeQuotes(title))
	return exec.Command("osascript", "-e", script)
}

const toastScript = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$text = $template.GetElementsByTagName("text")
$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show($toast)
`

func powershellToast(title, message string) *exec.Cmd {
	quote := strings.NewReplacer("'", "''")
	script := fmt.Sprintf(toastScript, quote.Replace(title), quote.Replace(message), notificationTitle)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// platformSender picks the sender for goos, or nil where none exists
func platformSender(goos string) NotificationSender {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return commandSender(notifySend)
	case "darwin":
		return commandSender(osascript)
	case "windows":
		return commandSender(powershellToast)
	default:
		return nil
	}
}

// Notifier announces finished runs on the terminal and, when the platform
// supports it, on the desktop
type Notifier struct {
	sender NotificationSender
	cfg    config.NotificationConfig
}

// NewNotifier creates a Notifier for the current platform
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	return &Notifier{sender: platformSender(runtime.GOOS), cfg: cfg}
}

// NotifyRun announces the end of a run as configured. Runs stopped by the
// user are not announced.
func (n *Notifier) NotifyRun(snap progress.Snapshot) {
	if !n.cfg.Enabled {
		return
	}
	switch snap.Status {
	case progress.StatusCompleted:
		if n.cfg.OnComplete {
			n.announce(Green, fmt.Sprintf("%s: %s", snap.Query, snap.Message))
		}
	case progress.StatusError:
		if n.cfg.OnError {
			n.announce(Red, snap.Message)
		}
	}
}

// announce prints message and forwards it to the desktop. Delivery errors
// are ignored: the terminal line already carries the message.
func (n *Notifier) announce(color func(string) string, message string) {
	printf("\n%s: %s\n", color(notificationTitle), color(message))
	if n.sender != nil {
		_ = n.sender.Send(notificationTitle, message)
	}
}
