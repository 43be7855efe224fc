package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"lucidaflow/pkg/logger"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(ctx context.Context, title, message string) error
}

type notifySend struct{}

func (notifySend) Send(ctx context.Context, title, message string) error {
	return exec.CommandContext(ctx, "notify-send", "--app-name=lucida-flow", title, message).Run()
}

type osascript struct{}

func (osascript) Send(ctx context.Context, title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.CommandContext(ctx, "osascript", "-e", script).Run()
}

type powershellToast struct{}

func (powershellToast) Send(ctx context.Context, title, message string) error {
	escape := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName('text')
		$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('Lucida Flow').Show($toast)
	`, escape(title), escape(message))
	return exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// SenderFor returns the sender for goos, or nil when the platform has none
func SenderFor(goos string) NotificationSender {
	switch goos {
	case "linux":
		return notifySend{}
	case "darwin":
		return osascript{}
	case "windows":
		return powershellToast{}
	default:
		return nil
	}
}

// Notifier prints a message and mirrors it to the desktop when possible
type Notifier struct {
	printer *Printer
	sender  NotificationSender
	logger  logger.Logger
}

// NewNotifier creates a notifier for the current platform
func NewNotifier(printer *Printer) *Notifier {
	return NewNotifierWithSender(printer, SenderFor(runtime.GOOS))
}

// NewNotifierWithSender creates a notifier with an explicit sender; nil disables desktop delivery
func NewNotifierWithSender(printer *Printer, sender NotificationSender) *Notifier {
	return &Notifier{printer: printer, sender: sender, logger: logger.GetLogger()}
}

// SetLogger sets where delivery failures are logged
func (n *Notifier) SetLogger(log logger.Logger) {
	if log != nil {
		n.logger = log
	}
}

// Success reports a finished download
func (n *Notifier) Success(ctx context.Context, title, message string) {
	n.printer.Success(title + ": " + message)
	n.send(ctx, title, message)
}

// Error reports a failed download
func (n *Notifier) Error(ctx context.Context, title, message string) {
	n.printer.Error(title, fmt.Errorf("%s", message))
	n.send(ctx, title, message)
}

func (n *Notifier) send(ctx context.Context, title, message string) {
	if n.sender == nil {
		n.logger.WithField("os", runtime.GOOS).Warn("No desktop notifier available")
		return
	}
	if err := n.sender.Send(ctx, title, message); err != nil {
		n.logger.WithError(err).WithField("title", title).Warn("Desktop notification failed")
	}
}
