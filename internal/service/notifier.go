package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/pkg/logger"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type EventType string

const (
	EventCoursePublished EventType = "course.published"
	EventStudentEnrolled EventType = "enrollment.created"
	EventEnrollmentEnded EventType = "enrollment.cancelled"
)

// NotificationEvent 通知内容，Recipient 为收件邮箱，可为空
type NotificationEvent struct {
	Type        EventType `json:"type"`
	CourseID    string    `json:"courseId"`
	CourseTitle string    `json:"courseTitle"`
	UserID      string    `json:"userId"`
	Recipient   string    `json:"-"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Notifier 通知投递能力，由 app 注入
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, NotificationEvent) error { return nil }

// WebhookNotifier 以 JSON POST 推送事件
type WebhookNotifier struct {
	Client *resty.Client
	URL    string
	Secret string
}

func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &WebhookNotifier{Client: client, URL: url, Secret: secret}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	req := n.Client.R().SetContext(ctx).SetBody(event)
	if n.Secret != "" {
		req.SetHeader("X-Webhook-Secret", n.Secret)
	}
	resp, err := req.Post(n.URL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}
	return nil
}

// MailNotifier 通过 SMTP 给事件收件人发邮件
type MailNotifier struct {
	Dialer *gomail.Dialer
	From   string
}

func NewMailNotifier(cfg config.SMTPConfig) *MailNotifier {
	return &MailNotifier{
		Dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		From:   cfg.From,
	}
}

func mailSubject(event NotificationEvent) string {
	switch event.Type {
	case EventCoursePublished:
		return "Your course is live: " + event.CourseTitle
	case EventStudentEnrolled:
		return "You are enrolled in " + event.CourseTitle
	case EventEnrollmentEnded:
		return "Enrollment cancelled: " + event.CourseTitle
	default:
		return event.CourseTitle
	}
}

func (n *MailNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	if event.Recipient == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", event.Recipient)
	m.SetHeader("Subject", mailSubject(event))
	m.SetBody("text/plain", fmt.Sprintf("%s\n\nCourse: %s (%s)\nTime: %s\n",
		mailSubject(event), event.CourseTitle, event.CourseID, event.OccurredAt.Format(time.RFC1123)))
	return n.Dialer.DialAndSend(m)
}

// MultiNotifier 依次投递，汇总所有错误
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNotifier 按配置组装通知渠道，都未配置时为空实现
func NewNotifier(cfg config.NotificationConfig) Notifier {
	var notifiers MultiNotifier
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret, timeout))
	}
	if cfg.SMTP.Host != "" {
		notifiers = append(notifiers, NewMailNotifier(cfg.SMTP))
	}
	if len(notifiers) == 0 {
		return NopNotifier{}
	}
	return notifiers
}

// notifyAsync 通知失败只记录日志
func notifyAsync(n Notifier, event NotificationEvent) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.Notify(ctx, event); err != nil {
			logger.Log.Warn("Failed to deliver notification",
				zap.String("type", string(event.Type)),
				zap.String("courseId", event.CourseID),
				zap.Error(err),
			)
		}
	}()
}
