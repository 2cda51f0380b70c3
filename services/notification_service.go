package services

import (
	"fmt"
	"time"

	"bankProject/config"

	"gopkg.in/gomail.v2"
)

// NotificationService отправляет email-уведомления клиентам банка.
// При выключенном SMTP все методы становятся no-op.
type NotificationService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config) *NotificationService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &NotificationService{
		dialer:  dialer,
		from:    cfg.SMTP.From,
		enabled: cfg.SMTP.Enabled,
	}
}

// Enabled сообщает, включена ли отправка уведомлений
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// SendEmail отправляет email
func (s *NotificationService) SendEmail(to, subject, body string) error {
	if !s.enabled {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendTransactionNotification отправляет уведомление о транзакции
func (s *NotificationService) SendTransactionNotification(to, accountID string, amount float64, transactionType string) error {
	subject := "Уведомление о транзакции"
	body := fmt.Sprintf(`
		<h2>Уведомление о транзакции</h2>
		<p>Счет: %s</p>
		<p>Тип операции: %s</p>
		<p>Сумма: %.2f</p>
		<p>Дата: %s</p>
	`, accountID, transactionType, amount, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendCardIssuedNotification отправляет уведомление о выпуске карты
func (s *NotificationService) SendCardIssuedNotification(to, maskedNumber, cardType string) error {
	subject := "Ваша новая карта выпущена"
	body := fmt.Sprintf(`
		<h2>Карта выпущена</h2>
		<p>Номер карты: %s</p>
		<p>Тип карты: %s</p>
		<p>Спасибо, что выбрали наш банк!</p>
	`, maskedNumber, cardType)

	return s.SendEmail(to, subject, body)
}
