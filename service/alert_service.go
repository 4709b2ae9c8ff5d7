package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
)

// SendOverdueAlerts moves stale pending assignments to overdue and, for each
// one, emails every department-role user of the responsible department and
// drops a deadline notification into their inbox. Returns the number of
// alerts sent. Safe to re-run: already-overdue rows are not picked up again.
func (s *IssueService) SendOverdueAlerts() (int, error) {
	today := dateOnly(time.Now())

	var links []model.IssueDepartment
	if err := s.db.Preload("Issue").Preload("Department").
		Where("status = ? AND deadline_date < ?", model.StatusPending, today).
		Find(&links).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch overdue assignments: %w", err)
	}

	sent := 0
	for _, link := range links {
		if err := s.db.Model(&link).Update("status", model.StatusOverdue).Error; err != nil {
			return sent, fmt.Errorf("failed to mark assignment %s overdue: %w", link.ID, err)
		}

		var users []model.User
		if err := s.db.Where("department_id = ? AND role = ?",
			link.DepartmentID, string(model.RoleDepartment)).Find(&users).Error; err != nil {
			return sent, fmt.Errorf("failed to load users for department %s: %w", link.DepartmentID, err)
		}

		for _, user := range users {
			notif := model.Notification{
				UserID:            user.ID,
				IssueDepartmentID: &link.ID,
				Message: fmt.Sprintf("Overdue: issue #%s (%s) passed its deadline on %s.",
					link.Issue.IssueNo, link.Issue.Title, formatDate(link.DeadlineDate)),
			}
			if err := s.db.Create(&notif).Error; err != nil {
				return sent, fmt.Errorf("failed to create overdue notification: %w", err)
			}

			if user.Email != "" {
				if err := sendOverdueEmail(user.Email, link); err != nil {
					log.Printf("[SendOverdueAlerts] email to %s failed: %v", user.Email, err)
				}
			}
			sent++
		}
	}

	log.Printf("[SendOverdueAlerts] %d alerts sent for %d overdue assignments", sent, len(links))
	return sent, nil
}

// sendOverdueEmail delivers one overdue alert over SMTP. Missing mail
// configuration is a silent skip, not an error.
func sendOverdueEmail(to string, link model.IssueDepartment) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	if from == "" || password == "" || smtpHost == "" {
		log.Println("[sendOverdueEmail] SMTP not configured, skipping email")
		return nil
	}
	if smtpPort == "" {
		smtpPort = "587"
	}

	subject := fmt.Sprintf("Overdue Issue: %s", link.Issue.Title)
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Overdue Issue</h2>
		<p>Dear User,</p>
		<p>An issue assigned to %s is overdue:</p>
		<ul>
			<li><strong>Issue:</strong> #%s %s</li>
			<li><strong>Location:</strong> %s</li>
			<li><strong>Deadline:</strong> %s</li>
			<li><strong>Priority:</strong> %s</li>
		</ul>
		<p>Please submit a response at the earliest.</p>
	</body>
	</html>
`, link.Department.Name, link.Issue.IssueNo, link.Issue.Title, link.Issue.Location,
		formatDate(link.DeadlineDate), link.Issue.Priority)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		body)

	auth := smtp.PlainAuth("", from, password, smtpHost)
	return smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message)
}
