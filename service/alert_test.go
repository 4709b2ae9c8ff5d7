package services

import (
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/arjun-kv/CivicMinutes/models"
)

func TestSendOverdueAlerts(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time { return FixedTime })
	defer patches.Reset()

	// SMTP deliberately unconfigured so the email step is a silent skip.
	t.Setenv("SMTP_FROM", "")
	t.Setenv("SMTP_HOST", "")

	svc := newTestService(t)
	minute := seedMinutes(t, svc.db, "Council Meeting", FixedTime)
	dept := seedDepartment(t, svc.db, "ROADS")
	issue := seedIssue(t, svc.db, minute.ID, "Fix potholes")
	link := seedAssignment(t, svc.db, issue.ID, dept.ID, FixedTime.AddDate(0, 0, -3), model.StatusPending)

	worker := seedUser(t, svc.db, "roads_clerk", model.RoleDepartment, &dept.ID)
	worker.Email = "clerk@example.gov"
	require.NoError(t, svc.db.Save(&worker).Error)
	admin := seedUser(t, svc.db, "dpo_admin", model.RoleDPO, &dept.ID)

	sent, err := svc.SendOverdueAlerts()
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.NoError(t, svc.db.First(&link, "id = ?", link.ID).Error)
	assert.Equal(t, model.StatusOverdue, link.Status)

	var notifs []model.Notification
	require.NoError(t, svc.db.Where("user_id = ?", worker.ID).Find(&notifs).Error)
	require.Len(t, notifs, 1)
	assert.Equal(t,
		"Overdue: issue #1 (Fix potholes) passed its deadline on "+formatDate(link.DeadlineDate)+".",
		notifs[0].Message)
	assert.Equal(t, model.NotificationDeadline, notifs[0].DeriveType())

	// Administrative users in the department get no alert.
	var adminNotifs []model.Notification
	require.NoError(t, svc.db.Where("user_id = ?", admin.ID).Find(&adminNotifs).Error)
	assert.Empty(t, adminNotifs)

	// A second run finds nothing pending.
	sent, err = svc.SendOverdueAlerts()
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSendOverdueAlerts_FutureDeadlinesUntouched(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time { return FixedTime })
	defer patches.Reset()

	svc := newTestService(t)
	minute := seedMinutes(t, svc.db, "Council Meeting", FixedTime)
	dept := seedDepartment(t, svc.db, "ROADS")
	issue := seedIssue(t, svc.db, minute.ID, "Fix potholes")
	link := seedAssignment(t, svc.db, issue.ID, dept.ID, FixedTime.AddDate(0, 0, 3), model.StatusPending)

	sent, err := svc.SendOverdueAlerts()
	require.NoError(t, err)
	assert.Zero(t, sent)

	require.NoError(t, svc.db.First(&link, "id = ?", link.ID).Error)
	assert.Equal(t, model.StatusPending, link.Status)
}
