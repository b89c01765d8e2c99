package memory

import (
	"time"

	"github.com/example/workdesk/internal/persistence"
)

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneUser(user persistence.User) persistence.User {
	return user
}

func cloneSession(session persistence.Session) persistence.Session {
	session.RevokedAt = cloneTime(session.RevokedAt)
	return session
}

func cloneProject(project persistence.Project) persistence.Project {
	project.Description = cloneString(project.Description)
	project.EndsOn = cloneTime(project.EndsOn)
	project.MemberIDs = cloneStrings(project.MemberIDs)
	return project
}

func cloneEvent(event persistence.CalendarEvent) persistence.CalendarEvent {
	event.ProjectID = cloneString(event.ProjectID)
	return event
}

func cloneRoom(room persistence.ChatRoom) persistence.ChatRoom {
	room.ProjectID = cloneString(room.ProjectID)
	room.MemberIDs = cloneStrings(room.MemberIDs)
	return room
}

func cloneMessage(message persistence.ChatMessage) persistence.ChatMessage {
	return message
}

func cloneNotification(notification persistence.Notification) persistence.Notification {
	return notification
}

func cloneTodo(todo persistence.PersonalTodo) persistence.PersonalTodo {
	todo.DueOn = cloneTime(todo.DueOn)
	return todo
}

func cloneBoardGroup(group persistence.BoardGroup) persistence.BoardGroup {
	return group
}

func cloneBoardTask(task persistence.BoardTask) persistence.BoardTask {
	task.AssigneeID = cloneString(task.AssigneeID)
	task.DueOn = cloneTime(task.DueOn)
	return task
}

func cloneExpense(expense persistence.ExpenseItem) persistence.ExpenseItem {
	expense.Memo = cloneString(expense.Memo)
	return expense
}

func cloneRequest(request persistence.ApprovalRequest) persistence.ApprovalRequest {
	steps := make([]persistence.ApprovalStep, len(request.Steps))
	for i, step := range request.Steps {
		step.Reason = cloneString(step.Reason)
		step.DecidedAt = cloneTime(step.DecidedAt)
		steps[i] = step
	}
	request.Steps = steps
	return request
}

func cloneLocker(locker persistence.Locker) persistence.Locker {
	locker.AssigneeID = cloneString(locker.AssigneeID)
	return locker
}

func cloneTraining(session persistence.TrainingSession) persistence.TrainingSession {
	session.EventID = cloneString(session.EventID)
	return session
}

func cloneAttendance(record persistence.AttendanceRecord) persistence.AttendanceRecord {
	record.CheckOut = cloneTime(record.CheckOut)
	return record
}
