// Package http provides HTTP handlers and middleware for the workdesk API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password","fingerprint"}.
//     The token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie. POST /sessions/refresh rotates a token; DELETE
//     /sessions/current revokes the current one.
//   - /users, /users/{id}: directory management. Creation and deletion are
//     administrator only; users may update their own profile.
//   - /projects, /projects/{id}: project catalog. /projects/{id}/board returns
//     the board columns and cards, /projects/{id}/groups and
//     /projects/{id}/tasks create them, /groups/{id} and /tasks/{id} mutate
//     them.
//   - /events, /events/{id}, /events/import: calendar events. Imported events
//     carry source=imported; welfare events are read-only here.
//   - /rooms, /rooms/{id}/messages, /rooms/{id}/active, /messages/{id},
//     /notifications, /notifications/{id}/read: chat rooms, message logs, the
//     active-room marker used for notification suppression, and the derived
//     notifications.
//   - /todos, /todos/{id}: personal todos.
//   - /expenses, /approvals, /approvals/{id}, /approvals/{id}/approve,
//     /approvals/{id}/reject: expense submissions and their approval chains.
//   - /welfare/sessions, /welfare/sessions/{id}, /lockers, /lockers/{id}/assign,
//     /lockers/{id}/release: training session bookings and locker assignments.
//   - /attendance, /attendance/check-in, /attendance/check-out: attendance
//     records with best-effort reverse geocoding.
//   - /sync/export, /sync/import: the encrypted sync bridge.
//   - /mail: administrator-only outbound mail relay.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
