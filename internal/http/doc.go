// Package http provides HTTP handlers and middleware for the roster API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"username","password"}. Response:
//     {"token","expires_at","username","role","display_name","must_change_password"}
//     with the token also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears the
//     cookie.
//   - PUT /sessions/password: changes the calling user's password. Clears the forced
//     password change flag.
//   - GET /employees, POST /employees, GET/PUT/DELETE /employees/{id}: employee
//     registry endpoints exchanging the `employeeDTO` payload defined in
//     employee_handler.go. Deletion deactivates the employee instead of removing it.
//   - GET /employees/{id}/roster?year=&month=: the employee's own month view. Users
//     linked to an employee may only read their own assignments.
//   - GET /shift-codes, PUT /shift-codes, DELETE /shift-codes/{code}: shift code
//     catalog endpoints. Deleting a code clears it from existing assignments.
//   - GET /roster?year=&month=, PUT /roster: month grid load and save. Cells are keyed
//     by "day/month/year". Saves report rows skipped for unknown employees.
//   - GET /roster/export?year=&month=&format=csv|xlsx: month grid download.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{username}: administrator
//     controlled account management exchanging the `userDTO` payload defined in
//     user_handler.go. Password hashes never leave the server.
//   - GET /settings, PUT /settings: typed application settings.
//   - GET /backups, POST /backups, POST /backups/{id}/restore: database snapshot
//     management.
//   - GET /backups/export, POST /backups/import: full-database JSON archive exchange.
//   - GET /audit?limit=: recent audit trail entries, newest first.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
