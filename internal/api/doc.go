// Package api provides the client for the pond device REST API.
//
// Endpoints:
//   - GET /api/data/{deviceId}: latest live reading
//   - GET /api/history/{deviceId}: readings for the last two days
//
// Both respond with a {"status": "ok", "data": ...} envelope. Anything other
// than status "ok" means "no data"; callers decide what that implies.
package api
