// Package client talks to the filevault HTTP API.
//
// # Overview
//
// Client is the transport-agnostic contract used by the services layer:
// Authenticate, UploadFile, ListFiles, DeleteFile, ViewFile and the pure
// DownloadURL builder. HTTPClient implements it over net/http, attaching
// "Authorization: Bearer <token>" to every authorized call.
//
// # Error Handling
//
// Every failure is classified into exactly one kind, exposed as a sentinel
// that callers match with errors.Is:
//
//   - ErrAuthenticationFailed: the token endpoint rejected the credentials.
//   - ErrUnauthorized: an authorized call was refused because the token is
//     missing, invalid or expired. Only this kind should end the session.
//   - ErrUploadRejected, ErrListFailed, ErrDeleteFailed, ErrViewFailed: the
//     operation itself failed.
//   - ErrNoToken: the caller passed an empty token; nothing was sent.
//
// Server-side failures are returned as *APIError carrying the HTTP status and
// the server's "detail" message. Transport failures are reported under the
// operation's kind and additionally match ErrUnavailable.
//
// Classification is driven by status 401. As a compatibility shim, a response
// whose detail mentions "credentials" is treated as 401 even when the status
// says otherwise; WithoutCredentialHeuristic turns that off.
//
// No timeout is imposed by the client; the transport's behaviour applies.
package client
