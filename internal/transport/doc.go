// Package transport performs the HTTP requests that deliver form submissions.
//
// Sender abstracts request dispatch so capture and replay can be exercised
// against fakes. HTTPSender is the net/http implementation: GET and HEAD
// submissions carry the encoded body as the query string, every other method
// sends it as an application/x-www-form-urlencoded payload. Responses outside
// the 2xx range are returned as *StatusError.
package transport
