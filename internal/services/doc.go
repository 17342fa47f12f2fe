// package services contains HTTP clients for the external collaborators:
// the YouTube Data API (channel/video reads, description writes) and the
// chapter-generation backend (job submission and per-user job history).
//
// Clients never hold the access token; callers pass the session's current
// token at the moment of use so a long-lived client never acts on a stale
// credential.
package services
