// Package invites manages the invitation lifecycle: creating invites in bulk,
// delivering single-use tokens, resending them, and revoking invites via soft
// delete.
//
// Invite lifecycle:
//   - Invites carry a status and a soft delete timestamp that are persisted via
//     Bun. A revoked invite keeps its row so a later re-invite of the same email
//     revives the original record, preserving its id and creation time.
//   - InviteStateMachine centralizes the active/revoked transition graph, hooks,
//     and persistence. Invoke Transition with ActorRef metadata whenever an
//     operator revokes or revives an invitation.
//
// Tokens:
//   - TokenService signs short-lived HS256 tokens that carry the invite id,
//     email, and an "invite" purpose claim. Validate rejects expired tokens,
//     wrong purposes, and unexpected signing methods before the claims reach
//     application code.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the command handlers
//     and the state machine to describe created, revived, resent, and revoked
//     events. Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking the request.
package invites
