// Package signin reconciles a verified sign-in attempt against the durable
// identity records it may touch: the current session, the user looked up by
// id, by email, and by external (provider) account.
//
// The package runs after credential, OAuth, or email verification has already
// succeeded elsewhere. Its single entry point, Reconciler.Reconcile, decides
// whether the attempt resumes an existing user, creates one, updates one,
// links the external account, or is rejected as an unsafe linking attempt,
// and issues or disposes of sessions accordingly.
//
// Ports:
//   - Store supplies user, linked-account, and session persistence. A
//     bun-backed implementation lives in the repository subpackage. With a
//     nil Store the reconciler is side-effect free and echoes the profile
//     back as a transient identity.
//   - TokenCodec decodes self-contained session tokens. Decode failures are
//     never surfaced; a bad token only means "no current actor".
//   - Hooks observe user creation, user updates, and account linking. Hooks
//     are awaited and a hook failure aborts the invocation, so callers that
//     want fire-and-forget behavior wrap their own sink.
//
// The unauthenticated OAuth path that matches an existing email is the
// security-sensitive branch: by default the account is linked to the matched
// user, mirroring the common provider behavior. LinkModeStrict rejects that
// path with ErrAccountNotLinked instead, for deployments that require the
// existing user to authenticate before new providers can attach.
package signin
